package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/delivery/internal/api/handler"
	mw "github.com/edvin/delivery/internal/api/middleware"
	"github.com/edvin/delivery/internal/blob"
	"github.com/edvin/delivery/internal/config"
	"github.com/edvin/delivery/internal/core"
)

//go:embed docs/swagger.json
var swaggerJSON []byte

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	corePool    *pgxpool.Pool
	blobStore   *blob.Store
	cfg         *config.Config
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, coreDB *pgxpool.Pool, blobStore *blob.Store, cfg *config.Config) *Server {
	bus := core.NewBus()
	watchEntityChanges(logger, bus)

	services := core.NewServices(coreDB, bus, blobStore)
	auditLogger := mw.NewAuditLogger(coreDB, logger)

	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		corePool:    coreDB,
		blobStore:   blobStore,
		cfg:         cfg,
		auditLogger: auditLogger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// API documentation (no auth required)
	s.router.Get("/docs/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerJSON)
	})
	s.router.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(scalarHTML))
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))
		r.Use(s.auditLogger.Middleware)

		// Deployment processes
		process := handler.NewProcess(s.services.Process, s.services.Phase, s.services.Membership, s.services.License)
		r.Get("/processes", process.List)
		r.Post("/processes", process.Create)
		r.Get("/processes/{id}", process.Get)
		r.Delete("/processes/{id}", process.Delete)
		r.Put("/processes/{id}/status", process.UpdateStatus)
		r.Get("/processes/{id}/current-step", process.CurrentStep)
		r.Get("/processes/{id}/history", process.History)

		// Process membership
		r.Get("/processes/{id}/members", process.ListMembers)
		r.Post("/processes/{id}/members", process.MemberOp)
		r.Get("/processes/{id}/member-candidates", process.MemberCandidates)

		// Phases within a process
		r.Get("/processes/{id}/phases", process.ListPhases)
		r.Post("/processes/{id}/phases", process.AddPhase)

		// Licenses within a process
		r.Get("/processes/{id}/licenses", process.ListLicenses)
		r.Post("/processes/{id}/licenses", process.CreateLicense)
		r.Get("/processes/{id}/can-issue-license", process.CanIssueLicense)

		// Deployment phases
		phase := handler.NewPhase(s.services.Phase, s.services.Membership, s.services.Attachment)
		r.Get("/phases/{id}", phase.Get)
		r.Put("/phases/{id}", phase.UpdateDates)
		r.Delete("/phases/{id}", phase.Delete)
		r.Post("/phases/{id}/start", phase.Start)
		r.Post("/phases/{id}/complete", phase.Complete)
		r.Get("/phases/{id}/history", phase.History)

		// Phase membership
		r.Get("/phases/{id}/members", phase.ListMembers)
		r.Post("/phases/{id}/members", phase.MemberOp)
		r.Get("/phases/{id}/member-candidates", phase.MemberCandidates)

		// Phase attachments
		r.Get("/phases/{id}/attachments", phase.ListAttachments)
		r.Post("/phases/{id}/attachments", phase.AttachmentOp)

		// Phase types
		phaseType := handler.NewPhaseType(s.services.PhaseType)
		r.Get("/phase-types", phaseType.List)
		r.Post("/phase-types", phaseType.Create)
		r.Get("/phase-types/{id}", phaseType.Get)
		r.Put("/phase-types/{id}", phaseType.Update)
		r.Delete("/phase-types/{id}", phaseType.Delete)

		// Licenses
		license := handler.NewLicense(s.services.License)
		r.Get("/licenses/expiring", license.ListExpiring)
		r.Get("/licenses/{id}", license.Get)
		r.Put("/licenses/{id}", license.Update)
		r.Get("/licenses/{id}/detail", license.Detail)

		// Files
		file := handler.NewFile(s.services.File, s.blobStore)
		r.Post("/files", file.Upload)
		r.Get("/files/{id}/download-url", file.DownloadURL)

		// Customers
		customer := handler.NewCustomer(s.services.Customer)
		r.Get("/customers", customer.List)
		r.Post("/customers", customer.Create)
		r.Get("/customers/{id}", customer.Get)
		r.Put("/customers/{id}", customer.Update)
		r.Delete("/customers/{id}", customer.Delete)

		// Software versions
		softwareVersion := handler.NewSoftwareVersion(s.services.SoftwareVersion)
		r.Get("/software-versions", softwareVersion.List)
		r.Post("/software-versions", softwareVersion.Create)
		r.Get("/software-versions/{id}", softwareVersion.Get)
		r.Delete("/software-versions/{id}", softwareVersion.Delete)
		r.Get("/software-versions/{id}/modules", softwareVersion.ListModules)
		r.Post("/software-versions/{id}/modules", softwareVersion.AddModule)

		// Documents
		document := handler.NewDocument(s.services.Document, s.services.Attachment)
		r.Get("/documents", document.List)
		r.Post("/documents", document.Create)
		r.Get("/documents/{id}", document.Get)
		r.Put("/documents/{id}", document.Update)
		r.Delete("/documents/{id}", document.Delete)
		r.Get("/documents/{id}/attachments", document.ListAttachments)
		r.Post("/documents/{id}/attachments", document.AttachmentOp)

		// Users
		user := handler.NewUser(s.services.User)
		r.Get("/users", user.List)
		r.Post("/users", user.Create)
		r.Get("/users/{id}", user.Get)
		r.Get("/users/deployment-persons", user.ListDeploymentPersons)

		// API keys
		apiKey := handler.NewAPIKey(s.services.APIKey)
		r.Get("/api-keys", apiKey.List)
		r.Post("/api-keys", apiKey.Create)
		r.Delete("/api-keys/{id}", apiKey.Revoke)
	})
}

// watchEntityChanges drains the core change bus and logs every entity-changed
// event. Cached read views key their invalidation off these entries.
func watchEntityChanges(logger zerolog.Logger, bus *core.Bus) {
	events, _ := bus.Subscribe(256)
	go func() {
		for ev := range events {
			logger.Debug().
				Str("entity", ev.Entity).
				Int64("id", ev.ID).
				Str("op", ev.Op).
				Msg("entity changed")
		}
	}()
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const scalarHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Delivery Console API</title>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
</head>
<body>
  <script id="api-reference" data-url="/docs/openapi.json"></script>
  <script src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body>
</html>`
