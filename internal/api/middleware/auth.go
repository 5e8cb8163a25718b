package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edvin/delivery/internal/api/response"
)

type contextKey string

const IdentityKey contextKey = "identity"

// Identity holds the authenticated caller resolved from their API key.
type Identity struct {
	KeyID  int64
	UserID int64
	Name   string
	Role   string
}

// GetIdentity returns the caller identity from the request context, or nil.
func GetIdentity(ctx context.Context) *Identity {
	id, _ := ctx.Value(IdentityKey).(*Identity)
	return id
}

// Auth returns a middleware that validates the X-API-Key header against the
// api_keys table and resolves the owning user.
func Auth(pool *pgxpool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing API key")
				return
			}

			hash := sha256.Sum256([]byte(key))
			keyHash := hex.EncodeToString(hash[:])

			var identity Identity
			err := pool.QueryRow(r.Context(),
				`SELECT k.id, u.id, u.name, u.role
				 FROM api_keys k JOIN users u ON u.id = k.user_id
				 WHERE k.key_hash = $1 AND k.revoked_at IS NULL`, keyHash,
			).Scan(&identity.KeyID, &identity.UserID, &identity.Name, &identity.Role)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), IdentityKey, &identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
