package request

// CreateCustomer registers a customer in the directory.
type CreateCustomer struct {
	Name         string `json:"name" validate:"required"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
}

// CreateSoftwareVersion registers a releasable software version.
type CreateSoftwareVersion struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
}

// CreateModuleVersion adds a module build under a software version.
type CreateModuleVersion struct {
	Name    string `json:"name" validate:"required"`
	Version string `json:"version" validate:"required"`
}

// CreatePhaseType registers a reusable phase type.
type CreatePhaseType struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateDocument registers a standalone document.
type CreateDocument struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
}

// CreateUser registers a user in the personnel directory.
type CreateUser struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// CreateAPIKey requests a new API key for a user.
type CreateAPIKey struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Name   string `json:"name" validate:"required"`
}
