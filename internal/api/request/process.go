package request

// CreateProcess is the request body for starting a new deployment process.
type CreateProcess struct {
	CustomerID        int64   `json:"customer_id" validate:"required,gt=0"`
	SoftwareVersionID int64   `json:"software_version_id" validate:"required,gt=0"`
	ModuleVersionIDs  []int64 `json:"module_version_ids" validate:"required,min=1,dive,gt=0"`
}

// UpdateProcessStatus moves a process along its lifecycle. Force skips the
// adjacency check for operator corrections.
type UpdateProcessStatus struct {
	Status string `json:"status" validate:"required,oneof=INIT PENDING IN_PROGRESS DONE"`
	Force  bool   `json:"force"`
}
