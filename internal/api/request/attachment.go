package request

// AttachmentOp links or unlinks one stored file.
type AttachmentOp struct {
	FileID   int64  `json:"file_id" validate:"required,gt=0"`
	Operator string `json:"operator" validate:"required,oneof=ADD REMOVE"`
}
