package request

// MemberOp adds or removes one member.
type MemberOp struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	Operator string `json:"operator" validate:"required,oneof=ADD REMOVE"`
}
