package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ValidationError is malformed input caught before any write is attempted:
// missing required fields, inverted date ranges, out-of-bounds values.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// ConstraintError is a violated cross-entity invariant: a phase member who is
// not a process member, a duplicate num_order, a disallowed state transition.
// The attempted change is discarded.
type ConstraintError struct {
	msg string
}

func (e *ConstraintError) Error() string { return e.msg }

func constraintf(format string, args ...any) error {
	return &ConstraintError{msg: fmt.Sprintf(format, args...)}
}

// PartialFailure reports a compound operation whose primary write succeeded
// while one or more dependent writes failed. The primary write is not rolled
// back; callers may re-attempt the dependent writes.
type PartialFailure struct {
	Op   string
	Errs []error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s: %d dependent write(s) failed: %v", e.Op, len(e.Errs), errors.Join(e.Errs...))
}

func (e *PartialFailure) Unwrap() []error { return e.Errs }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConstraint reports whether err is a ConstraintError.
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// IsPartialFailure reports whether err is a PartialFailure.
func IsPartialFailure(err error) bool {
	var pf *PartialFailure
	return errors.As(err, &pf)
}
