package backend

import "errors"

// ValidationError reports request parameters rejected before any backend
// call is made. Operators see these; retrying never helps.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Expected not-found conditions are explicit error kinds, not panics; the
// orchestration layer matches on them per account and continues the batch.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUserNotFound    = errors.New("user not found")
)
