package service

import "errors"

// Error categories. Every error returned by this package for a rejected
// request unwraps to exactly one of these.
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidInput       = errors.New("invalid input")
)

// Error is a categorized failure with a stable machine-readable code
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrInvalidSession     = &Error{Kind: ErrUnauthorized, Code: "INVALID_SESSION", Message: "invalid session"}
	ErrInvalidCredentials = &Error{Kind: ErrUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid credentials"}
	ErrInvalidTicket      = &Error{Kind: ErrUnauthorized, Code: "INVALID_TICKET", Message: "invalid or expired ticket"}

	ErrTeamNotFound    = &Error{Kind: ErrNotFound, Code: "TEAM_NOT_FOUND", Message: "team not found"}
	ErrProblemNotFound = &Error{Kind: ErrNotFound, Code: "PROBLEM_NOT_FOUND", Message: "problem not found"}

	ErrTeamExists      = &Error{Kind: ErrConflict, Code: "TEAM_EXISTS", Message: "team code already exists"}
	ErrAlreadySpun     = &Error{Kind: ErrConflict, Code: "ALREADY_SPUN", Message: "spin already used"}
	ErrAlreadySelected = &Error{Kind: ErrConflict, Code: "ALREADY_SELECTED", Message: "problem already selected"}

	ErrProblemFull = &Error{Kind: ErrCapacityExceeded, Code: "PROBLEM_FULL", Message: "problem statement full"}

	ErrLoginDisabled = &Error{Kind: ErrPreconditionFailed, Code: "LOGIN_DISABLED", Message: "login disabled"}
	ErrTeamDisabled  = &Error{Kind: ErrPreconditionFailed, Code: "TEAM_DISABLED", Message: "team disabled"}
)

// InvalidInput builds a request validation error
func InvalidInput(message string) error {
	return &Error{Kind: ErrInvalidInput, Code: "INVALID_INPUT", Message: message}
}

// ErrorCode returns the machine code of err, or "" for uncategorized errors
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
