package machine

import "fmt"

// Code identifies a class of booking failure. Every code maps to exactly one
// HTTP status in the api package.
type Code string

const (
	CodeNotFound                  Code = "NOT_FOUND"
	CodeInvalidDuration           Code = "INVALID_DURATION"
	CodeInvalidStatus             Code = "INVALID_STATUS"
	CodeInvalidName               Code = "INVALID_NAME"
	CodeDuplicateName             Code = "DUPLICATE_NAME"
	CodeBranchNotFound            Code = "BRANCH_NOT_FOUND"
	CodeBranchUnassigned          Code = "BRANCH_UNASSIGNED"
	CodeBranchMismatch            Code = "BRANCH_MISMATCH"
	CodeForbidden                 Code = "FORBIDDEN"
	CodeMachineUnavailable        Code = "MACHINE_UNAVAILABLE"
	CodeMachineUnderMaintenance   Code = "MACHINE_UNDER_MAINTENANCE"
	CodeNotOccupied               Code = "NOT_OCCUPIED"
	CodeAlreadyOccupying          Code = "ALREADY_OCCUPYING"
	CodeAlreadyOccupyingElsewhere Code = "ALREADY_OCCUPYING_ELSEWHERE"
	CodeAlreadyQueued             Code = "ALREADY_QUEUED"
	CodeAlreadyQueuedElsewhere    Code = "ALREADY_QUEUED_ELSEWHERE"
	CodeNotInQueue                Code = "NOT_IN_QUEUE"
	CodeNotExpired                Code = "NOT_EXPIRED"
)

// Error is a booking failure with a user-facing message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any *Error with the same code, so callers can test against the
// sentinels below regardless of the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrNotFound                  = &Error{Code: CodeNotFound, Message: "Machine not found"}
	ErrInvalidDuration           = &Error{Code: CodeInvalidDuration, Message: "Invalid duration. Must be between 1 and 180 minutes."}
	ErrInvalidStatus             = &Error{Code: CodeInvalidStatus, Message: "Invalid status"}
	ErrInvalidName               = &Error{Code: CodeInvalidName, Message: "Machine name is required"}
	ErrDuplicateName             = &Error{Code: CodeDuplicateName, Message: "Machine with this name already exists in this branch"}
	ErrBranchNotFound            = &Error{Code: CodeBranchNotFound, Message: "Branch not found"}
	ErrBranchUnassigned          = &Error{Code: CodeBranchUnassigned, Message: "You are not assigned to a branch"}
	ErrBranchMismatch            = &Error{Code: CodeBranchMismatch, Message: "This machine belongs to another branch"}
	ErrForbidden                 = &Error{Code: CodeForbidden, Message: "You can only release your own machine"}
	ErrMachineUnavailable        = &Error{Code: CodeMachineUnavailable, Message: "Machine is currently in use"}
	ErrMachineUnderMaintenance   = &Error{Code: CodeMachineUnderMaintenance, Message: "Machine is under maintenance"}
	ErrNotOccupied               = &Error{Code: CodeNotOccupied, Message: "Machine is not in use"}
	ErrAlreadyOccupying          = &Error{Code: CodeAlreadyOccupying, Message: "You are currently using this machine"}
	ErrAlreadyOccupyingElsewhere = &Error{Code: CodeAlreadyOccupyingElsewhere, Message: "You are already using another machine"}
	ErrAlreadyQueued             = &Error{Code: CodeAlreadyQueued, Message: "You are already in the queue"}
	ErrAlreadyQueuedElsewhere    = &Error{Code: CodeAlreadyQueuedElsewhere, Message: "You are already queued for another machine"}
	ErrNotInQueue                = &Error{Code: CodeNotInQueue, Message: "You are not in the queue"}
	ErrNotExpired                = &Error{Code: CodeNotExpired, Message: "Machine timer has not expired"}
)
