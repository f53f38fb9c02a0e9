// Package apperr defines the typed failures returned by the workflow core.
package apperr

import "errors"

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable class
	Reason  string // Specific failure inside the class, empty for generic errors
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on code, and on reason when the target carries one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Reason == "" || e.Reason == t.Reason
}

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func reason(code Code, r, message string) *Error {
	return &Error{Code: code, Reason: r, Message: message}
}

// Generic class sentinels, usable as errors.Is targets.
var (
	ErrNotFound     = New(CodeNotFound, "not found")
	ErrForbidden    = New(CodeForbidden, "forbidden")
	ErrConflict     = New(CodeConflict, "conflict")
	ErrInvalidInput = New(CodeInvalidInput, "invalid input")
	ErrInternal     = New(CodeInternal, "internal error")
)

// Named failures.
var (
	ErrAlreadyMember       = reason(CodeConflict, "ALREADY_MEMBER", "account is already a member of this workspace")
	ErrCannotRemoveOwner   = reason(CodeConflict, "CANNOT_REMOVE_OWNER", "the workspace owner cannot be removed or demoted")
	ErrAlreadyDecided      = reason(CodeConflict, "ALREADY_DECIDED", "invitation has already been processed")
	ErrAlreadyAssigned     = reason(CodeConflict, "ALREADY_ASSIGNED", "account is already assigned to this task")
	ErrInvitationPending   = reason(CodeConflict, "INVITATION_PENDING", "a pending invitation already exists for this account")
	ErrNotMember           = reason(CodeNotFound, "NOT_MEMBER", "account is not a member of this workspace")
	ErrNotAssigned         = reason(CodeNotFound, "NOT_ASSIGNED", "account is not assigned to this task")
	ErrRecipientNotFound   = reason(CodeNotFound, "RECIPIENT_NOT_FOUND", "no account with that email")
	ErrCannotInviteAsOwner = reason(CodeInvalidInput, "CANNOT_INVITE_AS_OWNER", "invitations cannot grant the owner role")
)

// NotFound builds a NotFound error naming the missing entity.
func NotFound(entity string) *Error {
	return New(CodeNotFound, entity+" not found")
}

// Forbidden builds a Forbidden error with a message.
func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

// Invalid builds an InvalidInput error with a message.
func Invalid(message string) *Error {
	return New(CodeInvalidInput, message)
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *Error {
	return Wrap(CodeInternal, message, cause)
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
