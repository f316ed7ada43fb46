package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain error for transport-layer mapping
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindConflict
	KindInvalidState
	KindForbidden
	KindUnauthorized
	KindValidation
)

// Error is a business rule violation with a stable machine-readable code
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(kind ErrorKind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity
func NotFoundError(code, format string, args ...any) *Error {
	return newError(KindNotFound, code, format, args...)
}

// ConflictError reports a uniqueness or concurrency conflict
func ConflictError(code, format string, args ...any) *Error {
	return newError(KindConflict, code, format, args...)
}

// InvalidStateError reports an operation not permitted in the entity's
// current state
func InvalidStateError(code, format string, args ...any) *Error {
	return newError(KindInvalidState, code, format, args...)
}

// ForbiddenError reports insufficient rights for an operation
func ForbiddenError(code, format string, args ...any) *Error {
	return newError(KindForbidden, code, format, args...)
}

// UnauthorizedError reports failed or missing authentication
func UnauthorizedError(code, format string, args ...any) *Error {
	return newError(KindUnauthorized, code, format, args...)
}

// ValidationError reports malformed or out-of-range input
func ValidationError(code, format string, args ...any) *Error {
	return newError(KindValidation, code, format, args...)
}

// AsDomainError unwraps err into a domain Error, if it is one
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a domain error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == kind
}
