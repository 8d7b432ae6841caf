package service

import "errors"

// Code classifies a domain failure for transport-level mapping
type Code int

const (
	CodeBadRequest Code = iota
	CodeNotFound
	CodeForbidden
	CodeConflict
)

// Error is a typed domain failure carrying the user-visible message. Store
// failures are never wrapped in an Error; they propagate unmodified.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func notFound(msg string) *Error   { return &Error{Code: CodeNotFound, Message: msg} }
func forbidden(msg string) *Error  { return &Error{Code: CodeForbidden, Message: msg} }
func conflict(msg string) *Error   { return &Error{Code: CodeConflict, Message: msg} }
func badRequest(msg string) *Error { return &Error{Code: CodeBadRequest, Message: msg} }

// AsError extracts a typed domain failure from err, if there is one
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
