package domain

import (
	"errors"
	"net/http"
)

// Code classifies an AppError.
type Code int

// Error codes. Validation and NotFound come from bad input, Upstream from the
// merchant backend and Internal from the database.
const (
	CodeNotFound Code = iota + 1
	CodeAlreadyExists
	CodeValidation
	CodeInternal
	CodeUpstream
)

type codeInfo struct {
	status int
	// userFacing codes carry messages that may be shown in toasts.
	userFacing bool
}

var codes = map[Code]codeInfo{
	CodeNotFound:      {http.StatusNotFound, true},
	CodeAlreadyExists: {http.StatusConflict, true},
	CodeValidation:    {http.StatusBadRequest, true},
	CodeInternal:      {http.StatusInternalServerError, false},
	CodeUpstream:      {http.StatusBadGateway, false},
}

// Status returns the HTTP status for c, 500 for unknown codes.
func (c Code) Status() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// UserFacing reports whether messages with this code are safe to display.
func (c Code) UserFacing() bool { return codes[c].userFacing }

// AppError is a classified error with a display message and an optional cause.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// ErrNotFound is returned for a missing record. Match with IsNotFound, which
// also accepts other AppErrors with the same code.
var ErrNotFound = &AppError{Code: CodeNotFound, Message: "not found"}

// NewAppError creates an AppError.
func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Invalid returns a validation error with message.
func Invalid(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) (Code, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}

func hasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

func IsNotFound(err error) bool      { return hasCode(err, CodeNotFound) }
func IsAlreadyExists(err error) bool { return hasCode(err, CodeAlreadyExists) }
func IsValidation(err error) bool    { return hasCode(err, CodeValidation) }
func IsInternal(err error) bool      { return hasCode(err, CodeInternal) }
func IsUpstream(err error) bool      { return hasCode(err, CodeUpstream) }

// HTTPStatusCode maps err to a status: the AppError's code, else 500.
func HTTPStatusCode(err error) int {
	if c, ok := CodeOf(err); ok {
		return c.Status()
	}
	return http.StatusInternalServerError
}
