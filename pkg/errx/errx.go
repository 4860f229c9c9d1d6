package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an error independently of the domain that raised it
type Type string

const (
	TypeValidation     Type = "VALIDATION"
	TypeBadRequest     Type = "BAD_REQUEST"
	TypeNotFound       Type = "NOT_FOUND"
	TypeConflict       Type = "CONFLICT"
	TypeAuthentication Type = "AUTHENTICATION"
	TypeAuthorization  Type = "AUTHORIZATION"
	TypeBusiness       Type = "BUSINESS"
	TypeExternal       Type = "EXTERNAL"
	TypeInternal       Type = "INTERNAL"
)

// Error is the error value carried from services to the HTTP error handler
type Error struct {
	Code       string         `json:"code"`
	Type       Type           `json:"type"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two errx errors by code so registry errors work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithDetail attaches a key/value pair that is rendered in the error response
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails attaches several details at once
func (e *Error) WithDetails(details map[string]any) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// WithMessage replaces the public message
func (e *Error) WithMessage(message string) *Error {
	e.Message = message
	return e
}

// New creates an error of the given type with a default code and status
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Type:       t,
		Message:    message,
		HTTPStatus: StatusFor(t),
	}
}

// Wrap wraps an underlying error, keeping it available through errors.Unwrap
func Wrap(err error, message string, t Type) *Error {
	e := New(message, t)
	e.Err = err
	return e
}

// As extracts an *Error from an error chain
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusFor maps a Type to its default HTTP status
func StatusFor(t Type) int {
	switch t {
	case TypeValidation:
		return http.StatusUnprocessableEntity
	case TypeBadRequest:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeAuthentication:
		return http.StatusUnauthorized
	case TypeAuthorization:
		return http.StatusForbidden
	case TypeBusiness:
		return http.StatusUnprocessableEntity
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
