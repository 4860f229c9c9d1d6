package memory

import (
	"net/http"

	"github.com/memorai/memorai/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("MEMORY")

var (
	CodeUnauthorized    = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthentication, http.StatusUnauthorized, "Invalid or missing API key")
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Memory not found")
	CodeMissingFilters  = ErrRegistry.Register("MISSING_FILTERS", errx.TypeBadRequest, http.StatusBadRequest, "Must provide at least user_id or agent_id to delete memories")
	CodeInvalidRequest  = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusUnprocessableEntity, "Invalid request")
	CodeUpstreamFailure = ErrRegistry.Register("UPSTREAM_FAILURE", errx.TypeExternal, http.StatusInternalServerError, "Memory engine failure")
)

func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

// ErrMemoryNotFound is raised by the engine for updates of unknown ids and by the API for nil gets
func ErrMemoryNotFound(id string) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeNotFound, "Memory "+id+" not found").WithDetail("memory_id", id)
}

func ErrMissingFilters() *errx.Error {
	return ErrRegistry.New(CodeMissingFilters)
}

func ErrInvalidRequest() *errx.Error {
	return ErrRegistry.New(CodeInvalidRequest)
}

// ErrUpstream wraps an engine failure as "<operation>: <error text>"
func ErrUpstream(operation string, err error) *errx.Error {
	return ErrRegistry.NewWithMessage(CodeUpstreamFailure, operation+": "+err.Error()).
		WithDetail("operation", operation)
}
