package errx

import "sync"

// Code is a registered error code owned by a Registry
type Code struct {
	Code       string
	Type       Type
	HTTPStatus int
	Message    string
}

// Registry namespaces error codes for a domain, e.g. "MEMORY_NOT_FOUND"
type Registry struct {
	prefix string

	mu    sync.RWMutex
	codes map[string]Code
}

func NewRegistry(prefix string) *Registry {
	return &Registry{
		prefix: prefix,
		codes:  make(map[string]Code),
	}
}

// Register adds a code to the registry and returns it for later use with New
func (r *Registry) Register(code string, t Type, httpStatus int, message string) Code {
	full := code
	if r.prefix != "" {
		full = r.prefix + "_" + code
	}

	c := Code{
		Code:       full,
		Type:       t,
		HTTPStatus: httpStatus,
		Message:    message,
	}

	r.mu.Lock()
	r.codes[full] = c
	r.mu.Unlock()

	return c
}

// Lookup returns a registered code by its full name
func (r *Registry) Lookup(code string) (Code, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codes[code]
	return c, ok
}

func (r *Registry) New(code Code) *Error {
	return &Error{
		Code:       code.Code,
		Type:       code.Type,
		Message:    code.Message,
		HTTPStatus: code.HTTPStatus,
	}
}

func (r *Registry) NewWithMessage(code Code, message string) *Error {
	e := r.New(code)
	e.Message = message
	return e
}

func (r *Registry) Wrap(err error, code Code) *Error {
	e := r.New(code)
	e.Err = err
	return e
}
