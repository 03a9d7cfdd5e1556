package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is. Every *APIError matches exactly one of them.
var (
	ErrNetwork    = errors.New("network error")
	ErrAuth       = errors.New("unauthorized")
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrServer     = errors.New("server error")
)

// APIError is a failed call to the products API
type APIError struct {
	Kind    error  // one of the sentinels above
	Op      string // list, create, update, delete, login
	Status  int    // 0 for transport failures
	Message string
	Err     error // underlying transport error, if any
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is matches the sentinel kind
func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// kindForStatus maps a non-2xx status to its error kind
func kindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrServer
	}
}

// Code returns a stable string for the error kind, used in JSON error bodies
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuth):
		return "AUTH_ERROR"
	case errors.Is(err, ErrNetwork):
		return "NETWORK_ERROR"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	default:
		return "SERVER_ERROR"
	}
}

// HTTPStatus is the status the dashboard answers with for err
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNetwork):
		return http.StatusBadGateway
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
