package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrUnreachable wraps every network or auth failure from a store call.
	ErrUnreachable = errors.New("store unreachable")

	// ErrTimeout marks a remote operation that lost a bounded race.
	ErrTimeout = errors.New("timed out")
)

// HasChildFoldersError is returned when deleting a folder that still has
// child folders. Nothing is mutated when it is returned.
type HasChildFoldersError struct {
	FolderID   string
	ChildCount int
}

func (e *HasChildFoldersError) Error() string {
	return fmt.Sprintf("folder %s has %d child folder(s)", e.FolderID, e.ChildCount)
}

// StatusCode implements HTTPError
func (e *HasChildFoldersError) StatusCode() int { return http.StatusPreconditionFailed }

// Is allows errors.Is() to match against ErrPreconditionFailed
func (e *HasChildFoldersError) Is(target error) bool {
	return target == ErrPreconditionFailed
}

// ValidationError indicates invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StatusCode implements HTTPError
func (e *ValidationError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StatusFor maps an error to the HTTP status the API responds with.
func StatusFor(err error) int {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode()
	}

	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
