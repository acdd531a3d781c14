package permissions

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an authorization failure
type Kind string

const (
	KindPermissionDenied Kind = "PermissionDenied"
	KindInvalidArgument  Kind = "InvalidArgument"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidArgument  = errors.New("invalid argument")
)

// Error is returned by every Verify*/Require* function
type Error struct {
	Kind       Kind
	Capability Capability
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match the package sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	}
	return false
}

// StatusHint maps the failure to an HTTP status for the transport layer
func (e *Error) StatusHint() int {
	if e.Kind == KindPermissionDenied {
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func denied(capability Capability) *Error {
	return &Error{
		Kind:       KindPermissionDenied,
		Capability: capability,
		Message:    fmt.Sprintf("You do not have permission to %s", Describe(capability)),
	}
}

func invalid(what string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: fmt.Sprintf("permission check: %s is required", what),
	}
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
