package recognize

import (
	"errors"
	"fmt"
)

// Kind groups recognition failures by how the user recovers from them.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindRender     Kind = "render"
)

// ValidationError is returned before anything is sent: bad file type, file
// too large, or no image chosen.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NetworkError means the endpoint never answered.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx answer from the endpoint.
type ServerError struct {
	StatusCode int
	StatusText string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server error: %d %s", e.StatusCode, e.StatusText)
}

// RenderError is display-only; the raw markup stays usable.
type RenderError struct {
	Markup string
	Err    error
}

func (e *RenderError) Error() string {
	return "Failed to render LaTeX. The code may be invalid: " + e.Err.Error()
}
func (e *RenderError) Unwrap() error { return e.Err }

// KindOf classifies err; unknown errors count as network failures since
// they all come from the submission path.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		se *ServerError
		re *RenderError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &se):
		return KindServer
	case errors.As(err, &re):
		return KindRender
	default:
		return KindNetwork
	}
}
