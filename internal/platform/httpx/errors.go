// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrValidation    = errors.New("validation failed")
	ErrUnsupported   = errors.New("unsupported media type")
	ErrBodyTooLarge  = errors.New("request body too large")
	ErrMalformedBody = errors.New("malformed request body")
)

// FieldErrors is implemented by validation errors that can report the
// offending fields individually.
type FieldErrors interface {
	error
	Fields() map[string]string
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fields FieldErrors
	switch {
	case errors.As(err, &fields):
		ValidationProblem(w, fields.Fields())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrMalformedBody):
		Problem(w, http.StatusBadRequest, "Malformed Request", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnsupported):
		Problem(w, http.StatusUnsupportedMediaType, "Unsupported Media Type", err.Error())
	case errors.Is(err, ErrBodyTooLarge):
		Problem(w, http.StatusRequestEntityTooLarge, "Request Too Large", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
