package serviceerr

import (
	"errors"
	"net/http"
)

var ErrNotFound = errors.New("not found")
var ErrUnauthenticated = errors.New("not authenticated")
var ErrForbidden = errors.New("access denied")
var ErrInvalidInput = errors.New("invalid input")
var ErrUnavailable = errors.New("backend unavailable")

// HTTPStatus maps err to the status a portal view answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
