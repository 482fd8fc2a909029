package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps an error to the appropriate HTTP status code. The outermost
// *Error decides; sentinels inside its Cause do not.
func HTTPStatus(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		err = ae.Sentinel
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FieldOf returns the offending field of a validation error anywhere in the
// chain, or "" when there is none.
func FieldOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && errors.Is(ae.Sentinel, ErrValidation) {
		return ae.Field
	}
	return ""
}
