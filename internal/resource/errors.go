// Package resource holds the error taxonomy shared by the shaping, sorting and
// paging packages.
package resource

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

var (
	// Client input errors: the request is rejected before any store access.
	ErrInvalidFields = errors.New("invalid fields request")
	ErrInvalidSort   = errors.New("invalid sort request")

	// Wiring errors: a reachable route references a type the catalog does not know,
	// or a projection could not resolve an attribute that validation already approved.
	ErrUnknownRepresentation = errors.New("unknown representation type")
	ErrAttributeMissing      = errors.New("projection attribute missing")
)

// IsClientError reports whether err should be answered with a 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFields) || errors.Is(err, ErrInvalidSort)
}

// MapHTTPStatus maps taxonomy errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// QueryValue returns the first value of the query parameter whose name matches
// name case-insensitively.
func QueryValue(values url.Values, name string) string {
	if v, ok := values[name]; ok && len(v) > 0 {
		return v[0]
	}
	for k, v := range values {
		if strings.EqualFold(k, name) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
