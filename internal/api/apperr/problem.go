package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/5w1tchy/library-api/internal/resource"
)

type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`    // e.g. "unique", "not_null", "fk", "invalid", "too_long"
	Message string `json:"message"` // human readable
}

type Problem struct {
	Type        string       `json:"type,omitempty"`   // RFC7807 type URI
	Title       string       `json:"title"`            // short summary
	Status      int          `json:"status"`           // HTTP status code
	Detail      string       `json:"detail,omitempty"` // human details
	Instance    string       `json:"instance,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	FieldErrors []FieldError `json:"field_errors,omitempty"`
	Retryable   bool         `json:"retryable,omitempty"`
}

func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}
	if p.RequestID == "" && r != nil {
		if rid := r.Header.Get("X-Request-ID"); rid != "" {
			p.RequestID = rid
		}
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Convenience: fast write with just status+title+detail
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	Write(w, r, Problem{Status: status, Title: title, Detail: detail})
}

// FromResource maps a shaping/sorting error to a Problem. Client errors carry
// their message; wiring errors are reported without detail.
func FromResource(err error) Problem {
	status := resource.MapHTTPStatus(err)
	if status == http.StatusBadRequest {
		field := "fields"
		if errors.Is(err, resource.ErrInvalidSort) {
			field = "orderBy"
		}
		return Problem{
			Status:      status,
			Title:       "Bad Request",
			Detail:      err.Error(),
			FieldErrors: []FieldError{{Field: field, Code: "invalid", Message: err.Error()}},
		}
	}
	return Problem{Status: status, Title: "Internal Server Error"}
}

// Unprocessable turns per-field validation messages into a 422 Problem. Fields are
// sorted so the response is stable.
func Unprocessable(fields map[string]string) Problem {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p := Problem{Status: http.StatusUnprocessableEntity, Title: "Unprocessable Entity"}
	for _, k := range keys {
		p.FieldErrors = append(p.FieldErrors, FieldError{Field: k, Code: "invalid", Message: fields[k]})
	}
	return p
}
