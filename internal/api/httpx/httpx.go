package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	MediaJSON       = "application/json"
	MediaHypermedia = "application/vnd.library.hateoas+json"
	MediaJSONPatch  = "application/json-patch+json"

	// Author creation media types.
	MediaAuthorFull          = "application/vnd.library.author.full+json"
	MediaAuthorWithDeathFull = "application/vnd.library.authorwithdateofdeath.full+json"

	HeaderPagination = "X-Pagination"
)

var (
	ErrEmptyBody   = errors.New("request body is empty")
	ErrInvalidJSON = errors.New("invalid JSON")
)

// WriteJSON encodes v with the given status. An empty contentType means
// application/json.
func WriteJSON(w http.ResponseWriter, status int, contentType string, v any) {
	if contentType == "" {
		contentType = MediaJSON
	}
	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SetPagination writes meta as JSON into the X-Pagination header.
func SetPagination(w http.ResponseWriter, meta any) error {
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	w.Header().Set(HeaderPagination, string(b))
	return nil
}

// MediaTypes returns the media types listed in the Accept header, lowercased and
// without parameters.
func MediaTypes(r *http.Request) []string {
	var out []string
	for _, h := range r.Header.Values("Accept") {
		for _, part := range strings.Split(h, ",") {
			mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
			if err != nil {
				continue
			}
			out = append(out, mt)
		}
	}
	return out
}

// WantsHypermedia reports whether the client asked for the hypermedia representation.
func WantsHypermedia(r *http.Request) bool {
	for _, mt := range MediaTypes(r) {
		if mt == MediaHypermedia {
			return true
		}
	}
	return false
}

// ContentType returns the request media type without parameters.
func ContentType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// DecodeJSON decodes a single JSON value from the request body.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidJSON)
	}
	return nil
}

// ReadBody reads the whole request body, reporting an empty one as ErrEmptyBody.
func ReadBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return nil, ErrEmptyBody
	}
	return b, nil
}
