// Package handlers holds the pieces shared by the resource handlers and the API
// root document.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/api/middlewares"
	"github.com/5w1tchy/library-api/internal/catalog"
	"github.com/5w1tchy/library-api/internal/resource"
	"github.com/5w1tchy/library-api/internal/resource/links"
	"github.com/5w1tchy/library-api/internal/resource/paging"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/validate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Deps is what every resource handler needs besides its store.
type Deps struct {
	Catalog       *catalog.Catalog
	Paging        paging.Config
	PublicBaseURL string
	TrustProxy    bool
	Log           zerolog.Logger
}

// Links returns a link builder for r.
func (d Deps) Links(r *http.Request) *links.Builder {
	return links.FromRequest(r, d.PublicBaseURL, d.TrustProxy)
}

// Fail writes the problem for err. A request whose context is done gets nothing:
// the client is gone.
func (d Deps) Fail(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		d.Log.Debug().Err(err).Str("request_id", middlewares.GetRequestID(r)).Msg("request cancelled")
		return
	}

	var (
		verrs  validate.Errors
		tooBig *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verrs):
		apperr.Write(w, r, apperr.Unprocessable(verrs))
	case resource.IsClientError(err):
		apperr.Write(w, r, apperr.FromResource(err))
	case errors.Is(err, resource.ErrUnknownRepresentation), errors.Is(err, resource.ErrAttributeMissing):
		d.Log.Error().Err(err).Str("path", r.URL.Path).Msg("resource wiring error")
		apperr.Write(w, r, apperr.FromResource(err))
	case errors.Is(err, library.ErrNotFound):
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, library.ErrConflict):
		apperr.WriteStatus(w, r, http.StatusConflict, "Conflict", "")
	case errors.As(err, &tooBig):
		apperr.WriteStatus(w, r, http.StatusRequestEntityTooLarge, "Payload Too Large", "")
	case errors.Is(err, httpx.ErrEmptyBody), errors.Is(err, httpx.ErrInvalidJSON):
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		if p, ok := apperr.FromPG(err); ok {
			if p.Status >= http.StatusInternalServerError {
				d.Log.Error().Err(err).Str("path", r.URL.Path).Msg("database error")
			}
			apperr.Write(w, r, p)
			return
		}
		d.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		apperr.WriteStatus(w, r, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// PathUUID parses the named path value. On failure it writes a 404 and returns false.
func PathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "")
		return uuid.Nil, false
	}
	return id, true
}
