package authors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/5w1tchy/library-api/internal/api/apperr"
	"github.com/5w1tchy/library-api/internal/api/httpx"
	"github.com/5w1tchy/library-api/internal/models"
	"github.com/5w1tchy/library-api/internal/store/library"
	"github.com/5w1tchy/library-api/internal/validate"
	"github.com/google/uuid"
)

var errBadIDList = errors.New("ids must be a parenthesised, comma-separated list of author ids")

// POST /api/authorscollection
func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var in []models.AuthorForCreation
	if err := httpx.DecodeJSON(r, &in); err != nil {
		h.Fail(w, r, err)
		return
	}
	if len(in) == 0 {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", "at least one author is required")
		return
	}
	verrs := validate.Errors{}
	batch := make([]library.NewAuthor, 0, len(in))
	for i, a := range in {
		for k, msg := range validate.Struct(a) {
			verrs[fmt.Sprintf("[%d].%s", i, k)] = msg
		}
		batch = append(batch, newAuthor(a.Entity(), a.Books))
	}
	if len(verrs) > 0 {
		h.Fail(w, r, verrs)
		return
	}

	created, err := h.Store.CreateAuthors(r.Context(), batch)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	h.Log.Info().Int("count", len(created)).Msg("author collection created")

	ids := make([]uuid.UUID, len(created))
	for i, a := range created {
		ids[i] = a.ID
	}
	w.Header().Set("Location", h.Links(r).Href(collectionPath+"/"+FormatIDs(ids)))
	httpx.WriteJSON(w, http.StatusCreated, httpx.MediaJSON, h.Catalog.AuthorDTOs(created))
}

// GET /api/authorscollection/({ids})
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	ids, err := ParseIDs(r.PathValue("ids"))
	if err != nil {
		apperr.WriteStatus(w, r, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	found, err := h.Store.AuthorsByIDs(r.Context(), ids)
	if err != nil {
		h.Fail(w, r, err)
		return
	}
	if len(found) != len(ids) {
		apperr.WriteStatus(w, r, http.StatusNotFound, "Not Found", "one or more authors do not exist")
		return
	}

	// answer in request order
	byID := make(map[uuid.UUID]models.Author, len(found))
	for _, a := range found {
		byID[a.ID] = a
	}
	ordered := make([]models.Author, len(ids))
	for i, id := range ids {
		ordered[i] = byID[id]
	}
	httpx.WriteJSON(w, http.StatusOK, httpx.MediaJSON, h.Catalog.AuthorDTOs(ordered))
}

// ParseIDs reads "(id1,id2,...)". Duplicates are collapsed.
func ParseIDs(raw string) ([]uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "(") || !strings.HasSuffix(raw, ")") {
		return nil, errBadIDList
	}
	inner := strings.TrimSpace(raw[1 : len(raw)-1])
	if inner == "" {
		return nil, errBadIDList
	}
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, part := range strings.Split(inner, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errBadIDList, part)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

// FormatIDs is the inverse of ParseIDs.
func FormatIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}
