package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/apperr"
)

const (
	defaultPerPage = 50
	maxPerPage     = 100
)

type searchQuery struct {
	Term       string `validate:"max=100"`
	Page       int    `validate:"min=1"`
	PerPage    int    `validate:"min=1,max=100"`
	OffsetPage int    `validate:"min=0"`
}

// Range returns the row offset and limit for the requested page.
func (q searchQuery) Range() (offset, limit int) {
	return (q.Page - 1 + q.OffsetPage) * q.PerPage, q.PerPage
}

func (s *Server) parseSearch(r *http.Request) (searchQuery, error) {
	values := r.URL.Query()
	q := searchQuery{
		Term:       strings.TrimSpace(values.Get("q")),
		Page:       1,
		PerPage:    defaultPerPage,
		OffsetPage: 0,
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &q.Page},
		{"perPage", &q.PerPage},
		{"offsetPage", &q.OffsetPage},
	} {
		raw := values.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperr.New(apperr.CodeValidation, p.name+" must be an integer")
		}
		*p.dst = n
	}
	if q.PerPage > maxPerPage {
		q.PerPage = maxPerPage
	}

	if err := s.validate.Struct(q); err != nil {
		return q, apperr.Wrap(apperr.CodeValidation, err, "invalid search parameters")
	}
	return q, nil
}

// itemID reads and validates the {id} path parameter.
func (s *Server) itemID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if err := s.validate.Var(id, "required,max=128,printascii"); err != nil {
		return "", apperr.New(apperr.CodeValidation, "invalid item id")
	}
	return id, nil
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseSearch(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	offset, limit := q.Range()
	items, err := s.items.Search(r.Context(), q.Term, offset, limit)
	if err != nil {
		writeAppError(w, r, apperr.Wrap(apperr.CodeDependency, err, "failed to search items"))
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	id, err := s.itemID(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	location := r.URL.Query().Get("location")
	obs, err := s.observations.Latest(r.Context(), id, location, parseLimit(r, 100))
	if err != nil {
		writeAppError(w, r, apperr.Wrap(apperr.CodeDependency, err, "failed to fetch observations"))
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := s.validate.Var(userID, "required,max=128"); err != nil {
		writeAppError(w, r, apperr.New(apperr.CodeValidation, "invalid user id"))
		return
	}

	items, err := s.tracking.TrackedItems(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, apperr.Wrap(apperr.CodeDependency, err, "failed to fetch tracked items"))
		return
	}
	writeJSON(w, http.StatusOK, items)
}
