package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Field catalog handlers

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields := s.catalog.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"fields": fields,
		"total":  len(fields),
	})
}

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "field id is required")
		return
	}

	field := s.catalog.Get(id)
	if field == nil {
		respondError(w, http.StatusNotFound, "not_found", "field not found")
		return
	}

	respondJSON(w, http.StatusOK, field)
}
