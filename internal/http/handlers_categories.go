package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories.List(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	c, err := s.svc.Categories.Create(r.Context(), ownerID(r), core.Category{
		Name: req.Name,
		Type: core.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type))),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := s.svc.Categories.Delete(r.Context(), ownerID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
