package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name string `json:"name" validate:"required"`
	Kind string `json:"type" validate:"required,oneof=income expense"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"type"`
	UserID *int64 `json:"user_id"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	categories, err := s.storage.ListCategories(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:     c.ID,
			Name:   c.Name,
			Kind:   string(c.Kind),
			UserID: c.UserID,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	category := core.Category{
		Name:   strings.TrimSpace(req.Name),
		Kind:   core.Kind(req.Kind),
		UserID: &claims.UserID,
	}
	if err := category.Validate(); err != nil {
		handleError(w, r, err)
		return
	}

	id, err := s.storage.CreateCategory(r.Context(), category)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":      id,
		"name":    category.Name,
		"type":    req.Kind,
		"message": "Category added successfully",
	})
}
