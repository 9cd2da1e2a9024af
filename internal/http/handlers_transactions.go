package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

type transactionRequest struct {
	Amount      json.Number `json:"amount" validate:"required"`
	Kind        string      `json:"type" validate:"required,oneof=income expense"`
	Date        string      `json:"date" validate:"required"`
	Description string      `json:"description" validate:"omitempty,max=200"`
	CategoryID  *int64      `json:"category_id"`
}

type transactionResponse struct {
	ID           int64   `json:"id"`
	Amount       float64 `json:"amount"`
	Kind         string  `json:"type"`
	Date         string  `json:"date"`
	Description  string  `json:"description"`
	CategoryID   *int64  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:           t.ID,
		Amount:       t.Amount.Decimal(),
		Kind:         string(t.Kind),
		Date:         t.Date.String(),
		Description:  t.Description,
		CategoryID:   t.CategoryID,
		CategoryName: t.CategoryName,
	}
}

// toTransaction converts a validated request into a domain transaction.
func (req transactionRequest) toTransaction(userID int64) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      userID,
		CategoryID:  req.CategoryID,
		Amount:      core.Money{Cents: cents},
		Kind:        core.Kind(req.Kind),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	transactions, err := s.transactions.List(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(claims.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	saved, err := s.transactions.Create(r.Context(), t)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id":      saved.ID,
		"message": "Transaction added successfully",
	})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	t, err := req.toTransaction(claims.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	t.ID = id

	if err := s.transactions.Update(r.Context(), t); err != nil {
		handleError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Transaction updated successfully")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := s.transactions.Delete(r.Context(), id, claims.UserID); err != nil {
		handleError(w, r, err)
		return
	}

	respondMessage(w, http.StatusOK, "Transaction deleted successfully")
}

type categoryTotalResponse struct {
	Name  string  `json:"name"`
	Kind  string  `json:"type"`
	Total float64 `json:"total"`
}

// handleCategoryBreakdown serves per-category totals, optionally filtered to
// one month. The month and year parameters only apply together.
func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	month, year := parsePeriod(r)
	totals, err := s.storage.CategoryBreakdown(r.Context(), claims.UserID, month, year)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]categoryTotalResponse, 0, len(totals))
	for _, ct := range totals {
		out = append(out, categoryTotalResponse{
			Name:  ct.Name,
			Kind:  string(ct.Kind),
			Total: ct.Total.Decimal(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// parsePeriod extracts month and year query parameters, returning zeros when
// either is missing or malformed.
func parsePeriod(r *http.Request) (month, year int) {
	m, errM := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("month")))
	y, errY := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("year")))
	if errM != nil || errY != nil {
		return 0, 0
	}
	return m, y
}
