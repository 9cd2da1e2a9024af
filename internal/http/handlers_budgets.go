package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type budgetRequest struct {
	CategoryID int64       `json:"category_id" validate:"required"`
	Amount     json.Number `json:"amount" validate:"required"`
	Month      int         `json:"month" validate:"required,gte=1,lte=12"`
	Year       int         `json:"year" validate:"required,gte=2020"`
}

type budgetResponse struct {
	ID           int64   `json:"id"`
	CategoryID   int64   `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       float64 `json:"amount"`
	SpentAmount  float64 `json:"spent_amount"`
	Month        int     `json:"month"`
	Year         int     `json:"year"`
}

// handleListBudgets serves the user's budgets with spend for a month,
// defaulting to the current one.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	month, year := parsePeriod(r)
	if month == 0 || year == 0 {
		now := time.Now()
		month, year = int(now.Month()), now.Year()
	}

	budgets, err := s.storage.BudgetsWithSpend(r.Context(), claims.UserID, month, year)
	if err != nil {
		handleError(w, r, err)
		return
	}

	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetResponse{
			ID:           b.ID,
			CategoryID:   b.CategoryID,
			CategoryName: b.CategoryName,
			Amount:       b.Amount.Decimal(),
			SpentAmount:  b.Spent.Decimal(),
			Month:        b.Month,
			Year:         b.Year,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// handleSetBudget creates or replaces the budget for one category and month.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		handleError(w, r, err)
		return
	}

	budget := core.Budget{
		UserID:     claims.UserID,
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Month:      req.Month,
		Year:       req.Year,
	}
	if err := budget.Validate(); err != nil {
		handleError(w, r, err)
		return
	}

	// The category must exist and be visible to the user.
	if _, err := s.storage.GetCategoryForUser(r.Context(), req.CategoryID, claims.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			handleError(w, r, services.ErrUnknownCategory)
			return
		}
		handleError(w, r, err)
		return
	}

	id, created, err := s.storage.UpsertBudget(r.Context(), budget)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if created {
		respondJSON(w, http.StatusCreated, map[string]any{
			"id":      id,
			"message": "Budget set successfully",
		})
		return
	}
	respondMessage(w, http.StatusOK, "Budget updated successfully")
}

type budgetAlertResponse struct {
	CategoryID     int64   `json:"category_id"`
	CategoryName   string  `json:"category_name"`
	Amount         float64 `json:"amount"`
	SpentAmount    float64 `json:"spent_amount"`
	PercentageUsed float64 `json:"percentage_used"`
	Month          int     `json:"month"`
	Year           int     `json:"year"`
}

// handleBudgetAlerts serves the budgets at or past the alert threshold for
// the current month, recomputed on every call.
func (s *Server) handleBudgetAlerts(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	now := time.Now()
	budgets, err := s.storage.BudgetsWithSpend(r.Context(), claims.UserID, int(now.Month()), now.Year())
	if err != nil {
		handleError(w, r, err)
		return
	}

	alerts := core.EvaluateAlerts(budgets, s.alertThreshold)
	out := make([]budgetAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, budgetAlertResponse{
			CategoryID:     a.CategoryID,
			CategoryName:   a.CategoryName,
			Amount:         a.Amount.Decimal(),
			SpentAmount:    a.Spent.Decimal(),
			PercentageUsed: a.PercentageUsed,
			Month:          a.Month,
			Year:           a.Year,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
