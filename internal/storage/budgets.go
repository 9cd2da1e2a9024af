package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"fintrack/internal/core"
)

// UpsertBudget inserts or updates the budget keyed on (user, category, month,
// year). The returned flag is true when a new row was created.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) (int64, bool, error) {
	var existingID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM budgets WHERE user_id = ? AND category_id = ? AND month = ? AND year = ?`,
		b.UserID, b.CategoryID, b.Month, b.Year).Scan(&existingID)

	switch {
	case err == nil:
		if _, err := r.db.ExecContext(ctx,
			`UPDATE budgets SET amount_cents = ? WHERE id = ?`,
			b.Amount.Cents, existingID); err != nil {
			return 0, false, fmt.Errorf("update budget: %w", err)
		}
		slog.InfoContext(ctx, "Budget updated", "id", existingID, "user_id", b.UserID, "category_id", b.CategoryID)
		return existingID, false, nil

	case errors.Is(err, sql.ErrNoRows):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO budgets (user_id, category_id, amount_cents, month, year)
			 VALUES (?, ?, ?, ?, ?)`,
			b.UserID, b.CategoryID, b.Amount.Cents, b.Month, b.Year)
		if err != nil {
			return 0, false, fmt.Errorf("create budget: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("create budget id: %w", err)
		}
		slog.InfoContext(ctx, "Budget created", "id", id, "user_id", b.UserID, "category_id", b.CategoryID)
		return id, true, nil

	default:
		return 0, false, fmt.Errorf("lookup budget: %w", err)
	}
}

// BudgetsWithSpend returns the user's budgets for a month/year, each joined
// with the summed expense transactions for its category in that period.
// Budgets with no matching transactions report zero spend.
func (r *SQLiteRepository) BudgetsWithSpend(ctx context.Context, userID int64, month, year int) ([]core.BudgetSpend, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.category_id, b.amount_cents, b.month, b.year,
		        c.name AS category_name,
		        COALESCE(spent.total, 0) AS spent_cents
		 FROM budgets b
		 JOIN categories c ON b.category_id = c.id
		 LEFT JOIN (
		     SELECT category_id, SUM(amount_cents) AS total
		     FROM transactions
		     WHERE user_id = ? AND kind = 'expense'
		       AND strftime('%m', date) = ? AND strftime('%Y', date) = ?
		     GROUP BY category_id
		 ) spent ON b.category_id = spent.category_id
		 WHERE b.user_id = ? AND b.month = ? AND b.year = ?`,
		userID, fmt.Sprintf("%02d", month), strconv.Itoa(year),
		userID, month, year)
	if err != nil {
		return nil, fmt.Errorf("budgets with spend: %w", err)
	}
	defer rows.Close()

	var budgets []core.BudgetSpend
	for rows.Next() {
		var bs core.BudgetSpend
		if err := rows.Scan(&bs.ID, &bs.UserID, &bs.CategoryID, &bs.Amount.Cents,
			&bs.Month, &bs.Year, &bs.CategoryName, &bs.Spent.Cents); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, bs)
	}
	return budgets, rows.Err()
}

// GetBudgetSpend returns the single budget-with-spend row for one category
// and period, used by the alert pipeline after an expense write.
func (r *SQLiteRepository) GetBudgetSpend(ctx context.Context, userID, categoryID int64, month, year int) (core.BudgetSpend, error) {
	var bs core.BudgetSpend
	err := r.db.QueryRowContext(ctx,
		`SELECT b.id, b.user_id, b.category_id, b.amount_cents, b.month, b.year,
		        c.name AS category_name,
		        COALESCE((
		            SELECT SUM(amount_cents) FROM transactions
		            WHERE user_id = b.user_id AND category_id = b.category_id AND kind = 'expense'
		              AND strftime('%m', date) = ? AND strftime('%Y', date) = ?
		        ), 0) AS spent_cents
		 FROM budgets b
		 JOIN categories c ON b.category_id = c.id
		 WHERE b.user_id = ? AND b.category_id = ? AND b.month = ? AND b.year = ?`,
		fmt.Sprintf("%02d", month), strconv.Itoa(year),
		userID, categoryID, month, year).
		Scan(&bs.ID, &bs.UserID, &bs.CategoryID, &bs.Amount.Cents,
			&bs.Month, &bs.Year, &bs.CategoryName, &bs.Spent.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetSpend{}, ErrNotFound
	}
	if err != nil {
		return core.BudgetSpend{}, fmt.Errorf("get budget spend: %w", err)
	}
	return bs, nil
}
