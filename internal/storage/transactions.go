package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"

	"fintrack/internal/core"
)

// ListTransactions returns all of a user's transactions, newest date first,
// with the category name joined in when a category is set.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.category_id, t.amount_cents, t.kind, t.date, t.description,
		        COALESCE(c.name, '') AS category_name
		 FROM transactions t
		 LEFT JOIN categories c ON t.category_id = c.id
		 WHERE t.user_id = ?
		 ORDER BY t.date DESC, t.id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// CreateTransaction inserts a transaction and returns its id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, amount_cents, kind, date, description)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, t.Amount.Cents, string(t.Kind), t.Date.String(), t.Description)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"user_id", t.UserID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)

	return id, nil
}

// UpdateTransaction rewrites a transaction matched on (id, user_id).
// ErrNotFound covers both a missing row and a row owned by someone else.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, category_id = ?, kind = ?, date = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		t.Amount.Cents, t.CategoryID, string(t.Kind), t.Date.String(), t.Description, t.ID, t.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a transaction matched on (id, user_id).
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryBreakdown sums transaction amounts grouped by category and kind,
// ordered by total descending. Month and year of zero mean no period filter;
// they are only applied together.
func (r *SQLiteRepository) CategoryBreakdown(ctx context.Context, userID int64, month, year int) ([]core.CategoryTotal, error) {
	query := `SELECT c.name, t.kind, SUM(t.amount_cents) AS total
	          FROM transactions t
	          JOIN categories c ON t.category_id = c.id
	          WHERE t.user_id = ?`
	args := []any{userID}

	if month != 0 && year != 0 {
		query += ` AND strftime('%m', t.date) = ? AND strftime('%Y', t.date) = ?`
		args = append(args, fmt.Sprintf("%02d", month), strconv.Itoa(year))
	}

	query += ` GROUP BY c.id, c.name, t.kind ORDER BY total DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var (
			ct   core.CategoryTotal
			kind string
		)
		if err := rows.Scan(&ct.Name, &kind, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		ct.Kind = core.Kind(kind)
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		kind       string
		date       string
	)
	if err := row.Scan(&t.ID, &t.UserID, &categoryID, &t.Amount.Cents, &kind, &date, &t.Description, &t.CategoryName); err != nil {
		return core.Transaction{}, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	t.Kind = core.Kind(kind)
	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", date, err)
	}
	t.Date = parsed
	return t, nil
}
