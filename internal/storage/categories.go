package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// ListCategories returns the global default categories plus the user's own.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, kind, user_id FROM categories
		 WHERE user_id IS NULL OR user_id = ?
		 ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryForUser returns a category visible to the user: either a global
// default or one the user owns. ErrNotFound otherwise.
func (r *SQLiteRepository) GetCategoryForUser(ctx context.Context, id, userID int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind, user_id FROM categories
		 WHERE id = ? AND (user_id IS NULL OR user_id = ?)`,
		id, userID)

	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// CreateCategory inserts a custom category owned by a user.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, kind, user_id) VALUES (?, ?, ?)`,
		c.Name, string(c.Kind), c.UserID)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create category id: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c      core.Category
		kind   string
		userID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &kind, &userID); err != nil {
		return core.Category{}, err
	}
	c.Kind = core.Kind(kind)
	if userID.Valid {
		c.UserID = &userID.Int64
	}
	return c, nil
}
