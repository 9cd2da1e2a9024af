// Package services orchestrates operations that span storage and messaging.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ErrUnknownCategory is returned when a referenced category does not exist
// or is not visible to the user.
var ErrUnknownCategory = errors.New("unknown category")

// AlertPublisher publishes budget alert messages. *amqp.Client satisfies it.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// TransactionService writes transactions and pushes budget alerts to the
// message queue when an expense write takes a budget past its threshold.
type TransactionService struct {
	storage   *storage.SQLiteRepository
	publisher AlertPublisher
	threshold float64
}

func NewTransactionService(storage *storage.SQLiteRepository, publisher AlertPublisher, threshold float64) *TransactionService {
	if threshold <= 0 {
		threshold = core.DefaultAlertThreshold
	}
	return &TransactionService{
		storage:   storage,
		publisher: publisher,
		threshold: threshold,
	}
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.storage.ListTransactions(ctx, userID)
}

// Create validates and saves a transaction, then checks the affected budget.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.validateCategory(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	t.ID = id

	s.checkBudgetAlert(ctx, t)
	return t, nil
}

// Update rewrites a transaction owned by the user, then checks the affected
// budget.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.validateCategory(ctx, t); err != nil {
		return err
	}

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	s.checkBudgetAlert(ctx, t)
	return nil
}

// Delete removes a transaction owned by the user.
func (s *TransactionService) Delete(ctx context.Context, id, userID int64) error {
	return s.storage.DeleteTransaction(ctx, id, userID)
}

// validateCategory checks that the referenced category is visible to the
// user and that its kind matches the transaction's.
func (s *TransactionService) validateCategory(ctx context.Context, t core.Transaction) error {
	if t.CategoryID == nil {
		return nil
	}
	cat, err := s.storage.GetCategoryForUser(ctx, *t.CategoryID, t.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUnknownCategory
	}
	if err != nil {
		return fmt.Errorf("lookup category: %w", err)
	}
	if cat.Kind != t.Kind {
		return core.ErrKindMismatch
	}
	return nil
}

// checkBudgetAlert publishes an alert message when an expense write leaves
// its category budget at or past the threshold. Failures are logged and never
// fail the write: the transaction is already saved.
func (s *TransactionService) checkBudgetAlert(ctx context.Context, t core.Transaction) {
	if s.publisher == nil || t.Kind != core.Expense || t.CategoryID == nil {
		return
	}

	bs, err := s.storage.GetBudgetSpend(ctx, t.UserID, *t.CategoryID, t.Date.Month(), t.Date.Year())
	if errors.Is(err, storage.ErrNotFound) {
		return // no budget for this category and period
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budget spend for alert check",
			"user_id", t.UserID, "category_id", *t.CategoryID, "error", err)
		return
	}

	alerts := core.EvaluateAlerts([]core.BudgetSpend{bs}, s.threshold)
	if len(alerts) == 0 {
		return
	}
	alert := alerts[0]

	msg := &amqp.BudgetAlertMessage{
		UserID:         alert.UserID,
		CategoryID:     alert.CategoryID,
		CategoryName:   alert.CategoryName,
		Month:          alert.Month,
		Year:           alert.Year,
		BudgetCents:    alert.Amount.Cents,
		SpentCents:     alert.Spent.Cents,
		PercentageUsed: alert.PercentageUsed,
		Timestamp:      time.Now(),
	}

	if err := s.publisher.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert message",
			"user_id", msg.UserID, "category_id", msg.CategoryID, "error", err)
	}
}

// Close releases the storage connection.
func (s *TransactionService) Close() error {
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			return fmt.Errorf("close storage: %w", err)
		}
	}
	return nil
}
