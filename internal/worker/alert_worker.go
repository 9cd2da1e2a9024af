// Package worker processes budget alert messages from the queue and
// periodically re-checks budgets as a backup for lost messages.
package worker

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

// Notifier delivers a budget alert to the user-facing channel.
type Notifier interface {
	Notify(ctx context.Context, username string, alert core.BudgetAlert) error
}

// LogNotifier writes alerts to the structured log. It stands in until a
// real delivery channel (mail, push) is wired up.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, username string, alert core.BudgetAlert) error {
	slog.InfoContext(ctx, "Budget alert",
		"username", username,
		"category", alert.CategoryName,
		"month", alert.Month,
		"year", alert.Year,
		"budget_cents", alert.Amount.Cents,
		"spent_cents", alert.Spent.Cents,
		"percentage_used", alert.PercentageUsed)
	return nil
}

// AlertWorker handles queued budget alert messages.
type AlertWorker struct {
	storage   *storage.SQLiteRepository
	notifier  Notifier
	threshold float64
}

func NewAlertWorker(storage *storage.SQLiteRepository, notifier Notifier, threshold float64) *AlertWorker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	if threshold <= 0 {
		threshold = core.DefaultAlertThreshold
	}
	return &AlertWorker{
		storage:   storage,
		notifier:  notifier,
		threshold: threshold,
	}
}

// HandleAlertMessage processes a single queued alert. The budget is re-read
// from storage so the notification reflects current state, not the figures at
// publish time. A budget deleted since publishing drops the message.
func (w *AlertWorker) HandleAlertMessage(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Processing budget alert message",
		"user_id", msg.UserID,
		"category_id", msg.CategoryID,
		"month", msg.Month,
		"year", msg.Year)

	bs, err := w.storage.GetBudgetSpend(ctx, msg.UserID, msg.CategoryID, msg.Month, msg.Year)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Budget gone since alert was published, dropping",
			"user_id", msg.UserID, "category_id", msg.CategoryID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get budget spend: %w", err)
	}

	alerts := core.EvaluateAlerts([]core.BudgetSpend{bs}, w.threshold)
	if len(alerts) == 0 {
		// Spend dropped back under the threshold in the meantime.
		return nil
	}

	user, err := w.storage.GetUser(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if err := w.notifier.Notify(ctx, user.Username, alerts[0]); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// SweepAlerts re-checks every user's budgets for the current month and
// notifies on any alert. Backup mechanism in case queue messages are lost.
func (w *AlertWorker) SweepAlerts(ctx context.Context, now time.Time) error {
	userIDs, err := w.storage.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	month, year := int(now.Month()), now.Year()
	var notified int
	for _, userID := range userIDs {
		budgets, err := w.storage.BudgetsWithSpend(ctx, userID, month, year)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load budgets during sweep",
				"user_id", userID, "error", err)
			continue
		}

		alerts := core.EvaluateAlerts(budgets, w.threshold)
		if len(alerts) == 0 {
			continue
		}

		user, err := w.storage.GetUser(ctx, userID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load user during sweep",
				"user_id", userID, "error", err)
			continue
		}

		for _, alert := range alerts {
			if err := w.notifier.Notify(ctx, user.Username, alert); err != nil {
				slog.ErrorContext(ctx, "Failed to notify during sweep",
					"user_id", userID, "category_id", alert.CategoryID, "error", err)
				continue
			}
			notified++
		}
	}

	if notified > 0 {
		slog.InfoContext(ctx, "Alert sweep completed", "notified", notified)
	}
	return nil
}
