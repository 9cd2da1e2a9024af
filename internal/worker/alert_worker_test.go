package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type capturingNotifier struct {
	notifications []notification
}

type notification struct {
	username string
	alert    core.BudgetAlert
}

func (n *capturingNotifier) Notify(_ context.Context, username string, alert core.BudgetAlert) error {
	n.notifications = append(n.notifications, notification{username, alert})
	return nil
}

type workerFixture struct {
	worker   *AlertWorker
	repo     *storage.SQLiteRepository
	notifier *capturingNotifier
	userID   int64
	catID    int64
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "alice", "a@x.com", "hash")
	require.NoError(t, err)

	cats, err := repo.ListCategories(ctx, user.ID)
	require.NoError(t, err)
	var catID int64
	for _, c := range cats {
		if c.Kind == core.Expense {
			catID = c.ID
			break
		}
	}
	require.NotZero(t, catID)

	notifier := &capturingNotifier{}
	return &workerFixture{
		worker:   NewAlertWorker(repo, notifier, core.DefaultAlertThreshold),
		repo:     repo,
		notifier: notifier,
		userID:   user.ID,
		catID:    catID,
	}
}

func (f *workerFixture) seedBudgetAndSpend(t *testing.T, budgetCents, spentCents int64, month, year int) {
	t.Helper()
	ctx := context.Background()

	_, _, err := f.repo.UpsertBudget(ctx, core.Budget{
		UserID: f.userID, CategoryID: f.catID,
		Amount: core.Money{Cents: budgetCents}, Month: month, Year: year,
	})
	require.NoError(t, err)

	if spentCents > 0 {
		cat := f.catID
		_, err = f.repo.CreateTransaction(ctx, core.Transaction{
			UserID:     f.userID,
			CategoryID: &cat,
			Amount:     core.Money{Cents: spentCents},
			Kind:       core.Expense,
			Date:       core.NewDate(year, month, 10),
		})
		require.NoError(t, err)
	}
}

func (f *workerFixture) message(month, year int) *amqp.BudgetAlertMessage {
	return &amqp.BudgetAlertMessage{
		UserID:     f.userID,
		CategoryID: f.catID,
		Month:      month,
		Year:       year,
		Timestamp:  time.Now(),
	}
}

func TestHandleAlertMessage_Notifies(t *testing.T) {
	f := newWorkerFixture(t)
	f.seedBudgetAndSpend(t, 10000, 9000, 6, 2024)

	err := f.worker.HandleAlertMessage(context.Background(), f.message(6, 2024))
	require.NoError(t, err)
	require.Len(t, f.notifier.notifications, 1)

	n := f.notifier.notifications[0]
	assert.Equal(t, "alice", n.username)
	assert.Equal(t, int64(9000), n.alert.Spent.Cents)
	assert.InDelta(t, 90.0, n.alert.PercentageUsed, 0.001)
}

func TestHandleAlertMessage_BudgetGoneIsDropped(t *testing.T) {
	f := newWorkerFixture(t)

	err := f.worker.HandleAlertMessage(context.Background(), f.message(6, 2024))
	require.NoError(t, err, "missing budget must not requeue the message")
	assert.Empty(t, f.notifier.notifications)
}

func TestHandleAlertMessage_SpendDroppedBelowThreshold(t *testing.T) {
	f := newWorkerFixture(t)
	f.seedBudgetAndSpend(t, 10000, 5000, 6, 2024)

	err := f.worker.HandleAlertMessage(context.Background(), f.message(6, 2024))
	require.NoError(t, err)
	assert.Empty(t, f.notifier.notifications,
		"stale alert for a budget now under threshold must be silent")
}

func TestSweepAlerts(t *testing.T) {
	f := newWorkerFixture(t)
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	f.seedBudgetAndSpend(t, 10000, 8500, 6, 2024)

	// A second user under threshold must not be notified.
	ctx := context.Background()
	bob, err := f.repo.CreateUser(ctx, "bob", "b@x.com", "hash")
	require.NoError(t, err)
	_, _, err = f.repo.UpsertBudget(ctx, core.Budget{
		UserID: bob.ID, CategoryID: f.catID,
		Amount: core.Money{Cents: 10000}, Month: 6, Year: 2024,
	})
	require.NoError(t, err)

	require.NoError(t, f.worker.SweepAlerts(ctx, now))
	require.Len(t, f.notifier.notifications, 1)
	assert.Equal(t, "alice", f.notifier.notifications[0].username)
	assert.InDelta(t, 85.0, f.notifier.notifications[0].alert.PercentageUsed, 0.001)
}

func TestSweepAlerts_OtherMonthIgnored(t *testing.T) {
	f := newWorkerFixture(t)
	f.seedBudgetAndSpend(t, 10000, 9500, 6, 2024)

	now := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.worker.SweepAlerts(context.Background(), now))
	assert.Empty(t, f.notifier.notifications)
}
