package core

import (
	"testing"
)

func budgetSpend(category string, amountCents, spentCents int64) BudgetSpend {
	return BudgetSpend{
		Budget: Budget{
			UserID:     1,
			CategoryID: 1,
			Amount:     Money{Cents: amountCents},
			Month:      6,
			Year:       2024,
		},
		CategoryName: category,
		Spent:        Money{Cents: spentCents},
	}
}

func TestEvaluateAlerts_Threshold(t *testing.T) {
	tests := []struct {
		name        string
		amountCents int64
		spentCents  int64
		wantAlert   bool
		wantPercent float64
	}{
		{name: "exactly 80 percent", amountCents: 10000, spentCents: 8000, wantAlert: true, wantPercent: 80},
		{name: "just under 80 percent", amountCents: 10000, spentCents: 7999, wantAlert: false},
		{name: "79.99 percent", amountCents: 1000000, spentCents: 799900, wantAlert: false},
		{name: "over budget", amountCents: 20000, spentCents: 25000, wantAlert: true, wantPercent: 125},
		{name: "no spend", amountCents: 20000, spentCents: 0, wantAlert: false},
		{name: "rounding to two decimals", amountCents: 30000, spentCents: 25000, wantAlert: true, wantPercent: 83.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := EvaluateAlerts([]BudgetSpend{budgetSpend("Food", tt.amountCents, tt.spentCents)}, DefaultAlertThreshold)
			if tt.wantAlert {
				if len(alerts) != 1 {
					t.Fatalf("expected 1 alert, got %d", len(alerts))
				}
				if alerts[0].PercentageUsed != tt.wantPercent {
					t.Errorf("PercentageUsed = %v, want %v", alerts[0].PercentageUsed, tt.wantPercent)
				}
			} else if len(alerts) != 0 {
				t.Fatalf("expected no alerts, got %d", len(alerts))
			}
		})
	}
}

func TestEvaluateAlerts_SortsByPercentageDescending(t *testing.T) {
	rows := []BudgetSpend{
		budgetSpend("Food", 10000, 8500),          // 85%
		budgetSpend("Transport", 10000, 12000),    // 120%
		budgetSpend("Entertainment", 10000, 9000), // 90%
		budgetSpend("Shopping", 10000, 1000),      // 10%, excluded
	}

	alerts := EvaluateAlerts(rows, DefaultAlertThreshold)
	if len(alerts) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(alerts))
	}
	wantOrder := []string{"Transport", "Entertainment", "Food"}
	for i, want := range wantOrder {
		if alerts[i].CategoryName != want {
			t.Errorf("alerts[%d] = %s, want %s", i, alerts[i].CategoryName, want)
		}
	}
}

func TestEvaluateAlerts_SkipsZeroAmountBudget(t *testing.T) {
	alerts := EvaluateAlerts([]BudgetSpend{budgetSpend("Food", 0, 5000)}, DefaultAlertThreshold)
	if len(alerts) != 0 {
		t.Fatalf("zero-amount budget must not alert, got %d alerts", len(alerts))
	}
}

func TestEvaluateAlerts_CustomThreshold(t *testing.T) {
	rows := []BudgetSpend{budgetSpend("Food", 10000, 5000)} // 50%

	if alerts := EvaluateAlerts(rows, 0.5); len(alerts) != 1 {
		t.Errorf("expected alert at 50%% with 0.5 threshold, got %d", len(alerts))
	}
	if alerts := EvaluateAlerts(rows, 0.6); len(alerts) != 0 {
		t.Errorf("expected no alert at 50%% with 0.6 threshold, got %d", len(alerts))
	}
	// Non-positive threshold falls back to the default.
	if alerts := EvaluateAlerts(rows, 0); len(alerts) != 0 {
		t.Errorf("expected default threshold with 0, got %d alerts", len(alerts))
	}
}
