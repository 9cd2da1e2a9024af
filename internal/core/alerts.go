package core

import (
	"math"
	"sort"
)

// DefaultAlertThreshold is the spend ratio at which a budget starts alerting.
const DefaultAlertThreshold = 0.8

// BudgetAlert reports a budget whose spend has reached the alert threshold.
type BudgetAlert struct {
	Budget
	CategoryName   string
	Spent          Money
	PercentageUsed float64
}

// EvaluateAlerts derives alerts from budget-with-spend rows. A budget is
// included when spent/amount >= threshold; PercentageUsed is rounded to two
// decimals and the result is sorted by it, highest first. The input is not
// modified and nothing is persisted; alerts are recomputed on every call.
func EvaluateAlerts(rows []BudgetSpend, threshold float64) []BudgetAlert {
	if threshold <= 0 {
		threshold = DefaultAlertThreshold
	}

	var alerts []BudgetAlert
	for _, r := range rows {
		if r.Amount.Cents <= 0 {
			continue
		}
		ratio := float64(r.Spent.Cents) / float64(r.Amount.Cents)
		if ratio < threshold {
			continue
		}
		alerts = append(alerts, BudgetAlert{
			Budget:         r.Budget,
			CategoryName:   r.CategoryName,
			Spent:          r.Spent,
			PercentageUsed: math.Round(ratio*10000) / 100,
		})
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].PercentageUsed > alerts[j].PercentageUsed
	})

	return alerts
}
