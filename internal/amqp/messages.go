package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage tells the worker that a budget crossed its alert
// threshold. It carries the computed figures so the worker can act without
// re-querying, plus the keys to look up fresh state if it wants to.
type BudgetAlertMessage struct {
	UserID         int64     `json:"user_id"`
	CategoryID     int64     `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	BudgetCents    int64     `json:"budget_cents"`
	SpentCents     int64     `json:"spent_cents"`
	PercentageUsed float64   `json:"percentage_used"`
	Timestamp      time.Time `json:"timestamp"`
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
