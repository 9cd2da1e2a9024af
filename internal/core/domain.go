package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind distinguishes money coming in from money going out.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID        int64
		Username  string
		Email     string
		CreatedAt time.Time
	}

	// Category groups transactions and budgets. A nil UserID marks a global
	// default category shared read-only across all users.
	Category struct {
		ID     int64
		Name   string
		Kind   Kind
		UserID *int64
	}

	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  *int64
		Amount      Money
		Kind        Kind
		Date        Date
		Description string

		// CategoryName is populated on reads via join, empty otherwise.
		CategoryName string
	}

	// Budget is a monthly spending cap for one category. At most one budget
	// exists per (user, category, month, year); writes upsert on that key.
	Budget struct {
		ID         int64
		UserID     int64
		CategoryID int64
		Amount     Money
		Month      int // 1-12
		Year       int
	}

	// BudgetSpend is a budget row joined with the summed expense
	// transactions for its user/category/month/year.
	BudgetSpend struct {
		Budget
		CategoryName string
		Spent        Money
	}

	// CategoryTotal is one row of the per-category analytics breakdown.
	CategoryTotal struct {
		Name  string
		Kind  Kind
		Total Money
	}
)

var (
	ErrInvalidKind     = errors.New("kind must be income or expense")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMonth    = errors.New("month must be between 1 and 12")
	ErrInvalidYear     = errors.New("invalid year")
	ErrEmptyName       = errors.New("empty name")
	ErrKindMismatch    = errors.New("category kind does not match")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) Month() int {
	return int(d.Time.Month())
}

func (d Date) Year() int {
	return d.Time.Year()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2020 {
		return ErrInvalidYear
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}
