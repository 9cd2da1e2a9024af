package core

import (
	"errors"
	"strings"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID: 1,
		Amount: Money{Cents: 1500},
		Kind:   Expense,
		Date:   NewDate(2024, 6, 15),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero amount", func(tr *Transaction) { tr.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount.Cents = -100 }, ErrInvalidAmount},
		{"bad kind", func(tr *Transaction) { tr.Kind = "transfer" }, ErrInvalidKind},
		{"zero date", func(tr *Transaction) { tr.Date = Date{} }, ErrInvalidDate},
		{"long description", func(tr *Transaction) { tr.Description = strings.Repeat("x", 201) }, ErrDescriptionLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{UserID: 1, CategoryID: 2, Amount: Money{Cents: 20000}, Month: 6, Year: 2024}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	for _, tt := range []struct {
		name    string
		mutate  func(*Budget)
		wantErr error
	}{
		{"month zero", func(b *Budget) { b.Month = 0 }, ErrInvalidMonth},
		{"month thirteen", func(b *Budget) { b.Month = 13 }, ErrInvalidMonth},
		{"ancient year", func(b *Budget) { b.Year = 1999 }, ErrInvalidYear},
		{"zero amount", func(b *Budget) { b.Amount.Cents = 0 }, ErrInvalidAmount},
	} {
		t.Run(tt.name, func(t *testing.T) {
			b := valid
			tt.mutate(&b)
			if err := b.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 6 || d.Day() != 15 {
		t.Errorf("parsed %v, want 2024-06-15", d)
	}
	if d.String() != "2024-06-15" {
		t.Errorf("String() = %q", d.String())
	}

	for _, in := range []string{"", "15/06/2024", "2024-13-01", "2024-02-30", "yesterday"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", in)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food", Kind: Expense}).Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}
	if err := (Category{Name: "  ", Kind: Expense}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank name: got %v", err)
	}
	if err := (Category{Name: "Food", Kind: "other"}).Validate(); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("bad kind: got %v", err)
	}
}
