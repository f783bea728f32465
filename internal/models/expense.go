package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the persisted form of an expense date.
	DateLayout = "2006-01-02"
	// DefaultCurrency is applied when an expense carries no currency.
	DefaultCurrency = "BRL"
)

// Expense represents a single recorded expense.
type Expense struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Account     string          `json:"account"`
	ReceiptPath string          `json:"receipt_path,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DateRange bounds a query by calendar date. Both ends are inclusive and optional.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ExpenseFilter narrows ListExpenses. Nil fields are not applied.
type ExpenseFilter struct {
	DateRange
	Category *string
	Account  *string
}

// ExpensePatch lists the mutable columns of an expense. Nil fields are left untouched.
type ExpensePatch struct {
	Date        *time.Time
	Amount      *decimal.Decimal
	Currency    *string
	Category    *string
	Description *string
	Account     *string
	ReceiptPath *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Currency == nil && p.Category == nil &&
		p.Description == nil && p.Account == nil && p.ReceiptPath == nil
}

// Validate rejects values the store would refuse to persist.
func (p ExpensePatch) Validate() error {
	if p.Amount != nil && p.Amount.IsNegative() {
		return Invalid("amount", "must not be negative")
	}
	if p.Date != nil && p.Date.IsZero() {
		return Invalid("date", "is required")
	}
	return nil
}

// ParseExpensePatch converts untyped key/value input, such as submitted
// form fields, into a patch. Keys outside the mutable column set are rejected.
func ParseExpensePatch(fields map[string]string) (ExpensePatch, error) {
	var (
		p       ExpensePatch
		unknown []string
	)
	for key, value := range fields {
		value := value
		switch key {
		case "date":
			d, err := ParseDate(value)
			if err != nil {
				return ExpensePatch{}, err
			}
			p.Date = &d
		case "amount":
			a, err := ParseAmount(value)
			if err != nil {
				return ExpensePatch{}, err
			}
			p.Amount = &a
		case "currency":
			p.Currency = &value
		case "category":
			p.Category = &value
		case "description":
			p.Description = &value
		case "account":
			p.Account = &value
		case "receipt_path":
			p.ReceiptPath = &value
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return ExpensePatch{}, Invalid("patch", "unknown field(s): "+strings.Join(unknown, ", "))
	}
	return p, nil
}

// ParseDate reads a YYYY-MM-DD calendar date, or the date part of an
// RFC 3339 timestamp, as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse(DateLayout, s); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return time.Time{}, Invalid("date", "expected YYYY-MM-DD, got "+strconv.Quote(s))
}

// DateOf truncates t to its calendar date in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders the persisted form of a calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseAmount reads a non-negative decimal amount. A comma decimal separator is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	a, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Invalid("amount", "not a number: "+strconv.Quote(s))
	}
	if a.IsNegative() {
		return decimal.Zero, Invalid("amount", "must not be negative")
	}
	return a, nil
}
