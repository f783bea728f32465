// Package report aggregates a user's expenses into dashboard figures.
package report

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"travel-expenses/internal/models"
)

// LookbackDays is the length of the default dashboard period.
const LookbackDays = 30

// WarningThreshold is the budget fraction from which spending is flagged.
const WarningThreshold = 0.8

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Days returns the number of calendar days in the period, both ends included.
func (p Period) Days() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(models.DateOf(p.End).Sub(models.DateOf(p.Start)).Hours()/24) + 1
}

// Contains reports whether the calendar date of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := models.DateOf(t)
	return !d.Before(models.DateOf(p.Start)) && !d.After(models.DateOf(p.End))
}

// SingleMonth reports whether both ends fall in the same calendar month.
func (p Period) SingleMonth() bool {
	return p.Start.Year() == p.End.Year() && p.Start.Month() == p.End.Month()
}

// DateRange converts the period to a storage filter.
func (p Period) DateRange() models.DateRange {
	start, end := p.Start, p.End
	return models.DateRange{Start: &start, End: &end}
}

// DefaultPeriod covers the last LookbackDays days up to the latest expense,
// never starting before the earliest one. ok is false for no expenses.
func DefaultPeriod(expenses []models.Expense) (p Period, ok bool) {
	if len(expenses) == 0 {
		return Period{}, false
	}
	first, last := expenses[0].Date, expenses[0].Date
	for _, e := range expenses[1:] {
		if e.Date.Before(first) {
			first = e.Date
		}
		if e.Date.After(last) {
			last = e.Date
		}
	}
	start := last.AddDate(0, 0, -LookbackDays)
	if start.Before(first) {
		start = first
	}
	return Period{Start: models.DateOf(start), End: models.DateOf(last)}, true
}

// Selection narrows the dashboard. Nil Categories or Accounts select everything.
type Selection struct {
	Period     Period
	Categories []string
	Accounts   []string
}

// Apply returns the expenses matching the selection, preserving order.
func (s Selection) Apply(expenses []models.Expense) []models.Expense {
	out := make([]models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !s.Period.IsZero() && !s.Period.Contains(e.Date) {
			continue
		}
		if s.Categories != nil && !slices.Contains(s.Categories, e.Category) {
			continue
		}
		if s.Accounts != nil && !slices.Contains(s.Accounts, e.Account) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Bucket is the spending of one category, account or day.
type Bucket struct {
	Key        string
	Total      decimal.Decimal
	Count      int
	Percentage float64
}

// BudgetLevel grades budget consumption.
type BudgetLevel string

const (
	BudgetOK       BudgetLevel = "ok"
	BudgetWarning  BudgetLevel = "warning"
	BudgetExceeded BudgetLevel = "exceeded"
)

// BudgetStatus compares the period total with the monthly budget.
type BudgetStatus struct {
	Budget    decimal.Decimal
	Remaining decimal.Decimal
	Used      float64
	Level     BudgetLevel
}

// Summary holds the dashboard figures for a selection.
type Summary struct {
	Period       Period
	Total        decimal.Decimal
	Count        int
	DailyAverage decimal.Decimal
	ByCategory   []Bucket
	ByAccount    []Bucket
	ByDay        []Bucket
	// Budget is nil unless a positive budget is set and the period lies
	// within one calendar month.
	Budget   *BudgetStatus
	Expenses []models.Expense
}

// Summarize filters expenses by sel and aggregates the result.
func Summarize(expenses []models.Expense, sel Selection, budget decimal.NullDecimal) Summary {
	selected := sel.Apply(expenses)

	s := Summary{
		Period:   sel.Period,
		Count:    len(selected),
		Total:    decimal.Zero,
		Expenses: selected,
	}
	for _, e := range selected {
		s.Total = s.Total.Add(e.Amount)
	}

	s.DailyAverage = decimal.Zero
	if days := sel.Period.Days(); !sel.Period.IsZero() && days > 0 {
		s.DailyAverage = s.Total.Div(decimal.NewFromInt(int64(days))).Round(2)
	}

	s.ByCategory = sortByTotal(group(selected, s.Total, func(e models.Expense) string { return e.Category }))
	s.ByAccount = sortByTotal(group(selected, s.Total, func(e models.Expense) string { return e.Account }))
	s.ByDay = group(selected, s.Total, func(e models.Expense) string { return models.FormatDate(e.Date) })
	sort.Slice(s.ByDay, func(i, j int) bool { return s.ByDay[i].Key < s.ByDay[j].Key })

	if budget.Valid && budget.Decimal.IsPositive() && !sel.Period.IsZero() && sel.Period.SingleMonth() {
		s.Budget = budgetStatus(s.Total, budget.Decimal)
	}
	return s
}

func budgetStatus(total, budget decimal.Decimal) *BudgetStatus {
	used := total.Div(budget).InexactFloat64()
	level := BudgetOK
	switch {
	case used >= 1:
		level = BudgetExceeded
	case used >= WarningThreshold:
		level = BudgetWarning
	}
	return &BudgetStatus{
		Budget:    budget,
		Remaining: budget.Sub(total),
		Used:      used,
		Level:     level,
	}
}

func group(expenses []models.Expense, total decimal.Decimal, key func(models.Expense) string) []Bucket {
	index := make(map[string]int)
	var buckets []Bucket
	for _, e := range expenses {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Total: decimal.Zero})
		}
		buckets[i].Total = buckets[i].Total.Add(e.Amount)
		buckets[i].Count++
	}
	for i := range buckets {
		if total.IsPositive() {
			buckets[i].Percentage = buckets[i].Total.Div(total).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
	}
	return buckets
}

func sortByTotal(buckets []Bucket) []Bucket {
	sort.SliceStable(buckets, func(i, j int) bool {
		if c := buckets[i].Total.Cmp(buckets[j].Total); c != 0 {
			return c > 0
		}
		return buckets[i].Key < buckets[j].Key
	})
	return buckets
}

// ExpenseLister reads a user's expenses. *storage.DB implements it.
type ExpenseLister interface {
	ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error)
}

// SettingsReader reads a user's settings. *storage.DB implements it.
type SettingsReader interface {
	GetSettings(ctx context.Context, userID string) (*models.Settings, error)
}

// Builder loads data for a user and summarizes it.
type Builder struct {
	expenses ExpenseLister
	settings SettingsReader
}

// NewBuilder creates a new Builder.
func NewBuilder(expenses ExpenseLister, settings SettingsReader) *Builder {
	return &Builder{expenses: expenses, settings: settings}
}

// Build summarizes the expenses of userID. A zero sel.Period is replaced by
// DefaultPeriod over all of the user's expenses.
func (b *Builder) Build(ctx context.Context, userID string, sel Selection) (Summary, error) {
	var filter models.ExpenseFilter
	if !sel.Period.IsZero() {
		filter.DateRange = sel.Period.DateRange()
	}
	expenses, err := b.expenses.ListExpenses(ctx, userID, filter)
	if err != nil {
		return Summary{}, fmt.Errorf("list expenses: %w", err)
	}
	if sel.Period.IsZero() {
		if p, ok := DefaultPeriod(expenses); ok {
			sel.Period = p
		}
	}

	settings, err := b.settings.GetSettings(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("get settings: %w", err)
	}
	return Summarize(expenses, sel, settings.MonthlyBudget), nil
}
