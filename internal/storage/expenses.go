package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"travel-expenses/internal/models"
)

const expenseColumns = "id, user_id, date, amount, currency, category, description, account, receipt_path, created_at, updated_at"

// AddExpense inserts e for e.UserID and returns the new row id.
// ID and the timestamps of e are ignored.
func (db *DB) AddExpense(ctx context.Context, e models.Expense) (int64, error) {
	if strings.TrimSpace(e.UserID) == "" {
		return 0, models.Invalid("user_id", "is required")
	}
	if e.Date.IsZero() {
		return 0, models.Invalid("date", "is required")
	}
	if e.Amount.IsNegative() {
		return 0, models.Invalid("amount", "must not be negative")
	}
	e.Currency = strings.TrimSpace(e.Currency)
	if e.Currency == "" {
		e.Currency = models.DefaultCurrency
	}

	now := db.timestamp()
	result, err := db.conn.ExecContext(ctx, `
		INSERT INTO expenses (
			user_id, date, amount, currency, category, description, account, receipt_path, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID,
		models.FormatDate(e.Date),
		e.Amount.InexactFloat64(),
		e.Currency,
		e.Category,
		e.Description,
		e.Account,
		nullString(e.ReceiptPath),
		now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", e.UserID,
		"date", models.FormatDate(e.Date),
		"amount", e.Amount.String(),
		"category", e.Category)

	return id, nil
}

// GetExpense retrieves a single expense owned by userID.
func (db *DB) GetExpense(ctx context.Context, id int64, userID string) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?",
		id, userID,
	)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListExpenses returns the expenses of userID matching f, newest date first
// and, within a day, most recently inserted first.
func (db *DB) ListExpenses(ctx context.Context, userID string, f models.ExpenseFilter) ([]models.Expense, error) {
	w := newWhere(userID).dateRange(f.DateRange)
	if f.Category != nil {
		w.add("category = ?", *f.Category)
	}
	if f.Account != nil {
		w.add("account = ?", *f.Account)
	}

	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses "+w.String()+" ORDER BY date DESC, id DESC",
		w.args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// DeleteExpense removes the expense when both id and owner match.
// A missing row is not an error.
func (db *DB) DeleteExpense(ctx context.Context, id int64, userID string) error {
	res, err := db.conn.ExecContext(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	logUnmatched(ctx, res, "delete", id, userID)
	return nil
}

// UpdateExpense applies the non-nil fields of p to the expense and refreshes
// updated_at. An empty patch does nothing; a missing row is not an error.
func (db *DB) UpdateExpense(ctx context.Context, id int64, userID string, p models.ExpensePatch) error {
	if p.IsEmpty() {
		return nil
	}
	if err := p.Validate(); err != nil {
		return err
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if p.Date != nil {
		set("date", models.FormatDate(*p.Date))
	}
	if p.Amount != nil {
		set("amount", p.Amount.InexactFloat64())
	}
	if p.Currency != nil {
		currency := strings.TrimSpace(*p.Currency)
		if currency == "" {
			currency = models.DefaultCurrency
		}
		set("currency", currency)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Account != nil {
		set("account", *p.Account)
	}
	if p.ReceiptPath != nil {
		set("receipt_path", nullString(*p.ReceiptPath))
	}
	set("updated_at", db.timestamp())
	args = append(args, id, userID)

	res, err := db.conn.ExecContext(ctx,
		"UPDATE expenses SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	logUnmatched(ctx, res, "update", id, userID)
	return nil
}

// TotalSpent sums the amounts of userID within r. No matching rows yields zero.
// Each stored amount is converted to a decimal before adding, so the total
// agrees with sums computed over ListExpenses results.
func (db *DB) TotalSpent(ctx context.Context, userID string, r models.DateRange) (decimal.Decimal, error) {
	w := newWhere(userID).dateRange(r)

	rows, err := db.conn.QueryContext(ctx, "SELECT amount FROM expenses "+w.String(), w.args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total spent: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount float64
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("total spent: %w", err)
		}
		total = total.Add(decimal.NewFromFloat(amount))
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("total spent: %w", err)
	}
	return total, nil
}

// where accumulates conjunctive predicates, always scoped to one owner.
type where struct {
	clauses []string
	args    []any
}

func newWhere(userID string) *where {
	return &where{clauses: []string{"user_id = ?"}, args: []any{userID}}
}

func (w *where) add(clause string, arg any) *where {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, arg)
	return w
}

func (w *where) dateRange(r models.DateRange) *where {
	if r.Start != nil {
		w.add("date >= ?", models.FormatDate(*r.Start))
	}
	if r.End != nil {
		w.add("date <= ?", models.FormatDate(*r.End))
	}
	return w
}

func (w *where) String() string {
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (*models.Expense, error) {
	var (
		e                              models.Expense
		date                           string
		amount                         float64
		category, description, account sql.NullString
		receipt                        sql.NullString
		createdAt, updatedAt           sql.NullString
	)
	err := s.Scan(&e.ID, &e.UserID, &date, &amount, &e.Currency,
		&category, &description, &account, &receipt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}

	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("parse expense %d date %q: %w", e.ID, date, err)
	}
	e.Date = d
	if e.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	if e.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.Amount = decimal.NewFromFloat(amount)
	e.Category = category.String
	e.Description = description.String
	e.Account = account.String
	e.ReceiptPath = receipt.String
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func logUnmatched(ctx context.Context, res sql.Result, op string, id int64, userID string) {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Expense not matched", "op", op, "id", id, "user_id", userID)
	}
}
