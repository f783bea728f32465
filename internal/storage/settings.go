package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"travel-expenses/internal/models"
)

// listColumn names a JSON-encoded list column of user_settings.
type listColumn string

const (
	categoriesColumn listColumn = "categories"
	accountsColumn   listColumn = "accounts"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GetSettings returns the settings of userID, creating the default row first if absent.
func (db *DB) GetSettings(ctx context.Context, userID string) (*models.Settings, error) {
	if err := ensureSettings(ctx, db.conn, userID); err != nil {
		return nil, err
	}
	return readSettings(ctx, db.conn, userID)
}

// AddCategory appends name to the category list unless it is blank or already present.
func (db *DB) AddCategory(ctx context.Context, userID, name string) error {
	return db.addToList(ctx, userID, categoriesColumn, name)
}

// RemoveCategory drops the first category equal to name.
func (db *DB) RemoveCategory(ctx context.Context, userID, name string) error {
	return db.removeFromList(ctx, userID, categoriesColumn, name)
}

// AddAccount appends name to the account list unless it is blank or already present.
func (db *DB) AddAccount(ctx context.Context, userID, name string) error {
	return db.addToList(ctx, userID, accountsColumn, name)
}

// RemoveAccount drops the first account equal to name.
func (db *DB) RemoveAccount(ctx context.Context, userID, name string) error {
	return db.removeFromList(ctx, userID, accountsColumn, name)
}

// SetMonthlyBudget overwrites the budget; an invalid NullDecimal clears it.
// The settings row must already exist: a user whose settings were never read
// is left untouched.
func (db *DB) SetMonthlyBudget(ctx context.Context, userID string, budget decimal.NullDecimal) error {
	var value any
	if budget.Valid {
		value = budget.Decimal.InexactFloat64()
	}
	res, err := db.conn.ExecContext(ctx,
		"UPDATE user_settings SET monthly_budget = ? WHERE user_id = ?",
		value, userID,
	)
	if err != nil {
		return fmt.Errorf("update monthly budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Monthly budget not stored, no settings row", "user_id", userID)
	}
	return nil
}

func (db *DB) addToList(ctx context.Context, userID string, column listColumn, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return db.mutateList(ctx, userID, column, func(items []string) ([]string, bool) {
		if slices.Contains(items, name) {
			return items, false
		}
		return append(items, name), true
	})
}

func (db *DB) removeFromList(ctx context.Context, userID string, column listColumn, name string) error {
	return db.mutateList(ctx, userID, column, func(items []string) ([]string, bool) {
		i := slices.Index(items, name)
		if i < 0 {
			return items, false
		}
		return slices.Delete(items, i, i+1), true
	})
}

// mutateList reads one list, applies fn and rewrites the whole list, all in
// one transaction.
func (db *DB) mutateList(ctx context.Context, userID string, column listColumn, fn func([]string) ([]string, bool)) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ensureSettings(ctx, tx, userID); err != nil {
		return err
	}
	settings, err := readSettings(ctx, tx, userID)
	if err != nil {
		return err
	}

	current := settings.Categories
	if column == accountsColumn {
		current = settings.Accounts
	}
	updated, changed := fn(current)
	if !changed {
		slog.DebugContext(ctx, "Settings list unchanged", "user_id", userID, "list", string(column))
		return tx.Commit()
	}

	encoded, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("encode %s: %w", column, err)
	}
	// column is one of the listColumn constants, never caller input.
	query := fmt.Sprintf("UPDATE user_settings SET %s = ? WHERE user_id = ?", column)
	if _, err := tx.ExecContext(ctx, query, string(encoded), userID); err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	return tx.Commit()
}

func ensureSettings(ctx context.Context, q querier, userID string) error {
	categories, err := json.Marshal(models.DefaultCategories)
	if err != nil {
		return fmt.Errorf("encode default categories: %w", err)
	}
	_, err = q.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_settings (user_id, categories, accounts, monthly_budget) VALUES (?, ?, ?, NULL)",
		userID, string(categories), "[]",
	)
	if err != nil {
		return fmt.Errorf("ensure settings row: %w", err)
	}
	return nil
}

func readSettings(ctx context.Context, q querier, userID string) (*models.Settings, error) {
	var (
		categories, accounts sql.NullString
		budget               decimal.NullDecimal
	)
	err := q.QueryRowContext(ctx,
		"SELECT categories, accounts, monthly_budget FROM user_settings WHERE user_id = ?",
		userID,
	).Scan(&categories, &accounts, &budget)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	s := &models.Settings{UserID: userID, MonthlyBudget: budget}
	if s.Categories, err = decodeList(categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	if s.Accounts, err = decodeList(accounts); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	return s, nil
}

func decodeList(raw sql.NullString) ([]string, error) {
	items := []string{}
	if !raw.Valid || raw.String == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []string{}
	}
	return items, nil
}
