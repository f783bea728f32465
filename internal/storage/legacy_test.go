package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-expenses/internal/auth"
	"travel-expenses/internal/models"
)

// Schema and row shapes written by earlier releases: TEXT timestamps,
// ISO 8601 updated_at values and salted SHA-256 password hashes.
const textTimestampSchema = `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE expenses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL DEFAULT 'BRL',
    category TEXT,
    description TEXT,
    account TEXT,
    receipt_path TEXT,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE user_settings (
    user_id TEXT PRIMARY KEY,
    categories TEXT,
    accounts TEXT,
    monthly_budget REAL
);`

func seedTextTimestampDB(t *testing.T, path, email, password string) {
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Exec(textTimestampSchema)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(password + auth.DefaultLegacySalt))
	_, err = conn.Exec("INSERT INTO users (email, password_hash) VALUES (?, ?)", email, hex.EncodeToString(sum[:]))
	require.NoError(t, err)

	_, err = conn.Exec(`INSERT INTO expenses (user_id, date, amount, category, description, account, updated_at)
		VALUES (?, '2024-01-01', 42.5, 'Hospedagem', 'Pousada', 'Cash', '2024-01-01T12:00:00.123456')`, email)
	require.NoError(t, err)
}

func TestTextTimestampDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	seedTextTimestampDB(t, path, "old@example.com", "senha123")

	db, err := NewDB(path)
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	user, err := db.GetUserByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())

	h, err := auth.NewHasher(4, auth.DefaultLegacySalt)
	require.NoError(t, err)
	ok, err := auth.NewService(db, h).VerifyUser(ctx, "old@example.com", "senha123")
	require.NoError(t, err)
	assert.True(t, ok)

	expenses, err := db.ListExpenses(ctx, "old@example.com", models.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, "Pousada", expenses[0].Description)
	assert.True(t, time.Date(2024, 1, 1, 12, 0, 0, 123456000, time.UTC).Equal(expenses[0].UpdatedAt), "updated_at %s", expenses[0].UpdatedAt)
	assert.False(t, expenses[0].CreatedAt.IsZero())

	// Rows written after the upgrade read back from the same table.
	_, err = db.AddExpense(ctx, models.Expense{
		UserID: "old@example.com",
		Date:   mustDate(t, "2024-01-02"),
		Amount: expenses[0].Amount,
	})
	require.NoError(t, err)
	expenses, err = db.ListExpenses(ctx, "old@example.com", models.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01 12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-01-01T12:00:00Z", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-01-01T12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"2024-01-01T12:00:00.5", time.Date(2024, 1, 1, 12, 0, 0, 500000000, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTimestamp("created_at", sql.NullString{String: tt.in, Valid: true})
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	got, err := parseTimestamp("created_at", sql.NullString{})
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseTimestamp("created_at", sql.NullString{String: "yesterday", Valid: true})
	assert.ErrorContains(t, err, "created_at")
}
