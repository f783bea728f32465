package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpensePatch(t *testing.T) {
	p, err := ParseExpensePatch(map[string]string{
		"date":         "2024-05-01",
		"amount":       "12,50",
		"currency":     "USD",
		"category":     "Lazer",
		"description":  "Museu",
		"account":      "Visa",
		"receipt_path": "uploads/a.pdf",
	})
	require.NoError(t, err)

	require.NotNil(t, p.Date)
	assert.Equal(t, "2024-05-01", FormatDate(*p.Date))
	require.NotNil(t, p.Amount)
	assert.True(t, decimal.RequireFromString("12.5").Equal(*p.Amount))
	assert.Equal(t, "USD", *p.Currency)
	assert.Equal(t, "Lazer", *p.Category)
	assert.Equal(t, "Museu", *p.Description)
	assert.Equal(t, "Visa", *p.Account)
	assert.Equal(t, "uploads/a.pdf", *p.ReceiptPath)
	assert.False(t, p.IsEmpty())
}

func TestParseExpensePatch_Empty(t *testing.T) {
	p, err := ParseExpensePatch(nil)
	require.NoError(t, err)
	assert.True(t, p.IsEmpty())
}

func TestParseExpensePatch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{"unknown keys", map[string]string{"user_id": "x", "id": "1", "amount": "1"}, "patch: unknown field(s): id, user_id"},
		{"bad amount", map[string]string{"amount": "abc"}, `amount: not a number: "abc"`},
		{"negative amount", map[string]string{"amount": "-3"}, "amount: must not be negative"},
		{"bad date", map[string]string{"date": "01/05/2024"}, `date: expected YYYY-MM-DD, got "01/05/2024"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpensePatch(tt.fields)
			require.ErrorIs(t, err, ErrValidation)
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestExpensePatch_Validate(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	assert.ErrorIs(t, ExpensePatch{Amount: &neg}.Validate(), ErrValidation)

	var zero time.Time
	assert.ErrorIs(t, ExpensePatch{Date: &zero}.Validate(), ErrValidation)

	ok := decimal.Zero
	assert.NoError(t, ExpensePatch{Amount: &ok}.Validate())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-02-29T23:10:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("2023-02-29")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestValidationError(t *testing.T) {
	err := Invalid("email", "is required")
	assert.EqualError(t, err, "email: is required")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrDuplicateUser)

	assert.EqualError(t, &ValidationError{Reason: "bad"}, "bad")
}
