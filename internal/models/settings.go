package models

import "github.com/shopspring/decimal"

// DefaultCategories seeds the category list of a user on first access.
var DefaultCategories = []string{
	"Alimentação",
	"Transporte",
	"Hospedagem",
	"Lazer",
	"Compras",
	"Outros",
}

// Settings holds the per-user lists and the optional monthly budget.
type Settings struct {
	UserID        string              `json:"user_id"`
	Categories    []string            `json:"categories"`
	Accounts      []string            `json:"accounts"`
	MonthlyBudget decimal.NullDecimal `json:"monthly_budget"`
}
