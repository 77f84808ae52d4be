package models

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// Account represents a chart-of-accounts row as stored in the database.
type Account struct {
	AccountID   string      `db:"account_id"`
	BusinessID  string      `db:"business_id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	AccountType AccountType `db:"account_type"`
	Category    string      `db:"category"`
	Role        string      `db:"role"` // Nullable in DB; empty string means no system role
	Description string      `db:"description"`
	IsActive    bool        `db:"is_active"`
	AuditFields
	Balance decimal.Decimal `db:"balance"` // Persisted running balance
}
