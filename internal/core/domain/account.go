package domain

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

// EntrySide identifies the debit or credit column of a journal line.
type EntrySide string

const (
	DebitSide  EntrySide = "DEBIT"
	CreditSide EntrySide = "CREDIT"
)

// normalBalances maps each account type to the side on which it naturally increases.
var normalBalances = map[AccountType]EntrySide{
	Asset:     DebitSide,
	Expense:   DebitSide,
	Liability: CreditSide,
	Equity:    CreditSide,
	Revenue:   CreditSide,
}

// NormalBalance returns the side on which this account type increases.
// The second return value is false for an unknown type.
func (t AccountType) NormalBalance() (EntrySide, bool) {
	side, ok := normalBalances[t]
	return side, ok
}

// IsValid reports whether t is one of the five canonical account types.
func (t AccountType) IsValid() bool {
	_, ok := normalBalances[t]
	return ok
}

// IsTemporary reports whether balances of this type are zeroed out at period close.
func (t AccountType) IsTemporary() bool {
	return t == Revenue || t == Expense
}

// AccountRole marks accounts the period closing engine must resolve directly,
// instead of re-deriving them by name search on every close.
type AccountRole string

const (
	RoleNone             AccountRole = ""
	RoleIncomeSummary    AccountRole = "SYSTEM_INCOME_SUMMARY"
	RoleRetainedEarnings AccountRole = "SYSTEM_RETAINED_EARNINGS"
)

// Account represents a chart-of-accounts entry within the core domain.
// This is the primary representation used by services.
type Account struct {
	AccountID   string      `json:"accountID"`  // Primary Key (UUID)
	BusinessID  string      `json:"businessID"` // FK -> businesses.business_id (NON-NULL)
	Code        string      `json:"code"`       // Unique within a business
	Name        string      `json:"name"`       // User-defined name
	AccountType AccountType `json:"accountType"`
	Category    string      `json:"category"` // Free-form grouping (e.g. "Current Assets")
	Role        AccountRole `json:"role"`     // SYSTEM_* marker or empty
	Description string      `json:"description"`
	IsActive    bool        `json:"isActive"` // Soft delete flag; referenced accounts are never removed
	AuditFields
	Balance decimal.Decimal `json:"balance"` // Derived running balance, maintained by the poster only
}
