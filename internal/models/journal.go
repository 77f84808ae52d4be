package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry row.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry represents a journal entry row as stored in the database.
type JournalEntry struct {
	EntryID            string      `db:"entry_id"`
	BusinessID         string      `db:"business_id"`
	EntryDate          time.Time   `db:"entry_date"`
	Description        string      `db:"description"`
	Reference          string      `db:"reference"`
	Status             EntryStatus `db:"status"`
	IsAdjusting        bool        `db:"is_adjusting"`
	IsClosing          bool        `db:"is_closing"`
	AccountingPeriodID *string     `db:"accounting_period_id"` // Nullable
	OriginalEntryID    *string     `db:"original_entry_id"`    // Nullable
	ReversingEntryID   *string     `db:"reversing_entry_id"`   // Nullable
	AuditFields
	Amount decimal.Decimal `db:"amount"`
}

// JournalLine represents a single journal line row as stored in the database.
type JournalLine struct {
	LineID       string          `db:"line_id"`
	EntryID      string          `db:"entry_id"`
	AccountID    string          `db:"account_id"`
	DebitAmount  decimal.Decimal `db:"debit_amount"`
	CreditAmount decimal.Decimal `db:"credit_amount"`
	Description  string          `db:"description"`
	AuditFields
	RunningBalance decimal.Decimal `db:"running_balance"` // Balance after this line, set at post time

	// Denormalized entry columns, populated by joined listings only.
	EntryDate        time.Time `db:"entry_date"`
	EntryDescription string    `db:"entry_description"`
}
