package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// JournalEntry represents a single financial event composed of multiple lines.
// A DRAFT entry may be transiently unbalanced while it is being edited; it must
// balance before it can transition to POSTED.
type JournalEntry struct {
	EntryID            string      `json:"entryID"`    // Primary Key (UUID)
	BusinessID         string      `json:"businessID"` // FK -> businesses.business_id (Not Null)
	EntryDate          time.Time   `json:"entryDate"`  // Date the event occurred
	Description        string      `json:"description"`
	Reference          string      `json:"reference"` // External document reference, nullable
	Status             EntryStatus `json:"status"`
	IsAdjusting        bool        `json:"isAdjusting"`
	IsClosing          bool        `json:"isClosing"`
	AccountingPeriodID *string     `json:"accountingPeriodID,omitempty"` // Set on adjusting/closing entries
	OriginalEntryID    *string     `json:"originalEntryID,omitempty"`    // Set on a reversing entry
	ReversingEntryID   *string     `json:"reversingEntryID,omitempty"`   // Set on a reversed entry
	AuditFields
	Amount decimal.Decimal `json:"amount"` // Economic value of the entry (total debits)
	Lines  []JournalLine   `json:"lines,omitempty"`
}

// JournalLine is a single leg of a journal entry, affecting one account.
// Exactly one of DebitAmount/CreditAmount is non-zero on a valid line; both are
// immutable once the owning entry is POSTED.
type JournalLine struct {
	LineID       string          `json:"lineID"`    // Primary Key (UUID)
	EntryID      string          `json:"entryID"`   // FK -> journal_entries.entry_id (Not Null)
	AccountID    string          `json:"accountID"` // FK -> accounts.account_id (Not Null)
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Description  string          `json:"description"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this line, set at post time

	// Denormalized entry details, populated on per-account listings.
	EntryDate        time.Time `json:"entryDate,omitempty"`
	EntryDescription string    `json:"entryDescription,omitempty"`
}

// Side returns which column the line's amount sits in. Lines with both or
// neither side set are caught by validation before they reach posting.
func (l JournalLine) Side() EntrySide {
	if l.DebitAmount.IsPositive() {
		return DebitSide
	}
	return CreditSide
}

// Amount returns the non-zero side's amount.
func (l JournalLine) LineAmount() decimal.Decimal {
	if l.DebitAmount.IsPositive() {
		return l.DebitAmount
	}
	return l.CreditAmount
}
