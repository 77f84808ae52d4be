package dto

import (
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest defines one leg of a journal entry draft.
// Exactly one of debitAmount/creditAmount must be non-zero; the validator
// enforces this server-side regardless of what the UI does.
type CreateLineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Description  string          `json:"description"`
}

// CreateEntryRequest defines the payload for creating a journal entry draft.
type CreateEntryRequest struct {
	Date        time.Time           `json:"date" binding:"required"`
	Description string              `json:"description" binding:"required"`
	Reference   string              `json:"reference"`
	Lines       []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateEntryRequest defines the payload for updating a DRAFT entry.
// Nil fields are left unchanged; a non-nil Lines replaces all lines.
type UpdateEntryRequest struct {
	Date        *time.Time          `json:"date,omitempty"`
	Description *string             `json:"description,omitempty"`
	Reference   *string             `json:"reference,omitempty"`
	Lines       []CreateLineRequest `json:"lines,omitempty"`
}

// ReverseEntryRequest defines the payload for reversing a posted entry.
type ReverseEntryRequest struct {
	// Date for the reversing entry; defaults to the current time when omitted.
	Date *time.Time `json:"date,omitempty"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID         string          `json:"lineID"`
	AccountID      string          `json:"accountID"`
	DebitAmount    decimal.Decimal `json:"debitAmount"`
	CreditAmount   decimal.Decimal `json:"creditAmount"`
	Description    string          `json:"description,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID            string          `json:"entryID"`
	BusinessID         string          `json:"businessID"`
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	Reference          string          `json:"reference,omitempty"`
	Status             string          `json:"status"`
	IsAdjusting        bool            `json:"isAdjusting"`
	IsClosing          bool            `json:"isClosing"`
	AccountingPeriodID *string         `json:"accountingPeriodID,omitempty"`
	OriginalEntryID    *string         `json:"originalEntryID,omitempty"`
	ReversingEntryID   *string         `json:"reversingEntryID,omitempty"`
	Amount             decimal.Decimal `json:"amount"`
	CreatedAt          time.Time       `json:"createdAt"`
	CreatedBy          string          `json:"createdBy"`
	Lines              []LineResponse  `json:"lines,omitempty"`
}

// ListEntriesParams holds parameters for listing journal entries.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
}

// ListEntriesResponse is a page of journal entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ListLinesParams holds parameters for listing lines of an account.
type ListLinesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListLinesResponse is a page of journal lines for one account.
type ListLinesResponse struct {
	Lines     []LineResponse `json:"lines"`
	NextToken *string        `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain.JournalLine to LineResponse DTO.
func ToLineResponse(l *domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:         l.LineID,
		AccountID:      l.AccountID,
		DebitAmount:    l.DebitAmount,
		CreditAmount:   l.CreditAmount,
		Description:    l.Description,
		RunningBalance: l.RunningBalance,
	}
}

// ToLineResponses converts a slice of domain.JournalLine to []LineResponse.
func ToLineResponses(lines []domain.JournalLine) []LineResponse {
	responses := make([]LineResponse, len(lines))
	for i := range lines {
		responses[i] = ToLineResponse(&lines[i])
	}
	return responses
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		EntryID:            e.EntryID,
		BusinessID:         e.BusinessID,
		Date:               e.EntryDate,
		Description:        e.Description,
		Reference:          e.Reference,
		Status:             string(e.Status),
		IsAdjusting:        e.IsAdjusting,
		IsClosing:          e.IsClosing,
		AccountingPeriodID: e.AccountingPeriodID,
		OriginalEntryID:    e.OriginalEntryID,
		ReversingEntryID:   e.ReversingEntryID,
		Amount:             e.Amount,
		CreatedAt:          e.CreatedAt,
		CreatedBy:          e.CreatedBy,
	}
	if e.Lines != nil {
		resp.Lines = ToLineResponses(e.Lines)
	}
	return resp
}
