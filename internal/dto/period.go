package dto

import (
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AdjustingEntryType identifies one of the period-end adjusting entry templates.
type AdjustingEntryType string

const (
	AdjustingDepreciation    AdjustingEntryType = "DEPRECIATION"
	AdjustingAccrual         AdjustingEntryType = "ACCRUAL"
	AdjustingPrepaidExpense  AdjustingEntryType = "PREPAID_EXPENSE"
	AdjustingUnearnedRevenue AdjustingEntryType = "UNEARNED_REVENUE"
)

// IsValid reports whether t is one of the supported templates.
func (t AdjustingEntryType) IsValid() bool {
	switch t {
	case AdjustingDepreciation, AdjustingAccrual, AdjustingPrepaidExpense, AdjustingUnearnedRevenue:
		return true
	}
	return false
}

// AdjustingEntryRequest describes a templated two-line adjusting entry.
// DebitAccountID/CreditAccountID carry the template's two legs, e.g. for
// DEPRECIATION the depreciation expense and accumulated depreciation accounts.
type AdjustingEntryRequest struct {
	Type            AdjustingEntryType `json:"type" binding:"required,oneof=DEPRECIATION ACCRUAL PREPAID_EXPENSE UNEARNED_REVENUE"`
	Date            time.Time          `json:"date" binding:"required"`
	Description     string             `json:"description"`
	DebitAccountID  string             `json:"debitAccountID" binding:"required"`
	CreditAccountID string             `json:"creditAccountID" binding:"required"`
	Amount          decimal.Decimal    `json:"amount" binding:"required"`
}

// ClosePeriodRequest defines the payload for closing an accounting period.
type ClosePeriodRequest struct {
	PeriodEndDate    time.Time               `json:"periodEndDate" binding:"required"`
	AdjustingEntries []AdjustingEntryRequest `json:"adjustingEntries" binding:"omitempty,dive"`
}

// PeriodResponse defines the data returned for an accounting period.
type PeriodResponse struct {
	PeriodID   string     `json:"periodID"`
	BusinessID string     `json:"businessID"`
	PeriodName string     `json:"periodName"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	Status     string     `json:"status"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
	ClosedBy   string     `json:"closedBy,omitempty"`
}

// ToPeriodResponse converts a domain.AccountingPeriod to PeriodResponse DTO.
func ToPeriodResponse(p *domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:   p.PeriodID,
		BusinessID: p.BusinessID,
		PeriodName: p.PeriodName,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Status:     string(p.Status),
		ClosedAt:   p.ClosedAt,
		ClosedBy:   p.ClosedBy,
	}
}

// ToPeriodResponses converts a slice of domain.AccountingPeriod to []PeriodResponse.
func ToPeriodResponses(periods []domain.AccountingPeriod) []PeriodResponse {
	responses := make([]PeriodResponse, len(periods))
	for i := range periods {
		responses[i] = ToPeriodResponse(&periods[i])
	}
	return responses
}
