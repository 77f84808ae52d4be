package services

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
)

// ReportingSvcFacade exposes ledger reports derived from posted data.
type ReportingSvcFacade interface {
	// TrialBalance aggregates all posted lines per account as of a date into a
	// balanced debit/credit report. Total debits equal total credits exactly.
	TrialBalance(ctx context.Context, businessID string, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// ProfitAndLoss reports net revenue and expense amounts for a date range.
	ProfitAndLoss(ctx context.Context, businessID string, from, to time.Time) (*domain.PAndLReport, error)

	// BalanceSheet reports asset, liability and equity positions as of a date.
	BalanceSheet(ctx context.Context, businessID string, asOf time.Time) (*domain.BalanceSheetReport, error)
}
