package services

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
)

// ClosingSvcFacade exposes the period closing engine.
type ClosingSvcFacade interface {
	// ClosePeriod runs the full monthly close as one atomic operation: creates the
	// period, posts the supplied adjusting entries, generates closing entries that
	// zero out temporary accounts through Income Summary into Retained Earnings,
	// and marks the period CLOSED.
	ClosePeriod(ctx context.Context, businessID string, periodEndDate time.Time, adjustingEntries []dto.AdjustingEntryRequest, closedByUserID string) (*domain.AccountingPeriod, error)

	// CreateAdjustingEntry posts a standalone templated adjusting entry.
	CreateAdjustingEntry(ctx context.Context, businessID string, req dto.AdjustingEntryRequest, userID string) (*domain.JournalEntry, error)

	// GetPeriodByID retrieves a specific accounting period.
	GetPeriodByID(ctx context.Context, businessID string, periodID string) (*domain.AccountingPeriod, error)

	// ListPeriods retrieves all periods for a business, newest first.
	ListPeriods(ctx context.Context, businessID string) ([]domain.AccountingPeriod, error)
}
