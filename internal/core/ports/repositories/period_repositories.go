package repositories

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// PeriodReader defines read operations for accounting period data.
type PeriodReader interface {
	// FindPeriodByID retrieves a specific accounting period.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodForDate retrieves the period whose date range contains the given date,
	// or apperrors.ErrNotFound when no period covers it.
	FindPeriodForDate(ctx context.Context, businessID string, date time.Time) (*domain.AccountingPeriod, error)

	// ListPeriods retrieves all periods for a business, newest first.
	ListPeriods(ctx context.Context, businessID string) ([]domain.AccountingPeriod, error)
}

// PeriodWriter defines write operations for accounting period data.
type PeriodWriter interface {
	// SavePeriodInTx persists a new OPEN period inside tx. The inserted row stays
	// locked by tx for the remainder of the close operation.
	SavePeriodInTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error

	// MarkPeriodClosedInTx transitions a period to CLOSED inside tx.
	MarkPeriodClosedInTx(ctx context.Context, tx pgx.Tx, periodID string, closedBy string, closedAt time.Time) error
}

// PeriodTransactionSupport defines period lookups participating in posting transactions.
type PeriodTransactionSupport interface {
	// FindPeriodForDateInTx is FindPeriodForDate with a shared row lock, so a
	// concurrent close of the same period blocks until the posting tx finishes.
	FindPeriodForDateInTx(ctx context.Context, tx pgx.Tx, businessID string, date time.Time) (*domain.AccountingPeriod, error)

	// AcquireMonthLockInTx takes a transaction-scoped exclusive lock on the
	// business and calendar month of date. Posting and closing transactions both
	// take it, which serializes a close of a month against postings into it.
	// The lock is released when tx commits or rolls back.
	AcquireMonthLockInTx(ctx context.Context, tx pgx.Tx, businessID string, date time.Time) error
}

// PeriodRepositoryFacade combines all period-related repository interfaces.
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
	PeriodTransactionSupport
}
