package repositories

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ReportingRepository defines aggregation queries over posted ledger data.
type ReportingRepository interface {
	// GetTrialBalanceData returns per-account debit/credit totals over POSTED lines
	// dated up to and including asOf.
	GetTrialBalanceData(ctx context.Context, businessID string, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// GetProfitAndLossData returns net amounts for revenue and expense accounts
	// over the given date range.
	GetProfitAndLossData(ctx context.Context, businessID string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error)

	// GetBalanceSheetData returns net amounts for asset, liability and equity accounts as of a date.
	GetBalanceSheetData(ctx context.Context, businessID string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error)

	// GetAccountBalanceAsOf recomputes an account's balance by aggregating all
	// POSTED lines up to and including asOf, signed per the account's normal balance.
	GetAccountBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	// GetAccountBalancesByTypeInTx returns signed balances per active account of the
	// given type as of a date, reading through tx so entries posted earlier in the
	// same transaction are visible.
	GetAccountBalancesByTypeInTx(ctx context.Context, tx pgx.Tx, businessID string, accountType domain.AccountType, asOf time.Time) ([]domain.AccountAmount, error)
}
