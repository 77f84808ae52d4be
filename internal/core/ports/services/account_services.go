package services

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountSvcFacade exposes the chart-of-accounts registry.
// It is the single source of truth for account types and categories consulted
// by validation and closing logic.
type AccountSvcFacade interface {
	CreateAccount(ctx context.Context, businessID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, businessID string, accountID string) (*domain.Account, error)
	GetAccountByIDs(ctx context.Context, businessID string, accountIDs []string) (map[string]domain.Account, error)
	ListAccounts(ctx context.Context, businessID string, limit int, offset int) ([]domain.Account, error)
	ListAccountsByType(ctx context.Context, businessID string, accountType domain.AccountType) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, businessID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)
	DeactivateAccount(ctx context.Context, businessID string, accountID string, userID string) error

	// GetAccountBalance recomputes the balance from POSTED lines up to asOf.
	// A zero asOf means "now" and must agree with the maintained running balance.
	GetAccountBalance(ctx context.Context, businessID string, accountID string, asOf time.Time) (decimal.Decimal, error)

	// ResolveSystemAccount finds the account for a system role, falling back to a
	// case-insensitive name fragment search. Returns nil without error when absent.
	ResolveSystemAccount(ctx context.Context, businessID string, role domain.AccountRole, nameFragment string) (*domain.Account, error)
}
