package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
)

// accountService implements the chart-of-accounts registry.
type accountService struct {
	accountRepo   portsrepo.AccountRepositoryFacade
	reportingRepo portsrepo.ReportingRepository
}

// NewAccountService creates a new account registry service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade, reportingRepo portsrepo.ReportingRepository) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo:   accountRepo,
		reportingRepo: reportingRepo,
	}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, businessID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	accountType := domain.AccountType(req.AccountType)
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  businessID,
		Code:        req.Code,
		Name:        req.Name,
		AccountType: accountType,
		Category:    req.Category,
		Role:        domain.AccountRole(req.Role),
		Description: req.Description,
		IsActive:    true,
		Balance:     decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_code", req.Code))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("business_id", businessID))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, businessID string, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}

	if account.BusinessID != businessID {
		// Obscure existence of accounts in other businesses
		return nil, apperrors.ErrNotFound
	}

	return account, nil
}

func (s *accountService) GetAccountByIDs(ctx context.Context, businessID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	// Filter out accounts from other businesses; callers treat absence as unknown.
	for id, acc := range accounts {
		if acc.BusinessID != businessID {
			delete(accounts, id)
		}
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, businessID string, limit int, offset int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.accountRepo.ListAccounts(ctx, businessID, limit, offset)
}

func (s *accountService) ListAccountsByType(ctx context.Context, businessID string, accountType domain.AccountType) ([]domain.Account, error) {
	if !accountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, accountType)
	}
	return s.accountRepo.ListAccountsByType(ctx, businessID, accountType)
}

func (s *accountService) UpdateAccount(ctx context.Context, businessID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, businessID, accountID)
	if err != nil {
		return nil, err
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Category != nil {
		account.Category = *req.Category
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if !updated {
		return account, nil
	}

	account.LastUpdatedAt = time.Now().UTC()
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, err
	}

	return account, nil
}

func (s *accountService) DeactivateAccount(ctx context.Context, businessID string, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	// Accounts referenced by posted lines are never deleted, only deactivated.
	if _, err := s.GetAccountByID(ctx, businessID, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return err
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID))
	return nil
}

// GetAccountBalance recomputes the balance from posted lines as of the given date.
// A zero asOf returns the maintained running balance; the two agree by the
// posting atomicity guarantee, which the test suite asserts as a law.
func (s *accountService) GetAccountBalance(ctx context.Context, businessID string, accountID string, asOf time.Time) (decimal.Decimal, error) {
	account, err := s.GetAccountByID(ctx, businessID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	if asOf.IsZero() {
		return account.Balance, nil
	}

	balance, err := s.reportingRepo.GetAccountBalanceAsOf(ctx, accountID, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to aggregate balance for account %s: %w", accountID, err)
	}
	return balance, nil
}

// ResolveSystemAccount finds an account by role, falling back to a case-insensitive
// name fragment search. A missing system account is reported as (nil, nil) so the
// closing engine can skip the corresponding sub-step.
func (s *accountService) ResolveSystemAccount(ctx context.Context, businessID string, role domain.AccountRole, nameFragment string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByRole(ctx, businessID, role)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account, err = s.accountRepo.FindAccountByNameFragment(ctx, businessID, nameFragment)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}
