package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
	"github.com/finbooks-app/finbooks_backend/internal/platform/events"
	"github.com/finbooks-app/finbooks_backend/internal/utils/accounting"
)

var (
	ErrPeriodAlreadyClosed    = fmt.Errorf("%w: accounting period is already closed", apperrors.ErrConflict)
	ErrInvalidAdjustingAmount = fmt.Errorf("%w: adjusting entry amount must be positive", apperrors.ErrValidation)
	ErrUnknownAdjustingType   = fmt.Errorf("%w: unknown adjusting entry type", apperrors.ErrValidation)
)

// Name fragments used to locate system accounts when no account carries the
// corresponding role.
const (
	incomeSummaryFragment    = "income summary"
	retainedEarningsFragment = "retained earnings"
)

// closingService implements the period closing engine and adjusting entry templates.
type closingService struct {
	accountSvc    portssvc.AccountSvcFacade
	entryRepo     portsrepo.EntryRepositoryWithTx
	periodRepo    portsrepo.PeriodRepositoryFacade
	reportingRepo portsrepo.ReportingRepository
	publisher     events.Publisher
}

// NewClosingService creates a new ClosingService.
func NewClosingService(entryRepo portsrepo.EntryRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, periodRepo portsrepo.PeriodRepositoryFacade, reportingRepo portsrepo.ReportingRepository, publisher events.Publisher) portssvc.ClosingSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &closingService{
		accountSvc:    accountSvc,
		entryRepo:     entryRepo,
		periodRepo:    periodRepo,
		reportingRepo: reportingRepo,
		publisher:     publisher,
	}
}

var _ portssvc.ClosingSvcFacade = (*closingService)(nil)

// ClosePeriod runs the full monthly close inside a single transaction:
//
//  1. create the accounting period row
//  2. post the supplied adjusting entries
//  3. close revenue accounts into Income Summary
//  4. close expense accounts into Income Summary
//  5. transfer the Income Summary balance to Retained Earnings
//  6. mark the period CLOSED
//
// Any failure rolls back every step, leaving the ledger untouched.
func (s *closingService) ClosePeriod(ctx context.Context, businessID string, periodEndDate time.Time, adjustingEntries []dto.AdjustingEntryRequest, closedByUserID string) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if periodEndDate.IsZero() {
		return nil, fmt.Errorf("%w: period end date is required", apperrors.ErrValidation)
	}

	existing, err := s.periodRepo.FindPeriodForDate(ctx, businessID, periodEndDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing periods: %w", err)
	}
	if existing != nil && existing.Status == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyClosed, existing.PeriodName)
	}

	incomeSummary, err := s.accountSvc.ResolveSystemAccount(ctx, businessID, domain.RoleIncomeSummary, incomeSummaryFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve income summary account: %w", err)
	}
	retainedEarnings, err := s.accountSvc.ResolveSystemAccount(ctx, businessID, domain.RoleRetainedEarnings, retainedEarningsFragment)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve retained earnings account: %w", err)
	}

	now := time.Now().UTC()
	period := newMonthlyPeriod(businessID, periodEndDate, closedByUserID, now)

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	// The advisory lock on the business-month serializes this close against
	// concurrent postings and closes: postings into the month take the same
	// lock, so the balances read below cannot change before commit.
	if err := s.periodRepo.AcquireMonthLockInTx(ctx, tx, businessID, periodEndDate); err != nil {
		return nil, err
	}

	// Re-check under the lock: another close may have committed between the
	// lock-free check above and lock acquisition.
	current, err := s.periodRepo.FindPeriodForDateInTx(ctx, tx, businessID, periodEndDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing periods: %w", err)
	}
	if current != nil && current.Status == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyClosed, current.PeriodName)
	}

	if current == nil {
		if err := s.periodRepo.SavePeriodInTx(ctx, tx, period); err != nil {
			logger.Error("Failed to create accounting period", slog.String("error", err.Error()), slog.String("business_id", businessID))
			return nil, fmt.Errorf("failed to create accounting period: %w", err)
		}
	} else {
		period = *current
	}

	for i, adj := range adjustingEntries {
		if err := s.postAdjustingEntryInTx(ctx, tx, businessID, period.PeriodID, adj, closedByUserID, now); err != nil {
			return nil, fmt.Errorf("adjusting entry %d: %w", i+1, err)
		}
	}

	if incomeSummary == nil {
		logger.Warn("No income summary account configured, skipping closing entries", slog.String("business_id", businessID))
	} else {
		revenueTotal, err := s.closeTemporaryAccountsInTx(ctx, tx, businessID, period, domain.Revenue, *incomeSummary, closedByUserID, now)
		if err != nil {
			return nil, err
		}
		expenseTotal, err := s.closeTemporaryAccountsInTx(ctx, tx, businessID, period, domain.Expense, *incomeSummary, closedByUserID, now)
		if err != nil {
			return nil, err
		}

		netIncome := revenueTotal.Sub(expenseTotal)
		if retainedEarnings == nil {
			logger.Warn("No retained earnings account configured, leaving balance in income summary", slog.String("business_id", businessID))
		} else if !netIncome.IsZero() {
			if err := s.transferNetIncomeInTx(ctx, tx, businessID, period, *incomeSummary, *retainedEarnings, netIncome, closedByUserID, now); err != nil {
				return nil, err
			}
		}
	}

	closedAt := time.Now().UTC()
	if err := s.periodRepo.MarkPeriodClosedInTx(ctx, tx, period.PeriodID, closedByUserID, closedAt); err != nil {
		logger.Error("Failed to mark period closed", slog.String("error", err.Error()), slog.String("period_id", period.PeriodID))
		return nil, fmt.Errorf("failed to mark period closed: %w", err)
	}

	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	period.Status = domain.PeriodClosed
	period.ClosedAt = &closedAt
	period.ClosedBy = closedByUserID

	logger.Info("Accounting period closed",
		slog.String("period_id", period.PeriodID),
		slog.String("period_name", period.PeriodName),
		slog.String("business_id", businessID))

	if err := s.publisher.Publish(ctx, events.TopicPeriodClosed, events.PeriodClosedEvent{
		PeriodID:   period.PeriodID,
		BusinessID: businessID,
		PeriodName: period.PeriodName,
		ClosedBy:   closedByUserID,
		ClosedAt:   closedAt,
	}); err != nil {
		logger.Warn("Failed to publish period closed event", slog.String("period_id", period.PeriodID), slog.String("error", err.Error()))
	}

	return &period, nil
}

// CreateAdjustingEntry posts a standalone templated adjusting entry in its own transaction.
func (s *closingService) CreateAdjustingEntry(ctx context.Context, businessID string, req dto.AdjustingEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	entry, err := s.buildAdjustingEntry(ctx, businessID, nil, req, userID, now)
	if err != nil {
		return nil, err
	}

	// A standalone adjusting entry carries no period link, so it gets no
	// closed-period exemption: posting one dated inside a closed period is
	// rejected like any other posting.
	if err := ensureOpenPeriodInTx(ctx, tx, s.periodRepo, entry); err != nil {
		return nil, err
	}

	if err := s.saveClosingFlowEntryInTx(ctx, tx, businessID, entry); err != nil {
		logger.Error("Failed to post adjusting entry", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to post adjusting entry: %w", err)
	}
	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Adjusting entry posted", slog.String("entry_id", entry.EntryID), slog.String("type", string(req.Type)))
	return entry, nil
}

// GetPeriodByID retrieves a specific accounting period.
func (s *closingService) GetPeriodByID(ctx context.Context, businessID string, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.BusinessID != businessID {
		return nil, apperrors.ErrNotFound
	}
	return period, nil
}

// ListPeriods retrieves all periods for a business, newest first.
func (s *closingService) ListPeriods(ctx context.Context, businessID string) ([]domain.AccountingPeriod, error) {
	return s.periodRepo.ListPeriods(ctx, businessID)
}

// newMonthlyPeriod builds an OPEN period covering the calendar month of endDate.
func newMonthlyPeriod(businessID string, endDate time.Time, userID string, now time.Time) domain.AccountingPeriod {
	start := time.Date(endDate.Year(), endDate.Month(), 1, 0, 0, 0, 0, endDate.Location())
	return domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		BusinessID: businessID,
		PeriodName: endDate.Format("January 2006"),
		StartDate:  start,
		EndDate:    endDate,
		Status:     domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
}

// postAdjustingEntryInTx builds and posts one templated adjusting entry inside tx.
func (s *closingService) postAdjustingEntryInTx(ctx context.Context, tx pgx.Tx, businessID string, periodID string, req dto.AdjustingEntryRequest, userID string, now time.Time) error {
	entry, err := s.buildAdjustingEntry(ctx, businessID, &periodID, req, userID, now)
	if err != nil {
		return err
	}
	return s.saveClosingFlowEntryInTx(ctx, tx, businessID, entry)
}

// buildAdjustingEntry expands an adjusting template into a balanced two-line entry.
// Every template debits one account and credits another for the same amount; the
// template type determines the default description.
func (s *closingService) buildAdjustingEntry(ctx context.Context, businessID string, periodID *string, req dto.AdjustingEntryRequest, userID string, now time.Time) (*domain.JournalEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAdjustingAmount
	}

	description := req.Description
	if description == "" {
		switch req.Type {
		case dto.AdjustingDepreciation:
			description = "Depreciation for the period"
		case dto.AdjustingAccrual:
			description = "Accrued expense"
		case dto.AdjustingPrepaidExpense:
			description = "Prepaid expense recognized"
		case dto.AdjustingUnearnedRevenue:
			description = "Unearned revenue earned"
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownAdjustingType, req.Type)
		}
	} else if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdjustingType, req.Type)
	}

	accounts, err := s.accountSvc.GetAccountByIDs(ctx, businessID, uniqueStrings([]string{req.DebitAccountID, req.CreditAccountID}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template accounts: %w", err)
	}
	for _, id := range []string{req.DebitAccountID, req.CreditAccountID} {
		acc, found := accounts[id]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrInactiveAccount, id)
		}
	}

	entryID := uuid.NewString()
	entry := &domain.JournalEntry{
		EntryID:            entryID,
		BusinessID:         businessID,
		EntryDate:          req.Date,
		Description:        description,
		Status:             domain.Posted,
		IsAdjusting:        true,
		AccountingPeriodID: periodID,
		Amount:             req.Amount,
		AuditFields:        auditStamp(userID, now),
		Lines: []domain.JournalLine{
			{
				LineID:      uuid.NewString(),
				EntryID:     entryID,
				AccountID:   req.DebitAccountID,
				DebitAmount: req.Amount,
				Description: description,
				AuditFields: auditStamp(userID, now),
			},
			{
				LineID:       uuid.NewString(),
				EntryID:      entryID,
				AccountID:    req.CreditAccountID,
				CreditAmount: req.Amount,
				Description:  description,
				AuditFields:  auditStamp(userID, now),
			},
		},
	}
	return entry, nil
}

// closeTemporaryAccountsInTx posts one closing entry zeroing every non-zero
// account of the given temporary type into the income summary account. Returns
// the total amount moved, signed per the type's normal balance.
func (s *closingService) closeTemporaryAccountsInTx(ctx context.Context, tx pgx.Tx, businessID string, period domain.AccountingPeriod, accountType domain.AccountType, incomeSummary domain.Account, userID string, now time.Time) (decimal.Decimal, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	balances, err := s.reportingRepo.GetAccountBalancesByTypeInTx(ctx, tx, businessID, accountType, period.EndDate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s balances: %w", accountType, err)
	}

	entryID := uuid.NewString()
	lines := make([]domain.JournalLine, 0, len(balances)+1)
	total := decimal.Zero

	for _, bal := range balances {
		if bal.NetAmount.IsZero() {
			continue
		}
		total = total.Add(bal.NetAmount)

		// Zeroing a temporary account means posting the opposite of its net
		// balance: a credit-normal account with a positive balance takes a
		// debit, and vice versa. Negative balances swap the column.
		line := domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   bal.AccountID,
			Description: fmt.Sprintf("Close %s", bal.Name),
			AuditFields: auditStamp(userID, now),
		}
		normal, _ := accountType.NormalBalance()
		amount := bal.NetAmount.Abs()
		closeWithDebit := (normal == domain.CreditSide) == bal.NetAmount.IsPositive()
		if closeWithDebit {
			line.DebitAmount = amount
		} else {
			line.CreditAmount = amount
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		logger.Info("No balances to close", slog.String("account_type", string(accountType)), slog.String("period_id", period.PeriodID))
		return decimal.Zero, nil
	}

	// The income summary leg mirrors the combined temporary-account legs.
	summaryLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		EntryID:     entryID,
		AccountID:   incomeSummary.AccountID,
		Description: fmt.Sprintf("Close %s accounts", accountType),
		AuditFields: auditStamp(userID, now),
	}
	normal, _ := accountType.NormalBalance()
	amount := total.Abs()
	summaryCloseWithDebit := (normal == domain.CreditSide) == total.IsPositive()
	if summaryCloseWithDebit {
		summaryLine.CreditAmount = amount
	} else {
		summaryLine.DebitAmount = amount
	}
	lines = append(lines, summaryLine)

	entry := &domain.JournalEntry{
		EntryID:            entryID,
		BusinessID:         businessID,
		EntryDate:          period.EndDate,
		Description:        fmt.Sprintf("Closing entry: %s accounts for %s", accountType, period.PeriodName),
		Status:             domain.Posted,
		IsClosing:          true,
		AccountingPeriodID: &period.PeriodID,
		Amount:             accounting.EntryAmount(lines),
		AuditFields:        auditStamp(userID, now),
		Lines:              lines,
	}

	if err := s.saveClosingFlowEntryInTx(ctx, tx, businessID, entry); err != nil {
		return decimal.Zero, fmt.Errorf("failed to post %s closing entry: %w", accountType, err)
	}
	return total, nil
}

// transferNetIncomeInTx posts the final closing entry moving net income out of
// Income Summary into Retained Earnings. A positive netIncome is a profit:
// debit Income Summary, credit Retained Earnings. A loss swaps the columns.
func (s *closingService) transferNetIncomeInTx(ctx context.Context, tx pgx.Tx, businessID string, period domain.AccountingPeriod, incomeSummary, retainedEarnings domain.Account, netIncome decimal.Decimal, userID string, now time.Time) error {
	entryID := uuid.NewString()
	amount := netIncome.Abs()

	summaryLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		EntryID:     entryID,
		AccountID:   incomeSummary.AccountID,
		Description: "Transfer net income to retained earnings",
		AuditFields: auditStamp(userID, now),
	}
	earningsLine := domain.JournalLine{
		LineID:      uuid.NewString(),
		EntryID:     entryID,
		AccountID:   retainedEarnings.AccountID,
		Description: "Net income for the period",
		AuditFields: auditStamp(userID, now),
	}
	if netIncome.IsPositive() {
		summaryLine.DebitAmount = amount
		earningsLine.CreditAmount = amount
	} else {
		summaryLine.CreditAmount = amount
		earningsLine.DebitAmount = amount
	}

	entry := &domain.JournalEntry{
		EntryID:            entryID,
		BusinessID:         businessID,
		EntryDate:          period.EndDate,
		Description:        fmt.Sprintf("Closing entry: net income for %s", period.PeriodName),
		Status:             domain.Posted,
		IsClosing:          true,
		AccountingPeriodID: &period.PeriodID,
		Amount:             amount,
		AuditFields:        auditStamp(userID, now),
		Lines:              []domain.JournalLine{summaryLine, earningsLine},
	}

	if err := s.saveClosingFlowEntryInTx(ctx, tx, businessID, entry); err != nil {
		return fmt.Errorf("failed to post net income transfer: %w", err)
	}
	return nil
}

// saveClosingFlowEntryInTx computes balance deltas for an already-balanced entry
// and persists it inside tx.
func (s *closingService) saveClosingFlowEntryInTx(ctx context.Context, tx pgx.Tx, businessID string, entry *domain.JournalEntry) error {
	if !accounting.IsBalanced(entry.Lines) {
		return fmt.Errorf("%w: delta is %s", ErrEntryUnbalanced, accounting.EntryDelta(entry.Lines).String())
	}

	accountIDs := make([]string, 0, len(entry.Lines))
	for _, line := range entry.Lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.accountSvc.GetAccountByIDs(ctx, businessID, uniqueStrings(accountIDs))
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}
	for _, id := range uniqueStrings(accountIDs) {
		if _, found := accounts[id]; !found {
			return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
		}
	}

	balanceChanges, err := balanceChangesFor(entry.Lines, accounts)
	if err != nil {
		return err
	}
	return s.entryRepo.SaveEntryInTx(ctx, tx, *entry, entry.Lines, balanceChanges)
}

// auditStamp returns audit fields with all four columns set to the same actor and time.
func auditStamp(userID string, now time.Time) domain.AuditFields {
	return domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}
}
