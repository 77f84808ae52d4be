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

// Validation sentinels. Each wraps apperrors.ErrValidation so callers can match
// either the broad class or the specific failure.
var (
	ErrDateMissing        = fmt.Errorf("%w: entry date is required", apperrors.ErrValidation)
	ErrDescriptionMissing = fmt.Errorf("%w: entry description is required", apperrors.ErrValidation)
	ErrEntryMinLines      = fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	ErrUnknownAccount     = fmt.Errorf("%w: account not found", apperrors.ErrValidation)
	ErrInactiveAccount    = fmt.Errorf("%w: account is inactive", apperrors.ErrValidation)
	ErrAmbiguousLine      = fmt.Errorf("%w: line has both debit and credit amounts", apperrors.ErrValidation)
	ErrEmptyLine          = fmt.Errorf("%w: line has no amount", apperrors.ErrValidation)
	ErrNegativeAmount     = fmt.Errorf("%w: line has a negative amount", apperrors.ErrValidation)
	ErrEntryUnbalanced    = fmt.Errorf("%w: debits and credits do not balance", apperrors.ErrValidation)
	ErrPeriodClosed       = fmt.Errorf("%w: accounting period is closed", apperrors.ErrValidation)
)

// State transition sentinels.
var (
	ErrAlreadyPosted   = fmt.Errorf("%w: entry is not in draft state", apperrors.ErrConflict)
	ErrNotPosted       = fmt.Errorf("%w: entry is not posted", apperrors.ErrConflict)
	ErrAlreadyReversed = fmt.Errorf("%w: entry has already been reversed", apperrors.ErrConflict)
	ErrNotDraft        = fmt.Errorf("%w: entry is not a draft", apperrors.ErrConflict)
)

// journalService provides draft management, validation, posting and reversal.
type journalService struct {
	accountSvc portssvc.AccountSvcFacade
	entryRepo  portsrepo.EntryRepositoryWithTx
	periodRepo portsrepo.PeriodRepositoryFacade
	publisher  events.Publisher
}

// NewJournalService creates a new JournalService.
func NewJournalService(entryRepo portsrepo.EntryRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, periodRepo portsrepo.PeriodRepositoryFacade, publisher events.Publisher) portssvc.JournalSvcFacade {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &journalService{
		accountSvc: accountSvc,
		entryRepo:  entryRepo,
		periodRepo: periodRepo,
		publisher:  publisher,
	}
}

var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// linesFromRequest materializes domain lines from a create request.
func linesFromRequest(entryID string, reqLines []dto.CreateLineRequest, now time.Time, userID string) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(reqLines))
	for i, lr := range reqLines {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			AccountID:    lr.AccountID,
			DebitAmount:  lr.DebitAmount,
			CreditAmount: lr.CreditAmount,
			Description:  lr.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}
	return lines
}

// ValidateEntry runs full structural validation of a draft without persisting anything.
func (s *journalService) ValidateEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest) (*domain.ValidationResult, error) {
	entry := domain.JournalEntry{
		BusinessID:  businessID,
		EntryDate:   req.Date,
		Description: req.Description,
	}
	lines := linesFromRequest("", req.Lines, time.Now().UTC(), "")
	result, _, err := s.validateEntry(ctx, businessID, entry, lines)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateDraftEntry persists a DRAFT entry. Drafts carry no balance effects and
// may be transiently unbalanced while being edited.
func (s *journalService) CreateDraftEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.Description == "" {
		return nil, ErrDescriptionMissing
	}
	if req.Date.IsZero() {
		return nil, ErrDateMissing
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()
	lines := linesFromRequest(entryID, req.Lines, now, creatorUserID)

	entry := domain.JournalEntry{
		EntryID:     entryID,
		BusinessID:  businessID,
		EntryDate:   req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      domain.Draft,
		Amount:      accounting.EntryAmount(lines),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.entryRepo.SaveDraft(ctx, entry, lines); err != nil {
		logger.Error("Failed to save draft entry", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to save draft entry: %w", err)
	}

	logger.Info("Draft entry created", slog.String("entry_id", entryID), slog.String("business_id", businessID))
	entry.Lines = lines
	return &entry, nil
}

// UpdateDraftEntry edits a DRAFT entry's header fields and/or replaces its lines.
// Amounts of a posted entry are immutable; corrections go through ReverseEntry.
func (s *journalService) UpdateDraftEntry(ctx context.Context, businessID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.findBusinessEntry(ctx, businessID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		return nil, ErrAlreadyPosted
	}

	now := time.Now().UTC()
	if req.Date != nil {
		entry.EntryDate = *req.Date
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.Reference != nil {
		entry.Reference = *req.Reference
	}
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	var lines []domain.JournalLine
	if req.Lines != nil {
		lines = linesFromRequest(entryID, req.Lines, now, userID)
		entry.Amount = accounting.EntryAmount(lines)
	} else {
		lines, err = s.entryRepo.FindLinesByEntryID(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("failed to load lines for draft %s: %w", entryID, err)
		}
	}

	if err := s.entryRepo.UpdateDraft(ctx, *entry, lines); err != nil {
		logger.Error("Failed to update draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to update draft entry: %w", err)
	}

	entry.Lines = lines
	return entry, nil
}

// DeleteDraftEntry removes a DRAFT entry, cascading to its lines.
func (s *journalService) DeleteDraftEntry(ctx context.Context, businessID string, entryID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.findBusinessEntry(ctx, businessID, entryID)
	if err != nil {
		return err
	}
	if entry.Status != domain.Draft {
		return ErrNotDraft
	}

	if err := s.entryRepo.DeleteDraft(ctx, entryID); err != nil {
		logger.Error("Failed to delete draft entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return fmt.Errorf("failed to delete draft entry: %w", err)
	}

	logger.Info("Draft entry deleted", slog.String("entry_id", entryID), slog.String("deleted_by", userID))
	return nil
}

// PostEntry validates a DRAFT entry and atomically transitions it to POSTED,
// applying balance deltas to every referenced account. Either the status
// transition and all balance updates succeed together, or none do.
func (s *journalService) PostEntry(ctx context.Context, businessID string, entryID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.findBusinessEntry(ctx, businessID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		return nil, ErrAlreadyPosted
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}

	result, accounts, err := s.validateEntry(ctx, businessID, *entry, lines)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		logger.Warn("Entry failed validation for posting", slog.String("entry_id", entryID), slog.Int("issues", len(result.Issues)))
		return nil, validationError(result)
	}

	balanceChanges, err := balanceChangesFor(lines, accounts)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry.Status = domain.Posted
	entry.Amount = accounting.EntryAmount(lines)
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := ensureOpenPeriodInTx(ctx, tx, s.periodRepo, entry); err != nil {
		return nil, err
	}
	if err := s.entryRepo.MarkEntryPostedInTx(ctx, tx, *entry, lines, balanceChanges); err != nil {
		logger.Error("Failed to post entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to post entry: %w", err)
	}
	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry posted", slog.String("entry_id", entryID), slog.String("business_id", businessID))
	s.publishEntryEvent(ctx, events.TopicEntryPosted, entry)
	entry.Lines = nil
	return entry, nil
}

// CreateAndPostEntry creates an entry from the request and posts it in one step.
func (s *journalService) CreateAndPostEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	now := time.Now().UTC()
	entryID := uuid.NewString()
	lines := linesFromRequest(entryID, req.Lines, now, creatorUserID)

	entry := domain.JournalEntry{
		EntryID:     entryID,
		BusinessID:  businessID,
		EntryDate:   req.Date,
		Description: req.Description,
		Reference:   req.Reference,
		Status:      domain.Posted,
		Amount:      accounting.EntryAmount(lines),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	result, accounts, err := s.validateEntry(ctx, businessID, entry, lines)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, validationError(result)
	}

	balanceChanges, err := balanceChangesFor(lines, accounts)
	if err != nil {
		return nil, err
	}

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := ensureOpenPeriodInTx(ctx, tx, s.periodRepo, &entry); err != nil {
		return nil, err
	}
	if err := s.entryRepo.SaveEntryInTx(ctx, tx, entry, lines, balanceChanges); err != nil {
		logger.Error("Failed to save posted entry", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}
	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry created and posted", slog.String("entry_id", entryID), slog.String("business_id", businessID))
	s.publishEntryEvent(ctx, events.TopicEntryPosted, &entry)
	entry.Lines = nil
	return &entry, nil
}

// ReverseEntry creates and posts a mirror of a POSTED entry (debit/credit
// swapped on every line), links it back to the original and marks the original
// REVERSED, all within a single transaction.
func (s *journalService) ReverseEntry(ctx context.Context, businessID string, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.findBusinessEntry(ctx, businessID, entryID)
	if err != nil {
		return nil, err
	}
	if original.Status == domain.Reversed {
		return nil, ErrAlreadyReversed
	}
	if original.Status != domain.Posted {
		return nil, ErrNotPosted
	}
	if original.OriginalEntryID != nil {
		return nil, fmt.Errorf("%w: cannot reverse an entry that is itself a reversal", apperrors.ErrConflict)
	}

	originalLines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines for entry %s: %w", entryID, err)
	}

	now := time.Now().UTC()
	reversalDate := now
	if req.Date != nil {
		reversalDate = *req.Date
	}

	newEntryID := uuid.NewString()
	reversingLines := make([]domain.JournalLine, len(originalLines))
	for i, orig := range originalLines {
		reversingLines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      newEntryID,
			AccountID:    orig.AccountID,
			DebitAmount:  orig.CreditAmount,
			CreditAmount: orig.DebitAmount,
			Description:  orig.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     userID,
				LastUpdatedAt: now,
				LastUpdatedBy: userID,
			},
		}
	}

	reversingEntry := domain.JournalEntry{
		EntryID:         newEntryID,
		BusinessID:      businessID,
		EntryDate:       reversalDate,
		Description:     fmt.Sprintf("Reversal of: %s", original.Description),
		Reference:       original.Reference,
		Status:          domain.Posted,
		OriginalEntryID: &original.EntryID,
		Amount:          original.Amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	result, accounts, err := s.validateEntry(ctx, businessID, reversingEntry, reversingLines)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, validationError(result)
	}

	balanceChanges, err := balanceChangesFor(reversingLines, accounts)
	if err != nil {
		return nil, err
	}

	tx, err := s.entryRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.entryRepo.Rollback(ctx, tx)

	if err := ensureOpenPeriodInTx(ctx, tx, s.periodRepo, &reversingEntry); err != nil {
		return nil, err
	}
	if err := s.entryRepo.SaveEntryInTx(ctx, tx, reversingEntry, reversingLines, balanceChanges); err != nil {
		logger.Error("Failed to save reversing entry", slog.String("error", err.Error()), slog.String("original_entry_id", entryID))
		return nil, fmt.Errorf("failed to save reversing entry: %w", err)
	}
	if err := s.entryRepo.UpdateEntryStatusAndLinksInTx(ctx, tx, original.EntryID, domain.Reversed, &newEntryID, nil, userID, now); err != nil {
		logger.Error("Failed to mark original entry reversed", slog.String("error", err.Error()), slog.String("original_entry_id", entryID))
		return nil, fmt.Errorf("failed to update original entry status: %w", err)
	}
	if err := s.entryRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	logger.Info("Entry reversed", slog.String("original_entry_id", entryID), slog.String("reversing_entry_id", newEntryID))
	s.publishEntryEvent(ctx, events.TopicEntryReversed, &reversingEntry)
	reversingEntry.Lines = nil
	return &reversingEntry, nil
}

// GetEntryByID retrieves an entry with its lines.
func (s *journalService) GetEntryByID(ctx context.Context, businessID string, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.findBusinessEntry(ctx, businessID, entryID)
	if err != nil {
		return nil, err
	}

	lines, err := s.entryRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of entries for a business.
func (s *journalService) ListEntries(ctx context.Context, businessID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entries, nextToken, err := s.entryRepo.ListEntriesByBusiness(ctx, businessID, params.Limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list entries", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to retrieve entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i])
	}

	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}

// ListLinesByAccount retrieves a paginated list of posted lines for an account.
func (s *journalService) ListLinesByAccount(ctx context.Context, businessID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	lines, nextToken, err := s.entryRepo.ListLinesByAccountID(ctx, businessID, accountID, limit, params.NextToken)
	if err != nil {
		logger.Error("Failed to list lines by account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to retrieve lines: %w", err)
	}

	return &dto.ListLinesResponse{Lines: dto.ToLineResponses(lines), NextToken: nextToken}, nil
}

// findBusinessEntry loads an entry and verifies it belongs to the business.
func (s *journalService) findBusinessEntry(ctx context.Context, businessID string, entryID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.entryRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find entry by ID", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, err
	}
	if entry.BusinessID != businessID {
		// Obscure existence of entries in other businesses
		return nil, apperrors.ErrNotFound
	}
	return entry, nil
}

// ensureOpenPeriodInTx re-checks the entry's period inside the posting
// transaction so a concurrent close cannot slip in between validation and
// commit. It first takes the advisory lock on the entry's business-month,
// serializing this posting against any close of the same month, then re-reads
// the period under a shared row lock.
func ensureOpenPeriodInTx(ctx context.Context, tx pgx.Tx, periodRepo portsrepo.PeriodRepositoryFacade, entry *domain.JournalEntry) error {
	if err := periodRepo.AcquireMonthLockInTx(ctx, tx, entry.BusinessID, entry.EntryDate); err != nil {
		return err
	}
	period, err := periodRepo.FindPeriodForDateInTx(ctx, tx, entry.BusinessID, entry.EntryDate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to lock accounting period: %w", err)
	}
	if period.Status == domain.PeriodClosed {
		exempt := (entry.IsAdjusting || entry.IsClosing) &&
			entry.AccountingPeriodID != nil && *entry.AccountingPeriodID != period.PeriodID
		if !exempt {
			return fmt.Errorf("%w: %s", ErrPeriodClosed, period.PeriodName)
		}
	}
	return nil
}

// balanceChangesFor computes per-account signed balance deltas for a set of lines.
func balanceChangesFor(lines []domain.JournalLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	accountTypes := make(map[string]domain.AccountType, len(accounts))
	for id, acc := range accounts {
		accountTypes[id] = acc.AccountType
	}
	changes, err := accounting.BalanceChanges(lines, accountTypes)
	if err != nil {
		return nil, fmt.Errorf("internal error calculating balance changes: %w", err)
	}
	return changes, nil
}

// publishEntryEvent emits a ledger event; failures are logged, never propagated.
func (s *journalService) publishEntryEvent(ctx context.Context, topic string, entry *domain.JournalEntry) {
	event := events.EntryEvent{
		EntryID:     entry.EntryID,
		BusinessID:  entry.BusinessID,
		Status:      string(entry.Status),
		EntryDate:   entry.EntryDate,
		Amount:      entry.Amount.String(),
		IsAdjusting: entry.IsAdjusting,
		IsClosing:   entry.IsClosing,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		middleware.GetLoggerFromCtx(ctx).Warn("Failed to publish ledger event", slog.String("topic", topic), slog.String("entry_id", entry.EntryID), slog.String("error", err.Error()))
	}
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
