package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/utils/accounting"
)

// validateEntry runs the ordered structural checks on a draft entry. It is pure
// apart from account and period lookups and never returns validation failures
// as errors; they are collected in the result. The returned account map holds
// every account referenced by a line that exists in this business.
func (s *journalService) validateEntry(ctx context.Context, businessID string, entry domain.JournalEntry, lines []domain.JournalLine) (*domain.ValidationResult, map[string]domain.Account, error) {
	result := &domain.ValidationResult{Valid: true}

	// 1. Required header fields
	if entry.EntryDate.IsZero() {
		result.Add(domain.ValidationIssue{Code: domain.CodeMissingDate, Message: "entry date is required"})
	}
	if entry.Description == "" {
		result.Add(domain.ValidationIssue{Code: domain.CodeMissingDescription, Message: "entry description is required"})
	}

	// 2. Double-entry requires at least two legs
	if len(lines) < 2 {
		result.Add(domain.ValidationIssue{Code: domain.CodeTooFewLines, Message: "entry must have at least two lines"})
	}

	// 3. Every line references an existing, active account
	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	accounts, err := s.accountSvc.GetAccountByIDs(ctx, businessID, uniqueStrings(accountIDs))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch accounts for validation: %w", err)
	}
	for _, id := range uniqueStrings(accountIDs) {
		acc, found := accounts[id]
		if !found {
			result.Add(domain.ValidationIssue{
				Code:      domain.CodeUnknownAccount,
				Message:   fmt.Sprintf("account %s does not exist", id),
				AccountID: id,
			})
			continue
		}
		if !acc.IsActive {
			result.Add(domain.ValidationIssue{
				Code:      domain.CodeInactiveAccount,
				Message:   fmt.Sprintf("account %s is inactive", id),
				AccountID: id,
			})
		}
	}

	// 4. Exactly one non-zero side per line
	for _, line := range lines {
		debitSet := line.DebitAmount.IsPositive()
		creditSet := line.CreditAmount.IsPositive()
		switch {
		case line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative():
			result.Add(domain.ValidationIssue{
				Code:      domain.CodeNegativeAmount,
				Message:   fmt.Sprintf("line for account %s has a negative amount", line.AccountID),
				AccountID: line.AccountID,
			})
		case debitSet && creditSet:
			result.Add(domain.ValidationIssue{
				Code:      domain.CodeAmbiguousLine,
				Message:   fmt.Sprintf("line for account %s has both debit and credit amounts", line.AccountID),
				AccountID: line.AccountID,
			})
		case !debitSet && !creditSet:
			result.Add(domain.ValidationIssue{
				Code:      domain.CodeEmptyLine,
				Message:   fmt.Sprintf("line for account %s has neither debit nor credit amount", line.AccountID),
				AccountID: line.AccountID,
			})
		}
	}

	// 5. Debits equal credits within one unit of the lowest currency subdivision
	if delta := accounting.EntryDelta(lines); delta.Abs().GreaterThan(accounting.BalanceTolerance) {
		result.Add(domain.ValidationIssue{
			Code:    domain.CodeUnbalanced,
			Message: fmt.Sprintf("entry does not balance: debits exceed credits by %s", delta.String()),
			Delta:   delta,
		})
	}

	// 6. No new postings into a closed period, except adjusting/closing entries
	// that belong to a subsequent period.
	period, err := s.periodRepo.FindPeriodForDate(ctx, businessID, entry.EntryDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to resolve accounting period: %w", err)
	}
	if period != nil && period.Status == domain.PeriodClosed {
		exemptPeriodEntry := (entry.IsAdjusting || entry.IsClosing) &&
			entry.AccountingPeriodID != nil && *entry.AccountingPeriodID != period.PeriodID
		if !exemptPeriodEntry {
			result.Add(domain.ValidationIssue{
				Code:    domain.CodePeriodClosed,
				Message: fmt.Sprintf("accounting period %s is closed", period.PeriodName),
			})
		}
	}

	return result, accounts, nil
}

// validationError maps a failed validation result to the matching sentinel error.
// Every sentinel wraps apperrors.ErrValidation.
func validationError(result *domain.ValidationResult) error {
	if len(result.Issues) == 0 {
		return apperrors.ErrValidation
	}
	issue := result.Issues[0]
	switch issue.Code {
	case domain.CodeMissingDate:
		return fmt.Errorf("%w: %s", ErrDateMissing, issue.Message)
	case domain.CodeMissingDescription:
		return fmt.Errorf("%w: %s", ErrDescriptionMissing, issue.Message)
	case domain.CodeTooFewLines:
		return fmt.Errorf("%w: %s", ErrEntryMinLines, issue.Message)
	case domain.CodeUnknownAccount:
		return fmt.Errorf("%w: %s", ErrUnknownAccount, issue.Message)
	case domain.CodeInactiveAccount:
		return fmt.Errorf("%w: %s", ErrInactiveAccount, issue.Message)
	case domain.CodeAmbiguousLine:
		return fmt.Errorf("%w: %s", ErrAmbiguousLine, issue.Message)
	case domain.CodeEmptyLine:
		return fmt.Errorf("%w: %s", ErrEmptyLine, issue.Message)
	case domain.CodeNegativeAmount:
		return fmt.Errorf("%w: %s", ErrNegativeAmount, issue.Message)
	case domain.CodeUnbalanced:
		return fmt.Errorf("%w: delta is %s", ErrEntryUnbalanced, issue.Delta.String())
	case domain.CodePeriodClosed:
		return fmt.Errorf("%w: %s", ErrPeriodClosed, issue.Message)
	default:
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, issue.Message)
	}
}
