package services

import (
	"context"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
)

// JournalSvcFacade exposes draft management, validation, posting and reversal.
type JournalSvcFacade interface {
	// ValidateEntry runs the full structural validation of a draft without side effects.
	ValidateEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest) (*domain.ValidationResult, error)

	// CreateDraftEntry persists a DRAFT entry. Drafts may be transiently unbalanced.
	CreateDraftEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// UpdateDraftEntry edits a DRAFT entry's header and/or replaces its lines.
	UpdateDraftEntry(ctx context.Context, businessID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)

	// DeleteDraftEntry removes a DRAFT entry and its lines.
	DeleteDraftEntry(ctx context.Context, businessID string, entryID string, userID string) error

	// PostEntry validates a DRAFT entry and atomically transitions it to POSTED,
	// updating the referenced accounts' running balances.
	PostEntry(ctx context.Context, businessID string, entryID string, userID string) (*domain.JournalEntry, error)

	// CreateAndPostEntry creates an entry from the request and posts it in one step.
	CreateAndPostEntry(ctx context.Context, businessID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// ReverseEntry creates and posts a mirror of a POSTED entry and marks the
	// original REVERSED.
	ReverseEntry(ctx context.Context, businessID string, entryID string, req dto.ReverseEntryRequest, userID string) (*domain.JournalEntry, error)

	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, businessID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries for a business.
	ListEntries(ctx context.Context, businessID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// ListLinesByAccount retrieves a paginated list of posted lines for an account.
	ListLinesByAccount(ctx context.Context, businessID string, accountID string, params dto.ListLinesParams) (*dto.ListLinesResponse, error)
}
