package repositories

import (
	"context"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// EntryReader defines read operations for journal entry data.
type EntryReader interface {
	// FindEntryByID retrieves a specific journal entry by its unique identifier.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves all lines associated with a single entry ID.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListEntriesByBusiness retrieves a paginated list of entries for a business using
	// token-based pagination. It returns the entries, a token for the next page, and an error.
	ListEntriesByBusiness(ctx context.Context, businessID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)

	// ListLinesByAccountID retrieves a paginated list of posted lines for a specific account.
	ListLinesByAccountID(ctx context.Context, businessID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error)
}

// EntryWriter defines write operations for journal entry data.
type EntryWriter interface {
	// SaveDraft persists a DRAFT entry and its lines. Drafts carry no balance effects.
	SaveDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// UpdateDraft replaces a DRAFT entry's header fields and lines.
	UpdateDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// DeleteDraft removes a DRAFT entry and cascades to its lines.
	DeleteDraft(ctx context.Context, entryID string) error

	// SaveEntryInTx persists an already-validated POSTED entry with its lines inside tx,
	// locking the referenced accounts and applying their balance deltas atomically.
	SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error

	// MarkEntryPostedInTx transitions an existing DRAFT entry to POSTED inside tx,
	// stamping line running balances and applying account balance deltas atomically.
	MarkEntryPostedInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error

	// UpdateEntryStatusAndLinksInTx updates the status and reversal linkage of an entry.
	UpdateEntryStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, originalEntryID *string, updatedByUserID string, updatedAt time.Time) error
}

// EntryRepositoryFacade combines all journal-entry repository interfaces.
type EntryRepositoryFacade interface {
	EntryReader
	EntryWriter
}

// EntryRepositoryWithTx extends EntryRepositoryFacade with transaction capabilities.
type EntryRepositoryWithTx interface {
	EntryRepositoryFacade
	TransactionManager
}
