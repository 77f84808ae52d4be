package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks-app/finbooks_backend/internal/models"
	"github.com/finbooks-app/finbooks_backend/internal/utils/accounting"
	"github.com/finbooks-app/finbooks_backend/internal/utils/mapping"
	"github.com/finbooks-app/finbooks_backend/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const entryColumns = `entry_id, business_id, entry_date, description, reference, status, is_adjusting, is_closing, accounting_period_id, original_entry_id, reversing_entry_id, amount, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, account_id, debit_amount, credit_amount, description, created_at, created_by, last_updated_at, last_updated_by, running_balance`

type PgxEntryRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountRepositoryFacade
}

// newPgxEntryRepository creates a new repository for journal entry and line data.
func newPgxEntryRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountRepositoryFacade) portsrepo.EntryRepositoryWithTx {
	return &PgxEntryRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

var _ portsrepo.EntryRepositoryWithTx = (*PgxEntryRepository)(nil)

// scanEntry scans a single entry row into a model, handling nullable columns.
func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	var reference sql.NullString
	var periodID, originalID, reversingID sql.NullString

	err := row.Scan(
		&m.EntryID,
		&m.BusinessID,
		&m.EntryDate,
		&m.Description,
		&reference,
		&m.Status,
		&m.IsAdjusting,
		&m.IsClosing,
		&periodID,
		&originalID,
		&reversingID,
		&m.Amount,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.JournalEntry{}, err
	}

	if reference.Valid {
		m.Reference = reference.String
	}
	if periodID.Valid {
		m.AccountingPeriodID = &periodID.String
	}
	if originalID.Valid {
		m.OriginalEntryID = &originalID.String
	}
	if reversingID.Valid {
		m.ReversingEntryID = &reversingID.String
	}
	return m, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

const insertEntryQuery = `
	INSERT INTO journal_entries (` + entryColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
`

func entryInsertArgs(m models.JournalEntry) []any {
	return []any{
		m.EntryID,
		m.BusinessID,
		m.EntryDate,
		m.Description,
		nullableString(m.Reference),
		m.Status,
		m.IsAdjusting,
		m.IsClosing,
		m.AccountingPeriodID,
		m.OriginalEntryID,
		m.ReversingEntryID,
		m.Amount,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	}
}

const insertLineQuery = `
	INSERT INTO journal_lines (` + lineColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
`

func lineInsertArgs(m models.JournalLine) []any {
	return []any{
		m.LineID,
		m.EntryID,
		m.AccountID,
		m.DebitAmount,
		m.CreditAmount,
		m.Description,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.RunningBalance,
	}
}

// SaveDraft persists a DRAFT entry and its lines. Drafts never touch account balances.
func (r *PgxEntryRepository) SaveDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	modelEntry := mapping.ToModelJournalEntry(entry)
	if _, err := tx.Exec(ctx, insertEntryQuery, entryInsertArgs(modelEntry)...); err != nil {
		return fmt.Errorf("failed to insert draft entry %s: %w", modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(insertLineQuery, lineInsertArgs(mapping.ToModelJournalLine(line))...)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for draft entry %s: %w", modelEntry.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// UpdateDraft replaces a DRAFT entry's header fields and lines.
func (r *PgxEntryRepository) UpdateDraft(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	modelEntry := mapping.ToModelJournalEntry(entry)
	updateQuery := `
		UPDATE journal_entries
		SET entry_date = $2, description = $3, reference = $4, amount = $5, last_updated_at = $6, last_updated_by = $7
		WHERE entry_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, updateQuery,
		modelEntry.EntryID,
		modelEntry.EntryDate,
		modelEntry.Description,
		nullableString(modelEntry.Reference),
		modelEntry.Amount,
		modelEntry.LastUpdatedAt,
		modelEntry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft entry %s: %w", modelEntry.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("draft entry " + modelEntry.EntryID + " not found for update")
	}

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, modelEntry.EntryID); err != nil {
		return fmt.Errorf("failed to clear lines for draft entry %s: %w", modelEntry.EntryID, err)
	}

	batch := &pgx.Batch{}
	for _, line := range lines {
		batch.Queue(insertLineQuery, lineInsertArgs(mapping.ToModelJournalLine(line))...)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for draft entry %s: %w", modelEntry.EntryID, err)
	}

	return r.Commit(ctx, tx)
}

// DeleteDraft removes a DRAFT entry and its lines.
func (r *PgxEntryRepository) DeleteDraft(ctx context.Context, entryID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, entryID); err != nil {
		return fmt.Errorf("failed to delete lines for draft entry %s: %w", entryID, err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1 AND status = 'DRAFT';`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete draft entry %s: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("draft entry " + entryID + " not found for delete")
	}

	return r.Commit(ctx, tx)
}

// SaveEntryInTx persists an already-validated POSTED entry with its lines inside tx,
// locking the referenced accounts and applying their balance deltas atomically.
func (r *PgxEntryRepository) SaveEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	modelEntry := mapping.ToModelJournalEntry(entry)
	if _, err := tx.Exec(ctx, insertEntryQuery, entryInsertArgs(modelEntry)...); err != nil {
		return fmt.Errorf("failed to insert entry %s: %w", modelEntry.EntryID, err)
	}

	lockedAccounts, err := r.lockAndApplyBalances(ctx, tx, entry, balanceChanges)
	if err != nil {
		return err
	}

	stampedLines, err := stampRunningBalances(lines, lockedAccounts)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, line := range stampedLines {
		batch.Queue(insertLineQuery, lineInsertArgs(mapping.ToModelJournalLine(line))...)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for entry %s: %w", modelEntry.EntryID, err)
	}

	return nil
}

// MarkEntryPostedInTx transitions an existing DRAFT entry to POSTED inside tx,
// stamping line running balances and applying account balance deltas atomically.
func (r *PgxEntryRepository) MarkEntryPostedInTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, balanceChanges map[string]decimal.Decimal) error {
	query := `
		UPDATE journal_entries
		SET status = 'POSTED', amount = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, query, entry.EntryID, entry.Amount, entry.LastUpdatedAt, entry.LastUpdatedBy)
	if err != nil {
		return fmt.Errorf("failed to mark entry %s posted: %w", entry.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is not a draft", apperrors.ErrConflict, entry.EntryID)
	}

	lockedAccounts, err := r.lockAndApplyBalances(ctx, tx, entry, balanceChanges)
	if err != nil {
		return err
	}

	stampedLines, err := stampRunningBalances(lines, lockedAccounts)
	if err != nil {
		return err
	}

	lineQuery := `
		UPDATE journal_lines
		SET running_balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE line_id = $1;
	`
	batch := &pgx.Batch{}
	for _, line := range stampedLines {
		batch.Queue(lineQuery, line.LineID, line.RunningBalance, entry.LastUpdatedAt, entry.LastUpdatedBy)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to stamp running balances for entry %s: %w", entry.EntryID, err)
	}

	return nil
}

// lockAndApplyBalances locks every affected account row and applies the deltas.
func (r *PgxEntryRepository) lockAndApplyBalances(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, balanceChanges map[string]decimal.Decimal) (map[string]domain.Account, error) {
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	// Deterministic lock order avoids deadlocks between concurrent postings.
	sort.Strings(accountIDs)

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accounts for entry %s: %w", entry.EntryID, err)
	}

	if err := r.accountRepo.UpdateAccountBalancesInTx(ctx, tx, balanceChanges, entry.LastUpdatedBy, entry.LastUpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update account balances for entry %s: %w", entry.EntryID, err)
	}

	return lockedAccounts, nil
}

// stampRunningBalances computes each line's post-line account balance, starting
// from the balances captured before this entry's deltas were applied.
func stampRunningBalances(lines []domain.JournalLine, lockedAccounts map[string]domain.Account) ([]domain.JournalLine, error) {
	current := make(map[string]decimal.Decimal, len(lockedAccounts))
	for id, acc := range lockedAccounts {
		current[id] = acc.Balance
	}

	stamped := make([]domain.JournalLine, len(lines))
	copy(stamped, lines)
	sort.Slice(stamped, func(i, j int) bool {
		return stamped[i].LineID < stamped[j].LineID
	})

	for i := range stamped {
		account, ok := lockedAccounts[stamped[i].AccountID]
		if !ok {
			return nil, fmt.Errorf("internal error: locked account %s not found while stamping running balances", stamped[i].AccountID)
		}
		signed, err := accounting.SignedAmount(stamped[i], account.AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate signed amount for line %s: %w", stamped[i].LineID, err)
		}
		next := current[stamped[i].AccountID].Add(signed)
		stamped[i].RunningBalance = next
		current[stamped[i].AccountID] = next
	}

	return stamped, nil
}

// UpdateEntryStatusAndLinksInTx updates the status and reversal linkage of an entry inside tx.
func (r *PgxEntryRepository) UpdateEntryStatusAndLinksInTx(ctx context.Context, tx pgx.Tx, entryID string, status domain.EntryStatus, reversingEntryID *string, originalEntryID *string, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $2,
		    reversing_entry_id = $3,
		    original_entry_id = COALESCE($4, original_entry_id),
		    last_updated_at = $5,
		    last_updated_by = $6
		WHERE entry_id = $1;
	`

	cmdTag, err := tx.Exec(ctx, query,
		entryID,
		status,
		reversingEntryID,
		originalEntryID,
		updatedAt,
		updatedByUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update entry status/links for %s: %w", entryID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("entry " + entryID + " not found for update")
	}

	return nil
}

// FindEntryByID retrieves an entry by its ID.
func (r *PgxEntryRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE entry_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entry by ID %s: %w", entryID, err)
	}

	domainEntry := mapping.ToDomainJournalEntry(m)
	return &domainEntry, nil
}

// FindLinesByEntryID retrieves all lines associated with a single entry ID.
func (r *PgxEntryRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + lineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	lines := []models.JournalLine{}
	for rows.Next() {
		var m models.JournalLine
		var runningBalance *decimal.Decimal

		if err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.DebitAmount,
			&m.CreditAmount,
			&m.Description,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&runningBalance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line row for entry %s: %w", entryID, err)
		}
		if runningBalance != nil {
			m.RunningBalance = *runningBalance
		}
		lines = append(lines, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for entry %s: %w", entryID, err)
	}

	return mapping.ToDomainJournalLineSlice(lines), nil
}

// ListEntriesByBusiness retrieves a paginated list of entries for a business using
// token-based pagination. Ordering is entry_date DESC with created_at as tie-breaker.
func (r *PgxEntryRepository) ListEntriesByBusiness(ctx context.Context, businessID string, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine whether a next page exists.
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + entryColumns + ` FROM journal_entries`
	filterClause := `WHERE business_id = $1`
	if !includeReversals {
		filterClause += ` AND status != 'REVERSED' AND reversing_entry_id IS NULL AND original_entry_id IS NULL`
	}
	orderByClause := `ORDER BY entry_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []any{businessID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (entry_date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + filterClause + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + filterClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to query entries for business %s: %w", businessID, err)
	}
	defer rows.Close()

	modelEntries := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan entry row for business %s: %w", businessID, scanErr)
		}
		modelEntries = append(modelEntries, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating entry rows for business %s: %w", businessID, err)
	}

	var nextTokenVal *string
	results := modelEntries
	if len(modelEntries) > limit {
		lastEntry := modelEntries[limit-1]
		newToken := pagination.EncodeToken(lastEntry.EntryDate, lastEntry.CreatedAt)
		nextTokenVal = &newToken
		results = modelEntries[:limit]
	}

	domainEntries := make([]domain.JournalEntry, len(results))
	for i, m := range results {
		domainEntries[i] = mapping.ToDomainJournalEntry(m)
	}

	return domainEntries, nextTokenVal, nil
}

// ListLinesByAccountID retrieves a paginated list of posted, non-reversal lines for an account.
func (r *PgxEntryRepository) ListLinesByAccountID(ctx context.Context, businessID, accountID string, limit int, nextToken *string) ([]domain.JournalLine, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT l.line_id, l.entry_id, l.account_id, l.debit_amount, l.credit_amount, l.description,
		       l.created_at, l.created_by, l.last_updated_at, l.last_updated_by, l.running_balance,
		       e.entry_date, e.description
		FROM journal_lines l
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE l.account_id = $1 AND e.business_id = $2 AND e.status = 'POSTED' AND e.original_entry_id IS NULL
	`
	orderByClause := `ORDER BY e.entry_date DESC, l.created_at DESC`

	var rows pgx.Rows
	var err error
	args := []any{accountID, businessID}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := `AND (e.entry_date, l.created_at) < ($3, $4)`
		args = append(args, lastDate, lastCreatedAt)

		query := baseQuery + " " + cursorClause + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to query lines for account %s in business %s: %w", accountID, businessID, err)
	}
	defer rows.Close()

	modelLines := make([]models.JournalLine, 0, fetchLimit)
	for rows.Next() {
		var m models.JournalLine
		var runningBalance *decimal.Decimal

		if err := rows.Scan(
			&m.LineID,
			&m.EntryID,
			&m.AccountID,
			&m.DebitAmount,
			&m.CreditAmount,
			&m.Description,
			&m.CreatedAt,
			&m.CreatedBy,
			&m.LastUpdatedAt,
			&m.LastUpdatedBy,
			&runningBalance,
			&m.EntryDate,
			&m.EntryDescription,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to scan line row for account %s: %w", accountID, err)
		}
		if runningBalance != nil {
			m.RunningBalance = *runningBalance
		}
		modelLines = append(modelLines, m)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating line rows for account %s: %w", accountID, err)
	}

	var nextTokenVal *string
	results := modelLines
	if len(modelLines) > limit {
		lastLine := modelLines[limit-1]
		newToken := pagination.EncodeToken(lastLine.EntryDate, lastLine.CreatedAt)
		nextTokenVal = &newToken
		results = modelLines[:limit]
	}

	return mapping.ToDomainJournalLineSlice(results), nextTokenVal, nil
}
