package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	"github.com/finbooks-app/finbooks_backend/internal/models"
	"github.com/finbooks-app/finbooks_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `period_id, business_id, period_name, start_date, end_date, status, closed_at, closed_by, created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting period data.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (models.AccountingPeriod, error) {
	var m models.AccountingPeriod
	var closedAt sql.NullTime
	var closedBy sql.NullString

	err := row.Scan(
		&m.PeriodID,
		&m.BusinessID,
		&m.PeriodName,
		&m.StartDate,
		&m.EndDate,
		&m.Status,
		&closedAt,
		&closedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.AccountingPeriod{}, err
	}
	if closedAt.Valid {
		m.ClosedAt = &closedAt.Time
	}
	if closedBy.Valid {
		m.ClosedBy = closedBy.String
	}
	return m, nil
}

// FindPeriodByID retrieves a specific accounting period.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE period_id = $1;`

	m, err := scanPeriod(r.Pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period by ID %s: %w", periodID, err)
	}

	domainPeriod := mapping.ToDomainAccountingPeriod(m)
	return &domainPeriod, nil
}

// FindPeriodForDate retrieves the period whose date range contains the given date.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, businessID string, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE business_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC
		LIMIT 1;
	`

	m, err := scanPeriod(r.Pool.QueryRow(ctx, query, businessID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period for date %s: %w", date.Format(time.DateOnly), err)
	}

	domainPeriod := mapping.ToDomainAccountingPeriod(m)
	return &domainPeriod, nil
}

// FindPeriodForDateInTx is FindPeriodForDate with a shared row lock, so a
// concurrent close of the same period blocks until this transaction finishes.
func (r *PgxPeriodRepository) FindPeriodForDateInTx(ctx context.Context, tx pgx.Tx, businessID string, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE business_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY start_date DESC
		LIMIT 1
		FOR SHARE;
	`

	m, err := scanPeriod(tx.QueryRow(ctx, query, businessID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period for date %s: %w", date.Format(time.DateOnly), err)
	}

	domainPeriod := mapping.ToDomainAccountingPeriod(m)
	return &domainPeriod, nil
}

// AcquireMonthLockInTx takes a transaction-scoped advisory lock keyed on the
// business and the calendar month of date. A freshly inserted period row is
// invisible to concurrent transactions until commit, so row locks alone cannot
// serialize a close against postings into the same month; the advisory lock
// covers that window. Released automatically when tx ends.
func (r *PgxPeriodRepository) AcquireMonthLockInTx(ctx context.Context, tx pgx.Tx, businessID string, date time.Time) error {
	monthKey := int32(date.Year()*100 + int(date.Month()))
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), $2);`, businessID, monthKey); err != nil {
		return fmt.Errorf("failed to lock month %d for business %s: %w", monthKey, businessID, err)
	}
	return nil
}

// ListPeriods retrieves all periods for a business, newest first.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, businessID string) ([]domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE business_id = $1
		ORDER BY start_date DESC;
	`

	rows, err := r.Pool.Query(ctx, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods for business %s: %w", businessID, err)
	}
	defer rows.Close()

	periods := []models.AccountingPeriod{}
	for rows.Next() {
		m, err := scanPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period row for business %s: %w", businessID, err)
		}
		periods = append(periods, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating period rows for business %s: %w", businessID, err)
	}

	return mapping.ToDomainAccountingPeriodSlice(periods), nil
}

// SavePeriodInTx persists a new OPEN period inside tx. The inserted row stays
// locked by tx for the remainder of the close operation.
func (r *PgxPeriodRepository) SavePeriodInTx(ctx context.Context, tx pgx.Tx, period domain.AccountingPeriod) error {
	m := mapping.ToModelAccountingPeriod(period)

	query := `
		INSERT INTO accounting_periods (period_id, business_id, period_name, start_date, end_date, status, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := tx.Exec(ctx, query,
		m.PeriodID,
		m.BusinessID,
		m.PeriodName,
		m.StartDate,
		m.EndDate,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, m.PeriodName)
		}
		return fmt.Errorf("failed to insert period %s: %w", m.PeriodID, err)
	}
	return nil
}

// MarkPeriodClosedInTx transitions a period to CLOSED inside tx.
func (r *PgxPeriodRepository) MarkPeriodClosedInTx(ctx context.Context, tx pgx.Tx, periodID string, closedBy string, closedAt time.Time) error {
	query := `
		UPDATE accounting_periods
		SET status = 'CLOSED', closed_at = $2, closed_by = $3, last_updated_at = $2, last_updated_by = $3
		WHERE period_id = $1 AND status = 'OPEN';
	`

	cmdTag, err := tx.Exec(ctx, query, periodID, closedAt, closedBy)
	if err != nil {
		return fmt.Errorf("failed to mark period %s closed: %w", periodID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: period %s is not open", apperrors.ErrConflict, periodID)
	}
	return nil
}
