package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements aggregation queries over posted ledger data.
type reportingRepository struct {
	BaseRepository
}

// newReportingRepository creates a new reporting repository
func newReportingRepository(db *pgxpool.Pool) portsrepo.ReportingRepository {
	return &reportingRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// GetTrialBalanceData retrieves per-account debit/credit totals over POSTED lines
// dated up to and including asOf. Reversals and their originals both stay in the
// totals; they cancel arithmetically.
func (r *reportingRepository) GetTrialBalanceData(ctx context.Context, businessID string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT
			a.account_id,
			a.code,
			a.name,
			a.account_type,
			COALESCE(SUM(l.debit_amount), 0) AS total_debit,
			COALESCE(SUM(l.credit_amount), 0) AS total_credit
		FROM journal_lines l
		JOIN accounts a ON l.account_id = a.account_id
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE e.entry_date <= $1
			AND a.business_id = $2
			AND e.status IN ('POSTED', 'REVERSED')
		GROUP BY a.account_id, a.code, a.name, a.account_type
		ORDER BY a.code
	`

	rows, err := r.Pool.Query(ctx, query, asOf, businessID)
	if err != nil {
		return nil, fmt.Errorf("error querying trial balance data: %w", err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string

		if err := rows.Scan(
			&row.AccountID,
			&row.AccountCode,
			&row.AccountName,
			&accountType,
			&row.Debit,
			&row.Credit,
		); err != nil {
			return nil, fmt.Errorf("error scanning trial balance row: %w", err)
		}

		row.AccountType = domain.AccountType(accountType)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial balance rows: %w", err)
	}

	return result, nil
}

// GetProfitAndLossData retrieves net amounts for revenue and expense accounts
// over the given date range, signed so that increases are positive.
func (r *reportingRepository) GetProfitAndLossData(ctx context.Context, businessID string, from, to time.Time) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_type,
			a.account_id,
			a.name,
			COALESCE(SUM(l.debit_amount - l.credit_amount), 0) AS net
		FROM journal_lines l
		JOIN accounts a ON l.account_id = a.account_id
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE e.entry_date BETWEEN $1 AND $2
			AND a.business_id = $3
			AND e.status IN ('POSTED', 'REVERSED')
			AND e.is_closing = FALSE
			AND a.account_type IN ('REVENUE', 'EXPENSE')
		GROUP BY a.account_type, a.account_id, a.name
		ORDER BY a.name
	`

	rows, err := r.Pool.Query(ctx, query, from, to, businessID)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying profit and loss data: %w", err)
	}
	defer rows.Close()

	revenue := []domain.AccountAmount{}
	expenses := []domain.AccountAmount{}

	for rows.Next() {
		var accountType, accountID, name string
		var netAmount decimal.Decimal

		if err := rows.Scan(&accountType, &accountID, &name, &netAmount); err != nil {
			return nil, nil, fmt.Errorf("error scanning profit and loss row: %w", err)
		}

		accountAmount := domain.AccountAmount{
			AccountID: accountID,
			Name:      name,
		}

		switch accountType {
		case string(domain.Revenue):
			// Revenue is credit-normal, so flip the debit-minus-credit net.
			accountAmount.NetAmount = netAmount.Neg()
			revenue = append(revenue, accountAmount)
		case string(domain.Expense):
			accountAmount.NetAmount = netAmount
			expenses = append(expenses, accountAmount)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating profit and loss rows: %w", err)
	}

	return revenue, expenses, nil
}

// GetBalanceSheetData retrieves net amounts for asset, liability and equity accounts as of a date.
func (r *reportingRepository) GetBalanceSheetData(ctx context.Context, businessID string, asOf time.Time) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_type,
			a.account_id,
			a.name,
			COALESCE(SUM(l.debit_amount - l.credit_amount), 0) AS net
		FROM journal_lines l
		JOIN accounts a ON l.account_id = a.account_id
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE e.entry_date <= $1
			AND a.business_id = $2
			AND e.status IN ('POSTED', 'REVERSED')
			AND a.account_type IN ('ASSET', 'LIABILITY', 'EQUITY')
		GROUP BY a.account_type, a.account_id, a.name
		ORDER BY a.name
	`

	rows, err := r.Pool.Query(ctx, query, asOf, businessID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error querying balance sheet data: %w", err)
	}
	defer rows.Close()

	assets := []domain.AccountAmount{}
	liabilities := []domain.AccountAmount{}
	equity := []domain.AccountAmount{}

	for rows.Next() {
		var accountType, accountID, name string
		var netAmount decimal.Decimal

		if err := rows.Scan(&accountType, &accountID, &name, &netAmount); err != nil {
			return nil, nil, nil, fmt.Errorf("error scanning balance sheet row: %w", err)
		}

		accountAmount := domain.AccountAmount{
			AccountID: accountID,
			Name:      name,
			NetAmount: netAmount,
		}

		switch accountType {
		case string(domain.Asset):
			assets = append(assets, accountAmount)
		case string(domain.Liability):
			accountAmount.NetAmount = netAmount.Neg()
			liabilities = append(liabilities, accountAmount)
		case string(domain.Equity):
			accountAmount.NetAmount = netAmount.Neg()
			equity = append(equity, accountAmount)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("error iterating balance sheet rows: %w", err)
	}

	return assets, liabilities, equity, nil
}

// GetAccountBalanceAsOf recomputes an account's balance by aggregating all
// POSTED lines up to and including asOf, signed per the account's normal balance.
func (r *reportingRepository) GetAccountBalanceAsOf(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	query := `
		SELECT
			a.account_type,
			COALESCE(SUM(l.debit_amount - l.credit_amount), 0) AS net
		FROM accounts a
		LEFT JOIN journal_lines l ON l.account_id = a.account_id
		LEFT JOIN journal_entries e ON l.entry_id = e.entry_id AND e.entry_date <= $2 AND e.status IN ('POSTED', 'REVERSED')
		WHERE a.account_id = $1
		GROUP BY a.account_type
	`

	var accountType string
	var net decimal.Decimal
	if err := r.Pool.QueryRow(ctx, query, accountID, asOf).Scan(&accountType, &net); err != nil {
		return decimal.Zero, fmt.Errorf("error aggregating balance for account %s: %w", accountID, err)
	}

	return signNetForType(net, domain.AccountType(accountType)), nil
}

// GetAccountBalancesByTypeInTx returns signed balances per active account of the
// given type as of a date, reading through tx so entries posted earlier in the
// same transaction are visible.
func (r *reportingRepository) GetAccountBalancesByTypeInTx(ctx context.Context, tx pgx.Tx, businessID string, accountType domain.AccountType, asOf time.Time) ([]domain.AccountAmount, error) {
	query := `
		SELECT
			a.account_id,
			a.name,
			COALESCE(SUM(l.debit_amount - l.credit_amount), 0) AS net
		FROM accounts a
		LEFT JOIN journal_lines l ON l.account_id = a.account_id
		LEFT JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE a.business_id = $1
			AND a.account_type = $2
			AND a.is_active = TRUE
			AND (e.entry_id IS NULL OR (e.entry_date <= $3 AND e.status IN ('POSTED', 'REVERSED')))
		GROUP BY a.account_id, a.name
		ORDER BY a.name
	`

	rows, err := tx.Query(ctx, query, businessID, string(accountType), asOf)
	if err != nil {
		return nil, fmt.Errorf("error querying %s balances: %w", accountType, err)
	}
	defer rows.Close()

	balances := []domain.AccountAmount{}
	for rows.Next() {
		var amount domain.AccountAmount
		var net decimal.Decimal

		if err := rows.Scan(&amount.AccountID, &amount.Name, &net); err != nil {
			return nil, fmt.Errorf("error scanning %s balance row: %w", accountType, err)
		}

		amount.NetAmount = signNetForType(net, accountType)
		balances = append(balances, amount)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s balance rows: %w", accountType, err)
	}

	return balances, nil
}

// signNetForType converts a raw debit-minus-credit net into a balance signed per
// the account type's normal-balance convention.
func signNetForType(net decimal.Decimal, accountType domain.AccountType) decimal.Decimal {
	if normal, ok := accountType.NormalBalance(); ok && normal == domain.CreditSide {
		return net.Neg()
	}
	return net
}
