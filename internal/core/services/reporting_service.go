package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
)

// reportingService derives reports from posted ledger data.
type reportingService struct {
	reportingRepo portsrepo.ReportingRepository
}

// NewReportingService creates a new ReportingService.
func NewReportingService(reportingRepo portsrepo.ReportingRepository) portssvc.ReportingSvcFacade {
	return &reportingService{reportingRepo: reportingRepo}
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// TrialBalance collapses each account's posted debit and credit totals into a
// single net amount, placed in the column matching the account's normal balance
// or the opposite column when the net is contrary. Total debits always equal
// total credits because every posted entry balances; a mismatch indicates
// ledger corruption and is surfaced as an error rather than a report.
func (s *reportingService) TrialBalance(ctx context.Context, businessID string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	rawRows, err := s.reportingRepo.GetTrialBalanceData(ctx, businessID, asOf)
	if err != nil {
		logger.Error("Failed to aggregate trial balance", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to aggregate trial balance: %w", err)
	}

	rows := make([]domain.TrialBalanceRow, 0, len(rawRows))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero

	for _, raw := range rawRows {
		net := raw.Debit.Sub(raw.Credit)
		if net.IsZero() {
			continue
		}

		row := domain.TrialBalanceRow{
			AccountID:   raw.AccountID,
			AccountCode: raw.AccountCode,
			AccountName: raw.AccountName,
			AccountType: raw.AccountType,
		}
		if net.IsPositive() {
			row.Debit = net
			totalDebit = totalDebit.Add(net)
		} else {
			row.Credit = net.Neg()
			totalCredit = totalCredit.Add(net.Neg())
		}
		rows = append(rows, row)
	}

	if !totalDebit.Equal(totalCredit) {
		logger.Error("Trial balance does not balance",
			slog.String("business_id", businessID),
			slog.String("total_debit", totalDebit.String()),
			slog.String("total_credit", totalCredit.String()))
		return nil, fmt.Errorf("trial balance out of balance: debits %s, credits %s", totalDebit, totalCredit)
	}

	return rows, nil
}

// ProfitAndLoss reports net revenue and expense amounts for a date range.
func (s *reportingService) ProfitAndLoss(ctx context.Context, businessID string, from, to time.Time) (*domain.PAndLReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if to.IsZero() {
		to = time.Now().UTC()
	}

	revenue, expenses, err := s.reportingRepo.GetProfitAndLossData(ctx, businessID, from, to)
	if err != nil {
		logger.Error("Failed to aggregate profit and loss", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to aggregate profit and loss: %w", err)
	}

	report := &domain.PAndLReport{
		Revenue:  revenue,
		Expenses: expenses,
	}
	totalRevenue := sumAmounts(revenue)
	totalExpenses := sumAmounts(expenses)
	report.NetProfit = totalRevenue.Sub(totalExpenses)

	return report, nil
}

// BalanceSheet reports asset, liability and equity positions as of a date.
func (s *reportingService) BalanceSheet(ctx context.Context, businessID string, asOf time.Time) (*domain.BalanceSheetReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	assets, liabilities, equity, err := s.reportingRepo.GetBalanceSheetData(ctx, businessID, asOf)
	if err != nil {
		logger.Error("Failed to aggregate balance sheet", slog.String("error", err.Error()), slog.String("business_id", businessID))
		return nil, fmt.Errorf("failed to aggregate balance sheet: %w", err)
	}

	return &domain.BalanceSheetReport{
		Assets:           assets,
		Liabilities:      liabilities,
		Equity:           equity,
		TotalAssets:      sumAmounts(assets),
		TotalLiabilities: sumAmounts(liabilities),
		TotalEquity:      sumAmounts(equity),
	}, nil
}

func sumAmounts(amounts []domain.AccountAmount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.NetAmount)
	}
	return total
}
