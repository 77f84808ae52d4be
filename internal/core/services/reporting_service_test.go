package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ReportingServiceTestSuite struct {
	suite.Suite
	mockReportingRepo *MockReportingRepository
	service           portssvc.ReportingSvcFacade
	businessID        string
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.service = services.NewReportingService(suite.mockReportingRepo)
	suite.businessID = uuid.NewString()
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_CollapsesToNetPerColumn() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	raw := []domain.TrialBalanceRow{
		// Cash was debited 1000 and credited 300: nets to a 700 debit.
		{AccountID: "cash", AccountCode: "1000", AccountName: "Cash", AccountType: domain.Asset,
			Debit: decimal.NewFromInt(1000), Credit: decimal.NewFromInt(300)},
		// Sales was credited 800 and debited 100: nets to a 700 credit.
		{AccountID: "sales", AccountCode: "4000", AccountName: "Sales Revenue", AccountType: domain.Revenue,
			Debit: decimal.NewFromInt(100), Credit: decimal.NewFromInt(800)},
		// Fully offset account drops out of the report.
		{AccountID: "clearing", AccountCode: "1090", AccountName: "Clearing", AccountType: domain.Asset,
			Debit: decimal.NewFromInt(50), Credit: decimal.NewFromInt(50)},
	}

	suite.mockReportingRepo.On("GetTrialBalanceData", ctx, suite.businessID, asOf).Return(raw, nil).Once()

	rows, err := suite.service.TrialBalance(ctx, suite.businessID, asOf)

	suite.Require().NoError(err)
	suite.Require().Len(rows, 2)

	suite.Equal("cash", rows[0].AccountID)
	suite.True(rows[0].Debit.Equal(decimal.NewFromInt(700)))
	suite.True(rows[0].Credit.IsZero())

	suite.Equal("sales", rows[1].AccountID)
	suite.True(rows[1].Debit.IsZero())
	suite.True(rows[1].Credit.Equal(decimal.NewFromInt(700)))
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_OutOfBalanceIsAnError() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	// A lone debit total with no offsetting credit means the ledger is corrupt.
	raw := []domain.TrialBalanceRow{
		{AccountID: "cash", AccountCode: "1000", AccountName: "Cash", AccountType: domain.Asset,
			Debit: decimal.NewFromInt(1000), Credit: decimal.Zero},
	}

	suite.mockReportingRepo.On("GetTrialBalanceData", ctx, suite.businessID, asOf).Return(raw, nil).Once()

	_, err := suite.service.TrialBalance(ctx, suite.businessID, asOf)

	suite.Require().Error(err)
	suite.Contains(err.Error(), "out of balance")
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_ZeroAsOfDefaultsToNow() {
	ctx := context.Background()

	suite.mockReportingRepo.On("GetTrialBalanceData", ctx, suite.businessID,
		mock.MatchedBy(func(asOf time.Time) bool { return !asOf.IsZero() })).
		Return([]domain.TrialBalanceRow{}, nil).Once()

	rows, err := suite.service.TrialBalance(ctx, suite.businessID, time.Time{})

	suite.Require().NoError(err)
	suite.Empty(rows)
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ReportingServiceTestSuite) TestProfitAndLoss_NetProfit() {
	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	revenue := []domain.AccountAmount{
		{AccountID: "sales", Name: "Sales Revenue", NetAmount: decimal.NewFromInt(10000)},
	}
	expenses := []domain.AccountAmount{
		{AccountID: "rent", Name: "Rent Expense", NetAmount: decimal.NewFromInt(4000)},
		{AccountID: "wages", Name: "Wages Expense", NetAmount: decimal.NewFromInt(2000)},
	}

	suite.mockReportingRepo.On("GetProfitAndLossData", ctx, suite.businessID, from, to).
		Return(revenue, expenses, nil).Once()

	report, err := suite.service.ProfitAndLoss(ctx, suite.businessID, from, to)

	suite.Require().NoError(err)
	suite.True(report.NetProfit.Equal(decimal.NewFromInt(4000)))
	suite.Len(report.Revenue, 1)
	suite.Len(report.Expenses, 2)
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_Totals() {
	ctx := context.Background()
	asOf := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	assets := []domain.AccountAmount{
		{AccountID: "cash", Name: "Cash", NetAmount: decimal.NewFromInt(7000)},
		{AccountID: "ar", Name: "Accounts Receivable", NetAmount: decimal.NewFromInt(3000)},
	}
	liabilities := []domain.AccountAmount{
		{AccountID: "ap", Name: "Accounts Payable", NetAmount: decimal.NewFromInt(4000)},
	}
	equity := []domain.AccountAmount{
		{AccountID: "re", Name: "Retained Earnings", NetAmount: decimal.NewFromInt(6000)},
	}

	suite.mockReportingRepo.On("GetBalanceSheetData", ctx, suite.businessID, asOf).
		Return(assets, liabilities, equity, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.businessID, asOf)

	suite.Require().NoError(err)
	suite.True(report.TotalAssets.Equal(decimal.NewFromInt(10000)))
	suite.True(report.TotalLiabilities.Equal(decimal.NewFromInt(4000)))
	suite.True(report.TotalEquity.Equal(decimal.NewFromInt(6000)))
	// The accounting equation holds: assets = liabilities + equity.
	suite.True(report.TotalAssets.Equal(report.TotalLiabilities.Add(report.TotalEquity)))
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
