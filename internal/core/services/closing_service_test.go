package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/apperrors"
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/core/services"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ClosingServiceTestSuite struct {
	suite.Suite
	mockEntryRepo     *MockEntryRepository
	mockAccountSvc    *MockAccountService
	mockPeriodRepo    *MockPeriodRepository
	mockReportingRepo *MockReportingRepository
	service           portssvc.ClosingSvcFacade
	salesAccount      domain.Account
	rentAccount       domain.Account
	incomeSummary     domain.Account
	retainedEarnings  domain.Account
	businessID        string
	userID            string
}

func (suite *ClosingServiceTestSuite) SetupTest() {
	suite.mockEntryRepo = new(MockEntryRepository)
	suite.mockAccountSvc = new(MockAccountService)
	suite.mockPeriodRepo = new(MockPeriodRepository)
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.service = services.NewClosingService(suite.mockEntryRepo, suite.mockAccountSvc, suite.mockPeriodRepo, suite.mockReportingRepo, nil)

	suite.businessID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.salesAccount = domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Code:        "4000",
		Name:        "Sales Revenue",
		AccountType: domain.Revenue,
		IsActive:    true,
	}
	suite.rentAccount = domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Code:        "5000",
		Name:        "Rent Expense",
		AccountType: domain.Expense,
		IsActive:    true,
	}
	suite.incomeSummary = domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Code:        "3900",
		Name:        "Income Summary",
		AccountType: domain.Equity,
		Role:        domain.RoleIncomeSummary,
		IsActive:    true,
	}
	suite.retainedEarnings = domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Code:        "3800",
		Name:        "Retained Earnings",
		AccountType: domain.Equity,
		Role:        domain.RoleRetainedEarnings,
		IsActive:    true,
	}
}

func (suite *ClosingServiceTestSuite) allAccounts() map[string]domain.Account {
	return map[string]domain.Account{
		suite.salesAccount.AccountID:     suite.salesAccount,
		suite.rentAccount.AccountID:      suite.rentAccount,
		suite.incomeSummary.AccountID:    suite.incomeSummary,
		suite.retainedEarnings.AccountID: suite.retainedEarnings,
	}
}

func (suite *ClosingServiceTestSuite) TestClosePeriod_FullCycle() {
	ctx := context.Background()
	endDate := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, suite.businessID, endDate).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleIncomeSummary, mock.AnythingOfType("string")).
		Return(&suite.incomeSummary, nil).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleRetainedEarnings, mock.AnythingOfType("string")).
		Return(&suite.retainedEarnings, nil).Once()

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	suite.mockPeriodRepo.On("AcquireMonthLockInTx", ctx, mock.Anything, suite.businessID, endDate).Return(nil).Once()
	suite.mockPeriodRepo.On("FindPeriodForDateInTx", ctx, mock.Anything, suite.businessID, endDate).
		Return(nil, apperrors.ErrNotFound).Once()

	suite.mockPeriodRepo.On("SavePeriodInTx", ctx, mock.Anything,
		mock.MatchedBy(func(p domain.AccountingPeriod) bool {
			return p.PeriodName == "March 2026" &&
				p.StartDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
				p.Status == domain.PeriodOpen
		})).Return(nil).Once()

	// Revenue earned 10000, expenses incurred 6000.
	suite.mockReportingRepo.On("GetAccountBalancesByTypeInTx", ctx, mock.Anything, suite.businessID, domain.Revenue, endDate).
		Return([]domain.AccountAmount{
			{AccountID: suite.salesAccount.AccountID, Name: suite.salesAccount.Name, NetAmount: decimal.NewFromInt(10000)},
		}, nil).Once()
	suite.mockReportingRepo.On("GetAccountBalancesByTypeInTx", ctx, mock.Anything, suite.businessID, domain.Expense, endDate).
		Return([]domain.AccountAmount{
			{AccountID: suite.rentAccount.AccountID, Name: suite.rentAccount.Name, NetAmount: decimal.NewFromInt(6000)},
		}, nil).Once()

	suite.mockAccountSvc.On("GetAccountByIDs", ctx, suite.businessID, mock.Anything).
		Return(suite.allAccounts(), nil)

	// Closing revenue: debit Sales 10000, credit Income Summary 10000.
	suite.mockEntryRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(e domain.JournalEntry) bool { return e.IsClosing }),
		mock.AnythingOfType("[]domain.JournalLine"),
		mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
			delta, ok := changes[suite.salesAccount.AccountID]
			return ok && delta.Equal(decimal.NewFromInt(-10000)) &&
				changes[suite.incomeSummary.AccountID].Equal(decimal.NewFromInt(10000))
		})).Return(nil).Once()

	// Closing expenses: credit Rent 6000, debit Income Summary 6000.
	suite.mockEntryRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(e domain.JournalEntry) bool { return e.IsClosing }),
		mock.AnythingOfType("[]domain.JournalLine"),
		mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
			delta, ok := changes[suite.rentAccount.AccountID]
			return ok && delta.Equal(decimal.NewFromInt(-6000)) &&
				changes[suite.incomeSummary.AccountID].Equal(decimal.NewFromInt(-6000))
		})).Return(nil).Once()

	// Net income 4000 moves from Income Summary to Retained Earnings.
	suite.mockEntryRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(e domain.JournalEntry) bool { return e.IsClosing }),
		mock.AnythingOfType("[]domain.JournalLine"),
		mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
			delta, ok := changes[suite.retainedEarnings.AccountID]
			return ok && delta.Equal(decimal.NewFromInt(4000)) &&
				changes[suite.incomeSummary.AccountID].Equal(decimal.NewFromInt(-4000))
		})).Return(nil).Once()

	suite.mockPeriodRepo.On("MarkPeriodClosedInTx", ctx, mock.Anything,
		mock.AnythingOfType("string"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockEntryRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	period, err := suite.service.ClosePeriod(ctx, suite.businessID, endDate, nil, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(period)
	suite.Equal(domain.PeriodClosed, period.Status)
	suite.Equal("March 2026", period.PeriodName)
	suite.NotNil(period.ClosedAt)
	suite.Equal(suite.userID, period.ClosedBy)

	suite.mockEntryRepo.AssertExpectations(suite.T())
	suite.mockPeriodRepo.AssertExpectations(suite.T())
	suite.mockReportingRepo.AssertExpectations(suite.T())
}

func (suite *ClosingServiceTestSuite) TestClosePeriod_AlreadyClosed() {
	ctx := context.Background()
	endDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	closed := &domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		BusinessID: suite.businessID,
		PeriodName: "March 2026",
		Status:     domain.PeriodClosed,
	}

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, suite.businessID, endDate).Return(closed, nil).Once()

	_, err := suite.service.ClosePeriod(ctx, suite.businessID, endDate, nil, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPeriodAlreadyClosed)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *ClosingServiceTestSuite) TestClosePeriod_ConcurrentCloseDetectedUnderLock() {
	ctx := context.Background()
	endDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	closed := &domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		BusinessID: suite.businessID,
		PeriodName: "March 2026",
		Status:     domain.PeriodClosed,
	}

	// The lock-free check sees no period, but by the time the month lock is
	// held another close has committed.
	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, suite.businessID, endDate).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleIncomeSummary, mock.AnythingOfType("string")).
		Return(&suite.incomeSummary, nil).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleRetainedEarnings, mock.AnythingOfType("string")).
		Return(&suite.retainedEarnings, nil).Once()

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockPeriodRepo.On("AcquireMonthLockInTx", ctx, mock.Anything, suite.businessID, endDate).Return(nil).Once()
	suite.mockPeriodRepo.On("FindPeriodForDateInTx", ctx, mock.Anything, suite.businessID, endDate).
		Return(closed, nil).Once()

	_, err := suite.service.ClosePeriod(ctx, suite.businessID, endDate, nil, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPeriodAlreadyClosed)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "SavePeriodInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockPeriodRepo.AssertNotCalled(suite.T(), "MarkPeriodClosedInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *ClosingServiceTestSuite) TestClosePeriod_NoIncomeSummaryAccount() {
	ctx := context.Background()
	endDate := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	suite.mockPeriodRepo.On("FindPeriodForDate", ctx, suite.businessID, endDate).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleIncomeSummary, mock.AnythingOfType("string")).
		Return(nil, nil).Once()
	suite.mockAccountSvc.On("ResolveSystemAccount", ctx, suite.businessID, domain.RoleRetainedEarnings, mock.AnythingOfType("string")).
		Return(nil, nil).Once()

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockPeriodRepo.On("AcquireMonthLockInTx", ctx, mock.Anything, suite.businessID, endDate).Return(nil).Once()
	suite.mockPeriodRepo.On("FindPeriodForDateInTx", ctx, mock.Anything, suite.businessID, endDate).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockPeriodRepo.On("SavePeriodInTx", ctx, mock.Anything, mock.AnythingOfType("domain.AccountingPeriod")).Return(nil).Once()
	suite.mockPeriodRepo.On("MarkPeriodClosedInTx", ctx, mock.Anything,
		mock.AnythingOfType("string"), suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockEntryRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	period, err := suite.service.ClosePeriod(ctx, suite.businessID, endDate, nil, suite.userID)

	// Without a configured income summary account the close still completes,
	// leaving the temporary balances in place.
	suite.Require().NoError(err)
	suite.Equal(domain.PeriodClosed, period.Status)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockReportingRepo.AssertNotCalled(suite.T(), "GetAccountBalancesByTypeInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ClosingServiceTestSuite) TestCreateAdjustingEntry_Depreciation() {
	ctx := context.Background()
	expenseAccount := domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Name:        "Depreciation Expense",
		AccountType: domain.Expense,
		IsActive:    true,
	}
	contraAccount := domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Name:        "Accumulated Depreciation",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	req := dto.AdjustingEntryRequest{
		Type:            dto.AdjustingDepreciation,
		Date:            time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		DebitAccountID:  expenseAccount.AccountID,
		CreditAccountID: contraAccount.AccountID,
		Amount:          decimal.NewFromInt(250),
	}

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockPeriodRepo.On("AcquireMonthLockInTx", ctx, mock.Anything, suite.businessID, req.Date).Return(nil).Once()
	suite.mockPeriodRepo.On("FindPeriodForDateInTx", ctx, mock.Anything, suite.businessID, req.Date).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountSvc.On("GetAccountByIDs", ctx, suite.businessID, mock.Anything).
		Return(map[string]domain.Account{
			expenseAccount.AccountID: expenseAccount,
			contraAccount.AccountID:  contraAccount,
		}, nil)
	suite.mockEntryRepo.On("SaveEntryInTx", ctx, mock.Anything,
		mock.MatchedBy(func(e domain.JournalEntry) bool {
			return e.IsAdjusting && e.Description == "Depreciation for the period"
		}),
		mock.AnythingOfType("[]domain.JournalLine"),
		mock.MatchedBy(func(changes map[string]decimal.Decimal) bool {
			// The expense grows, the contra asset shrinks.
			return changes[expenseAccount.AccountID].Equal(decimal.NewFromInt(250)) &&
				changes[contraAccount.AccountID].Equal(decimal.NewFromInt(-250))
		})).Return(nil).Once()
	suite.mockEntryRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()

	entry, err := suite.service.CreateAdjustingEntry(ctx, suite.businessID, req, suite.userID)

	suite.Require().NoError(err)
	suite.True(entry.IsAdjusting)
	suite.Equal(domain.Posted, entry.Status)
	suite.Len(entry.Lines, 2)
	suite.True(entry.Amount.Equal(decimal.NewFromInt(250)))
	suite.mockEntryRepo.AssertExpectations(suite.T())
}

func (suite *ClosingServiceTestSuite) TestCreateAdjustingEntry_ClosedPeriod() {
	ctx := context.Background()
	expenseAccount := domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Name:        "Depreciation Expense",
		AccountType: domain.Expense,
		IsActive:    true,
	}
	contraAccount := domain.Account{
		AccountID:   uuid.NewString(),
		BusinessID:  suite.businessID,
		Name:        "Accumulated Depreciation",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	req := dto.AdjustingEntryRequest{
		Type:            dto.AdjustingDepreciation,
		Date:            time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		DebitAccountID:  expenseAccount.AccountID,
		CreditAccountID: contraAccount.AccountID,
		Amount:          decimal.NewFromInt(250),
	}
	closed := &domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		BusinessID: suite.businessID,
		PeriodName: "March 2026",
		Status:     domain.PeriodClosed,
	}

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()
	suite.mockAccountSvc.On("GetAccountByIDs", ctx, suite.businessID, mock.Anything).
		Return(map[string]domain.Account{
			expenseAccount.AccountID: expenseAccount,
			contraAccount.AccountID:  contraAccount,
		}, nil)
	suite.mockPeriodRepo.On("AcquireMonthLockInTx", ctx, mock.Anything, suite.businessID, req.Date).Return(nil).Once()
	suite.mockPeriodRepo.On("FindPeriodForDateInTx", ctx, mock.Anything, suite.businessID, req.Date).
		Return(closed, nil).Once()

	// A standalone adjusting entry has no period link, so the closed-period
	// exemption does not apply.
	_, err := suite.service.CreateAdjustingEntry(ctx, suite.businessID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPeriodClosed)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *ClosingServiceTestSuite) TestCreateAdjustingEntry_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.AdjustingEntryRequest{
		Type:            dto.AdjustingAccrual,
		Date:            time.Now(),
		DebitAccountID:  uuid.NewString(),
		CreditAccountID: uuid.NewString(),
		Amount:          decimal.Zero,
	}

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	_, err := suite.service.CreateAdjustingEntry(ctx, suite.businessID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrInvalidAdjustingAmount)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "SaveEntryInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ClosingServiceTestSuite) TestCreateAdjustingEntry_UnknownType() {
	ctx := context.Background()
	req := dto.AdjustingEntryRequest{
		Type:            dto.AdjustingEntryType("AMORTIZATION"),
		Date:            time.Now(),
		DebitAccountID:  uuid.NewString(),
		CreditAccountID: uuid.NewString(),
		Amount:          decimal.NewFromInt(10),
	}

	suite.mockEntryRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockEntryRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	_, err := suite.service.CreateAdjustingEntry(ctx, suite.businessID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrUnknownAdjustingType)
}

func (suite *ClosingServiceTestSuite) TestGetPeriodByID_WrongBusiness() {
	ctx := context.Background()
	periodID := uuid.NewString()
	foreign := &domain.AccountingPeriod{
		PeriodID:   periodID,
		BusinessID: uuid.NewString(),
	}

	suite.mockPeriodRepo.On("FindPeriodByID", ctx, periodID).Return(foreign, nil).Once()

	_, err := suite.service.GetPeriodByID(ctx, suite.businessID, periodID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestClosingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ClosingServiceTestSuite))
}
