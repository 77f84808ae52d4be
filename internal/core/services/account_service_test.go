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

type AccountServiceTestSuite struct {
	suite.Suite
	mockAccountRepo   *MockAccountRepository
	mockReportingRepo *MockReportingRepository
	service           portssvc.AccountSvcFacade
	businessID        string
	userID            string
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockAccountRepo = new(MockAccountRepository)
	suite.mockReportingRepo = new(MockReportingRepository)
	suite.service = services.NewAccountService(suite.mockAccountRepo, suite.mockReportingRepo)
	suite.businessID = uuid.NewString()
	suite.userID = uuid.NewString()
}

func (suite *AccountServiceTestSuite) TestCreateAccount_Success() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:        "1000",
		Name:        "Cash",
		AccountType: string(domain.Asset),
		Category:    "Current Assets",
	}

	suite.mockAccountRepo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.BusinessID == suite.businessID &&
			a.Code == "1000" &&
			a.AccountType == domain.Asset &&
			a.IsActive &&
			a.Balance.IsZero()
	})).Return(nil).Once()

	account, err := suite.service.CreateAccount(ctx, suite.businessID, req, suite.userID)

	suite.Require().NoError(err)
	suite.NotEmpty(account.AccountID)
	suite.Equal(suite.userID, account.CreatedBy)
	suite.mockAccountRepo.AssertExpectations(suite.T())
}

func (suite *AccountServiceTestSuite) TestCreateAccount_InvalidType() {
	ctx := context.Background()
	req := dto.CreateAccountRequest{
		Code:        "9999",
		Name:        "Mystery",
		AccountType: "CONTRA",
	}

	_, err := suite.service.CreateAccount(ctx, suite.businessID, req, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "SaveAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID_WrongBusiness() {
	ctx := context.Background()
	accountID := uuid.NewString()
	foreign := &domain.Account{
		AccountID:  accountID,
		BusinessID: uuid.NewString(),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, accountID).Return(foreign, nil).Once()

	_, err := suite.service.GetAccountByID(ctx, suite.businessID, accountID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestGetAccountByIDs_FiltersOtherBusinesses() {
	ctx := context.Background()
	mine := domain.Account{AccountID: uuid.NewString(), BusinessID: suite.businessID}
	theirs := domain.Account{AccountID: uuid.NewString(), BusinessID: uuid.NewString()}
	ids := []string{mine.AccountID, theirs.AccountID}

	suite.mockAccountRepo.On("FindAccountsByIDs", ctx, ids).Return(map[string]domain.Account{
		mine.AccountID:   mine,
		theirs.AccountID: theirs,
	}, nil).Once()

	accounts, err := suite.service.GetAccountByIDs(ctx, suite.businessID, ids)

	suite.Require().NoError(err)
	suite.Contains(accounts, mine.AccountID)
	suite.NotContains(accounts, theirs.AccountID)
}

func (suite *AccountServiceTestSuite) TestGetAccountBalance_ZeroAsOfUsesMaintainedBalance() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:  uuid.NewString(),
		BusinessID: suite.businessID,
		Balance:    decimal.NewFromInt(1234),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, suite.businessID, account.AccountID, time.Time{})

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(1234)))
	suite.mockReportingRepo.AssertNotCalled(suite.T(), "GetAccountBalanceAsOf", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestGetAccountBalance_AsOfRecomputesFromLines() {
	ctx := context.Background()
	asOf := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	account := &domain.Account{
		AccountID:  uuid.NewString(),
		BusinessID: suite.businessID,
		Balance:    decimal.NewFromInt(9999),
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()
	suite.mockReportingRepo.On("GetAccountBalanceAsOf", ctx, account.AccountID, asOf).
		Return(decimal.NewFromInt(500), nil).Once()

	balance, err := suite.service.GetAccountBalance(ctx, suite.businessID, account.AccountID, asOf)

	suite.Require().NoError(err)
	suite.True(balance.Equal(decimal.NewFromInt(500)))
}

func (suite *AccountServiceTestSuite) TestResolveSystemAccount_ByRole() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:  uuid.NewString(),
		BusinessID: suite.businessID,
		Name:       "Income Summary",
		Role:       domain.RoleIncomeSummary,
	}

	suite.mockAccountRepo.On("FindAccountByRole", ctx, suite.businessID, domain.RoleIncomeSummary).
		Return(account, nil).Once()

	resolved, err := suite.service.ResolveSystemAccount(ctx, suite.businessID, domain.RoleIncomeSummary, "income summary")

	suite.Require().NoError(err)
	suite.Equal(account.AccountID, resolved.AccountID)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "FindAccountByNameFragment", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestResolveSystemAccount_FallsBackToNameFragment() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:  uuid.NewString(),
		BusinessID: suite.businessID,
		Name:       "Retained Earnings",
	}

	suite.mockAccountRepo.On("FindAccountByRole", ctx, suite.businessID, domain.RoleRetainedEarnings).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("FindAccountByNameFragment", ctx, suite.businessID, "retained earnings").
		Return(account, nil).Once()

	resolved, err := suite.service.ResolveSystemAccount(ctx, suite.businessID, domain.RoleRetainedEarnings, "retained earnings")

	suite.Require().NoError(err)
	suite.Equal(account.AccountID, resolved.AccountID)
}

func (suite *AccountServiceTestSuite) TestResolveSystemAccount_AbsentIsNotAnError() {
	ctx := context.Background()

	suite.mockAccountRepo.On("FindAccountByRole", ctx, suite.businessID, domain.RoleIncomeSummary).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockAccountRepo.On("FindAccountByNameFragment", ctx, suite.businessID, "income summary").
		Return(nil, apperrors.ErrNotFound).Once()

	resolved, err := suite.service.ResolveSystemAccount(ctx, suite.businessID, domain.RoleIncomeSummary, "income summary")

	suite.Require().NoError(err)
	suite.Nil(resolved)
}

func (suite *AccountServiceTestSuite) TestUpdateAccount_NoFieldsIsNoOp() {
	ctx := context.Background()
	account := &domain.Account{
		AccountID:  uuid.NewString(),
		BusinessID: suite.businessID,
		Name:       "Cash",
	}

	suite.mockAccountRepo.On("FindAccountByID", ctx, account.AccountID).Return(account, nil).Once()

	updated, err := suite.service.UpdateAccount(ctx, suite.businessID, account.AccountID, dto.UpdateAccountRequest{}, suite.userID)

	suite.Require().NoError(err)
	suite.Equal("Cash", updated.Name)
	suite.mockAccountRepo.AssertNotCalled(suite.T(), "UpdateAccount", mock.Anything, mock.Anything)
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}
