package dto

import (
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for creating an account.
type CreateAccountRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	AccountType string `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category    string `json:"category"`
	Role        string `json:"role" binding:"omitempty,oneof=SYSTEM_INCOME_SUMMARY SYSTEM_RETAINED_EARNINGS"`
	Description string `json:"description"`
}

// UpdateAccountRequest defines the payload for updating an account. Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID   string          `json:"accountID"`
	BusinessID  string          `json:"businessID"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType string          `json:"accountType"`
	Category    string          `json:"category"`
	Role        string          `json:"role,omitempty"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"isActive"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// BalanceResponse carries a point-in-time account balance.
type BalanceResponse struct {
	AccountID string          `json:"accountID"`
	AsOf      time.Time       `json:"asOf"`
	Balance   decimal.Decimal `json:"balance"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:   a.AccountID,
		BusinessID:  a.BusinessID,
		Code:        a.Code,
		Name:        a.Name,
		AccountType: string(a.AccountType),
		Category:    a.Category,
		Role:        string(a.Role),
		Description: a.Description,
		IsActive:    a.IsActive,
		Balance:     a.Balance,
		CreatedAt:   a.CreatedAt,
	}
}

// ToAccountResponses converts a slice of domain.Account to []AccountResponse.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
