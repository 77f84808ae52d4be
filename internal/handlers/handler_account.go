package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	journalService portssvc.JournalSvcFacade
}

func newAccountHandler(accountService portssvc.AccountSvcFacade, journalService portssvc.JournalSvcFacade) *accountHandler {
	return &accountHandler{
		accountService: accountService,
		journalService: journalService,
	}
}

func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), businessID, req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "create account")
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	accountID := c.Param("accountID")

	account, err := h.accountService.GetAccountByID(c.Request.Context(), businessID, accountID)
	if err != nil {
		respondServiceError(c, logger, err, "get account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var accounts []domain.Account
	var err error
	if accountType := c.Query("type"); accountType != "" {
		accounts, err = h.accountService.ListAccountsByType(c.Request.Context(), businessID, domain.AccountType(accountType))
	} else {
		accounts, err = h.accountService.ListAccounts(c.Request.Context(), businessID, limit, offset)
	}
	if err != nil {
		respondServiceError(c, logger, err, "list accounts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": dto.ToAccountResponses(accounts)})
}

func (h *accountHandler) updateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	accountID := c.Param("accountID")

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for updateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), businessID, accountID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "update account")
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	accountID := c.Param("accountID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), businessID, accountID, userID); err != nil {
		respondServiceError(c, logger, err, "deactivate account")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *accountHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	accountID := c.Param("accountID")

	var asOf time.Time
	if asOfStr := c.Query("asOf"); asOfStr != "" {
		parsed, err := time.Parse(time.RFC3339, asOfStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asOf, expected RFC3339"})
			return
		}
		asOf = parsed
	}

	balance, err := h.accountService.GetAccountBalance(c.Request.Context(), businessID, accountID, asOf)
	if err != nil {
		respondServiceError(c, logger, err, "get account balance")
		return
	}

	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{AccountID: accountID, AsOf: asOf, Balance: balance})
}

func (h *accountHandler) listAccountLines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	accountID := c.Param("accountID")

	var params dto.ListLinesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return
	}

	page, err := h.journalService.ListLinesByAccount(c.Request.Context(), businessID, accountID, params)
	if err != nil {
		respondServiceError(c, logger, err, "list account lines")
		return
	}

	c.JSON(http.StatusOK, page)
}

// registerAccountRoutes registers account specific routes
func registerAccountRoutes(group *gin.RouterGroup, accountService portssvc.AccountSvcFacade, journalService portssvc.JournalSvcFacade) {
	h := newAccountHandler(accountService, journalService)

	accounts := group.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:accountID", h.getAccount)
		accounts.PATCH("/:accountID", h.updateAccount)
		accounts.DELETE("/:accountID", h.deactivateAccount)
		accounts.GET("/:accountID/balance", h.getAccountBalance)
		accounts.GET("/:accountID/lines", h.listAccountLines)
	}
}
