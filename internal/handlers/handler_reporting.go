package handlers

import (
	"net/http"
	"time"

	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests for ledger reports.
type reportingHandler struct {
	reportingService portssvc.ReportingSvcFacade
}

func newReportingHandler(reportingService portssvc.ReportingSvcFacade) *reportingHandler {
	return &reportingHandler{reportingService: reportingService}
}

// parseDateQuery parses an RFC3339 or date-only query parameter.
func parseDateQuery(c *gin.Context, name string) (time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected RFC3339 or YYYY-MM-DD"})
	return time.Time{}, false
}

func (h *reportingHandler) trialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return
	}

	rows, err := h.reportingService.TrialBalance(c.Request.Context(), businessID, asOf)
	if err != nil {
		respondServiceError(c, logger, err, "build trial balance")
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

func (h *reportingHandler) profitAndLoss(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	from, ok := parseDateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to")
	if !ok {
		return
	}

	report, err := h.reportingService.ProfitAndLoss(c.Request.Context(), businessID, from, to)
	if err != nil {
		respondServiceError(c, logger, err, "build profit and loss")
		return
	}

	c.JSON(http.StatusOK, report)
}

func (h *reportingHandler) balanceSheet(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	asOf, ok := parseDateQuery(c, "asOf")
	if !ok {
		return
	}

	report, err := h.reportingService.BalanceSheet(c.Request.Context(), businessID, asOf)
	if err != nil {
		respondServiceError(c, logger, err, "build balance sheet")
		return
	}

	c.JSON(http.StatusOK, report)
}

// registerReportingRoutes registers report specific routes
func registerReportingRoutes(group *gin.RouterGroup, reportingService portssvc.ReportingSvcFacade) {
	h := newReportingHandler(reportingService)

	reports := group.Group("/reports")
	{
		reports.GET("/trial-balance", h.trialBalance)
		reports.GET("/profit-and-loss", h.profitAndLoss)
		reports.GET("/balance-sheet", h.balanceSheet)
	}
}
