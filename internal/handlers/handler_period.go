package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/dto"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// periodHandler handles HTTP requests related to accounting periods and closing.
type periodHandler struct {
	closingService portssvc.ClosingSvcFacade
}

func newPeriodHandler(closingService portssvc.ClosingSvcFacade) *periodHandler {
	return &periodHandler{closingService: closingService}
}

func (h *periodHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	var req dto.ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for closePeriod", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	period, err := h.closingService.ClosePeriod(c.Request.Context(), businessID, req.PeriodEndDate, req.AdjustingEntries, userID)
	if err != nil {
		respondServiceError(c, logger, err, "close period")
		return
	}

	logger.Info("Period closed via API", slog.String("period_id", period.PeriodID))
	c.JSON(http.StatusCreated, dto.ToPeriodResponse(period))
}

func (h *periodHandler) createAdjustingEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	var req dto.AdjustingEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for createAdjustingEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entry, err := h.closingService.CreateAdjustingEntry(c.Request.Context(), businessID, req, userID)
	if err != nil {
		respondServiceError(c, logger, err, "create adjusting entry")
		return
	}

	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *periodHandler) getPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")
	periodID := c.Param("periodID")

	period, err := h.closingService.GetPeriodByID(c.Request.Context(), businessID, periodID)
	if err != nil {
		respondServiceError(c, logger, err, "get period")
		return
	}

	c.JSON(http.StatusOK, dto.ToPeriodResponse(period))
}

func (h *periodHandler) listPeriods(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	businessID := c.Param("businessID")

	periods, err := h.closingService.ListPeriods(c.Request.Context(), businessID)
	if err != nil {
		respondServiceError(c, logger, err, "list periods")
		return
	}

	c.JSON(http.StatusOK, gin.H{"periods": dto.ToPeriodResponses(periods)})
}

// registerPeriodRoutes registers accounting period specific routes
func registerPeriodRoutes(group *gin.RouterGroup, closingService portssvc.ClosingSvcFacade) {
	h := newPeriodHandler(closingService)

	periods := group.Group("/periods")
	{
		periods.POST("/close", h.closePeriod)
		periods.POST("/adjusting-entries", h.createAdjustingEntry)
		periods.GET("", h.listPeriods)
		periods.GET("/:periodID", h.getPeriod)
	}
}
