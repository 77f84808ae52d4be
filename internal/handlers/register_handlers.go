package handlers

import (
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/middleware"
	"github.com/finbooks-app/finbooks_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	dbPool *pgxpool.Pool,
) {
	// Root banner and health check
	registerHomeRoutes(r, dbPool)

	// Setup API v1 routes, passing service interfaces
	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Every v1 route needs a caller identity for audit stamping
	v1 := r.Group("/api/v1", middleware.CallerIdentityMiddleware())

	// All ledger data is scoped to a business
	business := v1.Group("/businesses/:businessID")

	registerAccountRoutes(business, services.Account, services.Journal)
	registerJournalRoutes(business, services.Journal)
	registerPeriodRoutes(business, services.Closing)
	registerReportingRoutes(business, services.Reporting)
}
