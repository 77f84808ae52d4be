package services

import (
	portsrepo "github.com/finbooks-app/finbooks_backend/internal/core/ports/repositories"
	portssvc "github.com/finbooks-app/finbooks_backend/internal/core/ports/services"
	"github.com/finbooks-app/finbooks_backend/internal/platform/events"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, publisher events.Publisher) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The account service comes first since posting and closing depend on it.
	container.Account = NewAccountService(repos.AccountRepo, repos.ReportingRepo)

	container.Journal = NewJournalService(repos.EntryRepo, container.Account, repos.PeriodRepo, publisher)
	container.Closing = NewClosingService(repos.EntryRepo, container.Account, repos.PeriodRepo, repos.ReportingRepo, publisher)
	container.Reporting = NewReportingService(repos.ReportingRepo)

	return container
}
