package repositories

// RepositoryProvider bundles every repository implementation for service construction.
type RepositoryProvider struct {
	AccountRepo   AccountRepositoryFacade
	EntryRepo     EntryRepositoryWithTx
	PeriodRepo    PeriodRepositoryFacade
	ReportingRepo ReportingRepository
}
