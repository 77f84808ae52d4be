package models

import "time"

// PeriodStatus indicates the lifecycle state of an accounting period row.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod represents an accounting period row as stored in the database.
type AccountingPeriod struct {
	PeriodID   string       `db:"period_id"`
	BusinessID string       `db:"business_id"`
	PeriodName string       `db:"period_name"`
	StartDate  time.Time    `db:"start_date"`
	EndDate    time.Time    `db:"end_date"`
	Status     PeriodStatus `db:"status"`
	ClosedAt   *time.Time   `db:"closed_at"` // Nullable
	ClosedBy   string       `db:"closed_by"` // Empty until closed
	AuditFields
}
