package domain

import "time"

// PeriodStatus indicates the lifecycle state of an accounting period.
// There is no transition back from CLOSED.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod represents a monthly accounting period for a business.
// It is created OPEN when a close operation begins and transitions to CLOSED
// only after all adjusting and closing entries for it have been posted.
type AccountingPeriod struct {
	PeriodID   string       `json:"periodID"`   // Primary Key (UUID)
	BusinessID string       `json:"businessID"` // FK -> businesses.business_id (Not Null)
	PeriodName string       `json:"periodName"` // e.g. "January 2026"
	StartDate  time.Time    `json:"startDate"`
	EndDate    time.Time    `json:"endDate"`
	Status     PeriodStatus `json:"status"`
	ClosedAt   *time.Time   `json:"closedAt,omitempty"`
	ClosedBy   string       `json:"closedBy,omitempty"`
	AuditFields
}

// Contains reports whether d falls within [StartDate, EndDate].
func (p AccountingPeriod) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
