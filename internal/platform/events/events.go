package events

import "time"

// EntryEvent describes a journal entry lifecycle event.
type EntryEvent struct {
	EntryID    string    `json:"entryID"`
	BusinessID string    `json:"businessID"`
	Status     string    `json:"status"`
	EntryDate  time.Time `json:"entryDate"`
	Amount     string    `json:"amount"`
	IsAdjusting bool     `json:"isAdjusting,omitempty"`
	IsClosing   bool     `json:"isClosing,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PeriodClosedEvent describes a completed period close.
type PeriodClosedEvent struct {
	PeriodID   string    `json:"periodID"`
	BusinessID string    `json:"businessID"`
	PeriodName string    `json:"periodName"`
	ClosedBy   string    `json:"closedBy"`
	ClosedAt   time.Time `json:"closedAt"`
}
