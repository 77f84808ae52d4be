package mapping

import (
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:            d.EntryID,
		BusinessID:         d.BusinessID,
		EntryDate:          d.EntryDate,
		Description:        d.Description,
		Reference:          d.Reference,
		Status:             models.EntryStatus(d.Status),
		IsAdjusting:        d.IsAdjusting,
		IsClosing:          d.IsClosing,
		AccountingPeriodID: d.AccountingPeriodID,
		OriginalEntryID:    d.OriginalEntryID,
		ReversingEntryID:   d.ReversingEntryID,
		AuditFields:        ToModelAuditFields(d.AuditFields),
		Amount:             d.Amount,
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:            m.EntryID,
		BusinessID:         m.BusinessID,
		EntryDate:          m.EntryDate,
		Description:        m.Description,
		Reference:          m.Reference,
		Status:             domain.EntryStatus(m.Status),
		IsAdjusting:        m.IsAdjusting,
		IsClosing:          m.IsClosing,
		AccountingPeriodID: m.AccountingPeriodID,
		OriginalEntryID:    m.OriginalEntryID,
		ReversingEntryID:   m.ReversingEntryID,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
		Amount:             m.Amount,
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:           d.LineID,
		EntryID:          d.EntryID,
		AccountID:        d.AccountID,
		DebitAmount:      d.DebitAmount,
		CreditAmount:     d.CreditAmount,
		Description:      d.Description,
		AuditFields:      ToModelAuditFields(d.AuditFields),
		RunningBalance:   d.RunningBalance,
		EntryDate:        d.EntryDate,
		EntryDescription: d.EntryDescription,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:           m.LineID,
		EntryID:          m.EntryID,
		AccountID:        m.AccountID,
		DebitAmount:      m.DebitAmount,
		CreditAmount:     m.CreditAmount,
		Description:      m.Description,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
		RunningBalance:   m.RunningBalance,
		EntryDate:        m.EntryDate,
		EntryDescription: m.EntryDescription,
	}
}

// ToDomainJournalLineSlice converts a slice of model JournalLines to a slice of domain JournalLines
func ToDomainJournalLineSlice(ms []models.JournalLine) []domain.JournalLine {
	ds := make([]domain.JournalLine, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJournalLine(m)
	}
	return ds
}
