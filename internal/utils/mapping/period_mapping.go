package mapping

import (
	"github.com/finbooks-app/finbooks_backend/internal/core/domain"
	"github.com/finbooks-app/finbooks_backend/internal/models"
)

// ToModelAccountingPeriod converts a domain AccountingPeriod to a model AccountingPeriod
func ToModelAccountingPeriod(d domain.AccountingPeriod) models.AccountingPeriod {
	return models.AccountingPeriod{
		PeriodID:    d.PeriodID,
		BusinessID:  d.BusinessID,
		PeriodName:  d.PeriodName,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Status:      models.PeriodStatus(d.Status),
		ClosedAt:    d.ClosedAt,
		ClosedBy:    d.ClosedBy,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccountingPeriod converts a model AccountingPeriod to a domain AccountingPeriod
func ToDomainAccountingPeriod(m models.AccountingPeriod) domain.AccountingPeriod {
	return domain.AccountingPeriod{
		PeriodID:    m.PeriodID,
		BusinessID:  m.BusinessID,
		PeriodName:  m.PeriodName,
		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		Status:      domain.PeriodStatus(m.Status),
		ClosedAt:    m.ClosedAt,
		ClosedBy:    m.ClosedBy,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountingPeriodSlice converts a slice of model AccountingPeriods to domain ones
func ToDomainAccountingPeriodSlice(ms []models.AccountingPeriod) []domain.AccountingPeriod {
	ds := make([]domain.AccountingPeriod, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccountingPeriod(m)
	}
	return ds
}
