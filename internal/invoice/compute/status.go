package compute

import "github.com/smallbiznis/siino/internal/entity"

var transitions = map[entity.InvoiceStatus][]entity.InvoiceStatus{
	entity.InvoiceStatusDraft:   {entity.InvoiceStatusUnpaid, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusUnpaid:  {entity.InvoiceStatusPaid, entity.InvoiceStatusOverdue, entity.InvoiceStatusCancelled},
	entity.InvoiceStatusOverdue: {entity.InvoiceStatusPaid, entity.InvoiceStatusCancelled},
}

func ValidStatus(status entity.InvoiceStatus) bool {
	for _, s := range entity.InvoiceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from one status
// to another. Paid and cancelled are terminal.
func CanTransition(from, to entity.InvoiceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Outstanding reports whether the invoice still awaits payment.
func Outstanding(status entity.InvoiceStatus) bool {
	return status == entity.InvoiceStatusUnpaid || status == entity.InvoiceStatusOverdue
}
