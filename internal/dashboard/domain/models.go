package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
)

// Summary is the yearly dashboard. Income counts paid invoices, outstanding
// counts unpaid and overdue ones, both by issue year.
type Summary struct {
	Year             int              `json:"year"`
	Income           decimal.Decimal  `json:"income"`
	PaidInvoices     int              `json:"paid_invoices"`
	Outstanding      decimal.Decimal  `json:"outstanding"`
	UnpaidInvoices   int              `json:"unpaid_invoices"`
	Expenses         decimal.Decimal  `json:"expenses"`
	ExpenseCount     int              `json:"expense_count"`
	Net              decimal.Decimal  `json:"net"`
	ActiveProjects   int              `json:"active_projects"`
	PendingTasks     int              `json:"pending_tasks"`
	UpcomingBookings []entity.Booking `json:"upcoming_bookings"`
}

type InvoiceFilter struct {
	Year   int
	Status entity.InvoiceStatus
	Search string
}

type Service interface {
	Summary(ctx context.Context, year int) (Summary, error)
	Years(ctx context.Context) ([]int, error)
	Invoices(ctx context.Context, f InvoiceFilter) ([]entity.Invoice, error)
}

var ErrInvalidStatus = errors.New("invalid_status")
