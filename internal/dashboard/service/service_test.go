package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/apptest"
	"github.com/smallbiznis/siino/internal/dashboard/domain"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func invoice(id, number string, status entity.InvoiceStatus, issued time.Time, total string, client *entity.Client) entity.Invoice {
	inv := entity.Invoice{
		ID:            id,
		TeamID:        apptest.TeamID,
		InvoiceNumber: number,
		Status:        status,
		IssueDate:     issued,
		DueDate:       issued.AddDate(0, 0, 30),
		TotalAmount:   decimal.RequireFromString(total),
		Client:        client,
	}
	if client != nil {
		inv.ClientID = &client.ID
	}
	return inv
}

func newDashboard(t *testing.T, rows ...entity.Record) *Service {
	t.Helper()
	h := apptest.New(t, entity.RoleViewer)
	for _, row := range rows {
		require.NoError(t, h.Cache.Add(row))
	}
	return New(Params{Log: zap.NewNop(), Session: h.Session, Cache: h.Cache, Clock: h.Clock}).(*Service)
}

func TestSummary(t *testing.T) {
	acme := &entity.Client{ID: "c1", TeamID: apptest.TeamID, Name: "Acme"}
	soon := apptest.Now.Add(24 * time.Hour)
	svc := newDashboard(t,
		invoice("i1", "0001", entity.InvoiceStatusPaid, date(2025, 1, 10), "1149.75", acme),
		invoice("i2", "0002", entity.InvoiceStatusUnpaid, date(2025, 2, 1), "200", acme),
		invoice("i3", "0003", entity.InvoiceStatusOverdue, date(2025, 2, 20), "100", nil),
		invoice("i4", "0004", entity.InvoiceStatusDraft, date(2025, 3, 1), "999", nil),
		invoice("i5", "0010", entity.InvoiceStatusPaid, date(2024, 12, 30), "5000", nil),
		entity.Expense{ID: "e1", TeamID: apptest.TeamID, Name: "Lens", Amount: decimal.NewFromInt(300), Date: date(2025, 2, 2)},
		entity.Expense{ID: "e2", TeamID: apptest.TeamID, Name: "Old", Amount: decimal.NewFromInt(80), Date: date(2024, 6, 1)},
		entity.Project{ID: "p1", TeamID: apptest.TeamID, Name: "Live"},
		entity.Project{ID: "p2", TeamID: apptest.TeamID, Name: "Gone", IsArchived: true},
		entity.Task{ID: "t1", TeamID: apptest.TeamID, Title: "Open"},
		entity.Task{ID: "t2", TeamID: apptest.TeamID, Title: "Closed", CompletedAt: &apptest.Now},
		entity.Booking{ID: "b1", TeamID: apptest.TeamID, Title: "Soon", StartTime: soon, EndTime: soon.Add(time.Hour)},
		entity.Booking{ID: "b2", TeamID: apptest.TeamID, Title: "Cancelled", StartTime: soon, EndTime: soon.Add(time.Hour), Status: entity.BookingCancelled},
		entity.Booking{ID: "b3", TeamID: apptest.TeamID, Title: "Past", StartTime: date(2025, 1, 1), EndTime: date(2025, 1, 1).Add(time.Hour)},
	)

	sum, err := svc.Summary(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 2025, sum.Year)
	assert.Equal(t, "1149.75", sum.Income.StringFixed(2))
	assert.Equal(t, 1, sum.PaidInvoices)
	assert.Equal(t, "300.00", sum.Outstanding.StringFixed(2))
	assert.Equal(t, 2, sum.UnpaidInvoices)
	assert.Equal(t, "300.00", sum.Expenses.StringFixed(2))
	assert.Equal(t, "849.75", sum.Net.StringFixed(2))
	assert.Equal(t, 1, sum.ActiveProjects)
	assert.Equal(t, 1, sum.PendingTasks)
	require.Len(t, sum.UpcomingBookings, 1)
	assert.Equal(t, "b1", sum.UpcomingBookings[0].ID)

	prev, err := svc.Summary(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, "5000.00", prev.Income.StringFixed(2))
	assert.Equal(t, "80.00", prev.Expenses.StringFixed(2))
}

func TestYearsIncludeCurrentYear(t *testing.T) {
	svc := newDashboard(t,
		invoice("i1", "0001", entity.InvoiceStatusPaid, date(2023, 5, 1), "10", nil),
		invoice("i2", "0001", entity.InvoiceStatusPaid, date(2024, 5, 1), "10", nil),
		invoice("i3", "0002", entity.InvoiceStatusPaid, date(2024, 6, 1), "10", nil),
	)
	years, err := svc.Years(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2025, 2024, 2023}, years)
}

func TestInvoicesFilter(t *testing.T) {
	acme := &entity.Client{ID: "c1", TeamID: apptest.TeamID, Name: "Acme Studios"}
	svc := newDashboard(t,
		invoice("i1", "0001", entity.InvoiceStatusPaid, date(2025, 1, 10), "10", acme),
		invoice("i2", "0002", entity.InvoiceStatusUnpaid, date(2025, 2, 1), "10", nil),
		invoice("i3", "0003", entity.InvoiceStatusUnpaid, date(2025, 3, 1), "10", acme),
		invoice("i4", "0001", entity.InvoiceStatusUnpaid, date(2024, 3, 1), "10", acme),
	)
	ctx := context.Background()

	all, err := svc.Invoices(ctx, domain.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"i3", "i2", "i1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	unpaid, err := svc.Invoices(ctx, domain.InvoiceFilter{Year: 2025, Status: entity.InvoiceStatusUnpaid})
	require.NoError(t, err)
	assert.Len(t, unpaid, 2)

	byClient, err := svc.Invoices(ctx, domain.InvoiceFilter{Year: 2025, Search: "acme"})
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	byNumber, err := svc.Invoices(ctx, domain.InvoiceFilter{Year: 2024, Search: "0001"})
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "i4", byNumber[0].ID)

	_, err = svc.Invoices(ctx, domain.InvoiceFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}
