package service

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/dashboard/domain"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/invoice/compute"
	"github.com/smallbiznis/siino/internal/session"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// upcomingLimit caps the bookings listed on the dashboard.
const upcomingLimit = 5

type Params struct {
	fx.In

	Log     *zap.Logger
	Session *session.Session
	Cache   *cache.Cache
	Clock   clock.Clock
}

type Service struct {
	log     *zap.Logger
	session *session.Session
	cache   *cache.Cache
	clock   clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("dashboard.service"),
		session: p.Session,
		cache:   p.Cache,
		clock:   p.Clock,
	}
}

func (s *Service) Summary(_ context.Context, year int) (domain.Summary, error) {
	if _, err := s.session.RequireTeam(); err != nil {
		return domain.Summary{}, err
	}
	now := s.clock.Now()
	if year == 0 {
		year = now.Year()
	}
	snap := s.cache.Snapshot()

	sum := domain.Summary{
		Year:             year,
		Income:           decimal.Zero,
		Outstanding:      decimal.Zero,
		Expenses:         decimal.Zero,
		UpcomingBookings: []entity.Booking{},
	}
	for _, inv := range compute.InvoicesInYear(snap.Invoices, year) {
		switch {
		case inv.Status == entity.InvoiceStatusPaid:
			sum.Income = sum.Income.Add(inv.TotalAmount)
			sum.PaidInvoices++
		case compute.Outstanding(inv.Status):
			sum.Outstanding = sum.Outstanding.Add(inv.TotalAmount)
			sum.UnpaidInvoices++
		}
	}
	for _, e := range snap.Expenses {
		if e.Date.Year() == year {
			sum.Expenses = sum.Expenses.Add(e.Amount)
			sum.ExpenseCount++
		}
	}
	sum.Net = sum.Income.Sub(sum.Expenses)

	for _, p := range snap.Projects {
		if !p.IsArchived {
			sum.ActiveProjects++
		}
	}
	for _, t := range snap.Tasks {
		if t.CompletedAt == nil {
			sum.PendingTasks++
		}
	}
	for _, b := range snap.Bookings {
		if b.StartTime.After(now) && b.Status != entity.BookingCancelled {
			sum.UpcomingBookings = append(sum.UpcomingBookings, b)
		}
	}
	slices.SortStableFunc(sum.UpcomingBookings, func(a, b entity.Booking) int {
		return a.StartTime.Compare(b.StartTime)
	})
	if len(sum.UpcomingBookings) > upcomingLimit {
		sum.UpcomingBookings = sum.UpcomingBookings[:upcomingLimit]
	}
	return sum, nil
}

// Years lists the issue years present in the cache plus the current year,
// newest first.
func (s *Service) Years(_ context.Context) ([]int, error) {
	if _, err := s.session.RequireTeam(); err != nil {
		return nil, err
	}
	years := []int{s.clock.Now().Year()}
	for _, inv := range s.cache.Invoices() {
		if y := inv.IssueDate.Year(); !slices.Contains(years, y) {
			years = append(years, y)
		}
	}
	slices.Sort(years)
	slices.Reverse(years)
	return years, nil
}

// Invoices filters the cached invoices by issue year, status and a
// case-insensitive search on number or client name, newest issue first.
func (s *Service) Invoices(_ context.Context, f domain.InvoiceFilter) ([]entity.Invoice, error) {
	if _, err := s.session.RequireTeam(); err != nil {
		return nil, err
	}
	if f.Status != "" && !compute.ValidStatus(f.Status) {
		return nil, domain.ErrInvalidStatus
	}
	if f.Year == 0 {
		f.Year = s.clock.Now().Year()
	}
	query := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]entity.Invoice, 0)
	for _, inv := range compute.InvoicesInYear(s.cache.Invoices(), f.Year) {
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(inv.InvoiceNumber), query) &&
			!strings.Contains(strings.ToLower(inv.ClientName()), query) {
			continue
		}
		out = append(out, inv)
	}
	slices.SortStableFunc(out, func(a, b entity.Invoice) int {
		return b.IssueDate.Compare(a.IssueDate)
	})
	return out, nil
}
