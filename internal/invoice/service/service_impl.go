package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/invoice/compute"
	invoicedomain "github.com/smallbiznis/siino/internal/invoice/domain"
	"github.com/smallbiznis/siino/internal/invoice/sequence"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Repo     repository.Deps
	Log      *zap.Logger
	Session  *session.Session
	Cache    *cache.Cache
	Numberer sequence.Numberer
	Config   *config.InvoiceConfigHolder
	Clock    clock.Clock
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	session  *session.Session
	cache    *cache.Cache
	numberer sequence.Numberer
	config   *config.InvoiceConfigHolder
	clock    clock.Clock
	metrics  *metrics.Metrics

	invoicerepo  repository.Repository[entity.Invoice]
	lineitemrepo repository.Repository[entity.InvoiceLineItem]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:      p.Log.Named("invoice.service"),
		session:  p.Session,
		cache:    p.Cache,
		numberer: p.Numberer,
		config:   p.Config,
		clock:    p.Clock,
		metrics:  p.Metrics,

		invoicerepo:  repository.ProvideStore[entity.Invoice](p.Repo),
		lineitemrepo: repository.ProvideStore[entity.InvoiceLineItem](p.Repo),
	}
}

// Save computes the invoice totals once and persists the invoice followed by
// its line items. The cache only sees rows the store has confirmed.
func (s *Service) Save(ctx context.Context, req invoicedomain.SaveRequest) (entity.Invoice, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Invoice{}, err
	}
	ctx = s.session.Context(ctx)

	inv, err := s.save(ctx, req)
	s.metrics.RecordInvoiceSaved(ctx, saveOutcome(err))
	return inv, err
}

func (s *Service) save(ctx context.Context, req invoicedomain.SaveRequest) (entity.Invoice, error) {
	team, ok := s.session.Team()
	if !ok {
		return entity.Invoice{}, session.ErrNoActiveTeam
	}
	cfg := s.config.Get()

	// Fields left empty on an edit keep their stored values.
	var existing *entity.Invoice
	if strings.TrimSpace(req.ID) != "" {
		found, ok := s.cache.Invoice(req.ID)
		if !ok {
			return entity.Invoice{}, invoicedomain.ErrNotFound
		}
		existing = &found
	}

	if req.Status == "" {
		req.Status = entity.InvoiceStatusDraft
		if existing != nil {
			req.Status = existing.Status
		}
	}
	if !compute.ValidStatus(req.Status) {
		return entity.Invoice{}, invoicedomain.ErrInvalidStatus
	}
	if req.IssueDate.IsZero() {
		req.IssueDate = s.clock.Now()
		if existing != nil {
			req.IssueDate = existing.IssueDate
		}
	}
	due := req.IssueDate.AddDate(0, 0, cfg.DueDays)
	switch {
	case req.DueDate != nil:
		due = *req.DueDate
	case existing != nil:
		due = existing.DueDate
	}
	if due.Before(req.IssueDate) {
		return entity.Invoice{}, invoicedomain.ErrInvalidDates
	}
	if req.ClientID != nil {
		if _, ok := s.cache.Client(*req.ClientID); !ok {
			return entity.Invoice{}, invoicedomain.ErrUnknownClient
		}
	}

	defaultFederal, defaultProvincial := cfg.DefaultRates()
	federalRate, provincialRate := compute.RatesOrDefault(team, defaultFederal, defaultProvincial)
	totals := compute.ComputeTotals(compute.Subtotal(req.Lines), req.ApplyFederalTax, req.ApplyProvincialTax, federalRate, provincialRate)
	lines := compute.PersistableLines(req.Lines)

	if existing == nil {
		return s.create(ctx, team.ID, req, due, totals, lines, cfg.WritePolicy)
	}
	return s.edit(ctx, *existing, req, due, totals, lines)
}

func (s *Service) create(ctx context.Context, teamID string, req invoicedomain.SaveRequest, due time.Time, totals compute.Totals, lines []entity.InvoiceLineItem, policy string) (entity.Invoice, error) {
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		next, err := s.numberer.Next(ctx, teamID, s.clock.Now().Year())
		if err != nil {
			return entity.Invoice{}, err
		}
		number = next
	}

	inv := entity.Invoice{
		ClientID:      req.ClientID,
		InvoiceNumber: number,
		Status:        req.Status,
		IssueDate:     req.IssueDate,
		DueDate:       due,
		Notes:         req.Notes,
		ClientVisible: req.ClientVisible,
	}
	applyTotals(&inv, req, totals)

	if err := s.invoicerepo.Create(ctx, &inv); err != nil {
		return entity.Invoice{}, numberTaken(err)
	}

	log := logger.WithContext(ctx, s.log).With(zap.String("invoice_id", inv.ID), zap.String("invoice_number", inv.InvoiceNumber))

	inserted, err := s.insertLines(ctx, inv.ID, lines)
	if err != nil {
		partial := &invoicedomain.PartialWriteError{
			InvoiceID: inv.ID,
			Inserted:  inserted,
			Expected:  len(lines),
			Err:       err,
		}
		if policy == config.WritePolicyCompensate {
			if derr := s.invoicerepo.Delete(ctx, inv.ID); derr != nil {
				log.Error("compensating invoice delete failed", zap.Error(derr))
				return entity.Invoice{}, errors.Join(partial, derr)
			}
			partial.Compensated = true
			log.Warn("line items failed, invoice removed", zap.Error(err))
			return entity.Invoice{}, partial
		}
		log.Warn("line items failed, invoice kept", zap.Int("inserted", inserted), zap.Error(err))
		return s.reload(ctx, inv), partial
	}

	log.Info("invoice created", zap.Int("line_items", len(lines)), zap.String("total", totals.Total.String()))
	return s.reload(ctx, inv), nil
}

// edit replaces the invoice fields and its line items. Line items are
// replaced, not diffed.
func (s *Service) edit(ctx context.Context, existing entity.Invoice, req invoicedomain.SaveRequest, due time.Time, totals compute.Totals, lines []entity.InvoiceLineItem) (entity.Invoice, error) {
	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		number = existing.InvoiceNumber
	}
	patch := map[string]any{
		"client_id":      req.ClientID,
		"invoice_number": number,
		"subtotal":       totals.Subtotal,
		"tps_amount":     totals.FederalTax,
		"tvq_amount":     totals.ProvincialTax,
		"total_amount":   totals.Total,
		"apply_tps":      req.ApplyFederalTax,
		"apply_tvq":      req.ApplyProvincialTax,
		"status":         string(req.Status),
		"issue_date":     req.IssueDate,
		"due_date":       due,
		"notes":          req.Notes,
		"client_visible": req.ClientVisible,
	}
	updated, err := s.invoicerepo.Update(ctx, existing.ID, patch)
	if err != nil {
		return entity.Invoice{}, numberTaken(err)
	}

	for _, item := range existing.LineItems {
		if err := s.lineitemrepo.Delete(ctx, item.ID); err != nil && !errors.Is(err, remote.ErrNotFound) {
			return s.reload(ctx, updated), &invoicedomain.PartialWriteError{InvoiceID: existing.ID, Expected: len(lines), Err: err}
		}
	}
	inserted, err := s.insertLines(ctx, existing.ID, lines)
	if err != nil {
		return s.reload(ctx, updated), &invoicedomain.PartialWriteError{InvoiceID: existing.ID, Inserted: inserted, Expected: len(lines), Err: err}
	}

	logger.WithContext(ctx, s.log).Info("invoice updated",
		zap.String("invoice_id", existing.ID),
		zap.Int("line_items", len(lines)),
	)
	return s.reload(ctx, updated), nil
}

func (s *Service) insertLines(ctx context.Context, invoiceID string, lines []entity.InvoiceLineItem) (int, error) {
	for i := range lines {
		item := lines[i]
		item.InvoiceID = invoiceID
		if err := s.lineitemrepo.Create(ctx, &item); err != nil {
			return i, err
		}
	}
	return len(lines), nil
}

// reload reads the invoice back with its client and line items and merges it
// into the cache. On failure the last confirmed row is returned.
func (s *Service) reload(ctx context.Context, fallback entity.Invoice) entity.Invoice {
	rows, err := s.invoicerepo.Find(ctx, map[string]any{"id": fallback.ID})
	if err != nil || len(rows) == 0 {
		s.log.Warn("invoice reload failed", zap.String("invoice_id", fallback.ID), zap.Error(err))
		return fallback
	}
	if err := s.cache.Update(rows[0]); err != nil {
		s.log.Warn("reloaded invoice not merged", zap.String("invoice_id", fallback.ID), zap.Error(err))
	}
	return rows[0]
}

// MarkPaid moves an unpaid or overdue invoice to paid and stamps the paid date.
func (s *Service) MarkPaid(ctx context.Context, id string) (entity.Invoice, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Invoice{}, err
	}
	ctx = s.session.Context(ctx)

	existing, ok := s.cache.Invoice(id)
	if !ok {
		return entity.Invoice{}, invoicedomain.ErrNotFound
	}
	if !compute.CanTransition(existing.Status, entity.InvoiceStatusPaid) {
		return entity.Invoice{}, fmt.Errorf("%w: %s to %s", invoicedomain.ErrInvalidTransition, existing.Status, entity.InvoiceStatusPaid)
	}

	paidAt := s.clock.Now()
	updated, err := s.invoicerepo.Update(ctx, id, map[string]any{
		"status":    string(entity.InvoiceStatusPaid),
		"paid_date": paidAt,
	})
	if err != nil {
		return entity.Invoice{}, err
	}
	logger.WithContext(ctx, s.log).Info("invoice paid", zap.String("invoice_id", id))
	return updated, nil
}

// SetStatus writes any of the enumerated statuses without lifecycle checks.
func (s *Service) SetStatus(ctx context.Context, id string, status entity.InvoiceStatus) (entity.Invoice, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Invoice{}, err
	}
	if !compute.ValidStatus(status) {
		return entity.Invoice{}, invoicedomain.ErrInvalidStatus
	}
	if _, ok := s.cache.Invoice(id); !ok {
		return entity.Invoice{}, invoicedomain.ErrNotFound
	}
	return s.invoicerepo.Update(s.session.Context(ctx), id, map[string]any{"status": string(status)})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.session.Require(session.ActionDelete); err != nil {
		return err
	}
	if _, ok := s.cache.Invoice(id); !ok {
		return invoicedomain.ErrNotFound
	}
	return s.invoicerepo.Delete(s.session.Context(ctx), id)
}

// NextNumber previews the number the next created invoice would get.
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	teamID, err := s.session.RequireTeam()
	if err != nil {
		return "", err
	}
	return s.numberer.Next(ctx, teamID, s.clock.Now().Year())
}

func applyTotals(inv *entity.Invoice, req invoicedomain.SaveRequest, totals compute.Totals) {
	inv.Subtotal = totals.Subtotal
	inv.FederalTaxAmount = totals.FederalTax
	inv.ProvincialTaxAmount = totals.ProvincialTax
	inv.TotalAmount = totals.Total
	inv.ApplyFederalTax = req.ApplyFederalTax
	inv.ApplyProvincialTax = req.ApplyProvincialTax
}

func numberTaken(err error) error {
	if errors.Is(err, remote.ErrConflict) {
		return fmt.Errorf("%w: %w", invoicedomain.ErrNumberTaken, err)
	}
	return err
}

func saveOutcome(err error) string {
	var partial *invoicedomain.PartialWriteError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &partial):
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeError
	}
}
