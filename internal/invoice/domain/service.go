// Package domain defines the invoice service contract.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/invoice/compute"
)

var (
	ErrNotFound          = errors.New("invoice_not_found")
	ErrNumberTaken       = errors.New("invoice_number_taken")
	ErrInvalidStatus     = errors.New("invalid_invoice_status")
	ErrInvalidTransition = errors.New("invalid_invoice_transition")
	ErrInvalidDates      = errors.New("invalid_invoice_dates")
	ErrUnknownClient     = errors.New("unknown_client")
)

// SaveRequest creates an invoice when ID is empty and edits it otherwise.
type SaveRequest struct {
	ID       string
	ClientID *string

	// InvoiceNumber is issued by the numberer when empty on create and kept
	// when empty on edit.
	InvoiceNumber string
	Status        entity.InvoiceStatus
	IssueDate     time.Time
	DueDate       *time.Time

	ApplyFederalTax    bool
	ApplyProvincialTax bool

	Notes         string
	ClientVisible bool
	Lines         []compute.Line
}

// PartialWriteError reports an invoice that was stored without all of its
// line items.
type PartialWriteError struct {
	InvoiceID   string
	Inserted    int
	Expected    int
	Compensated bool
	Err         error
}

func (e *PartialWriteError) Error() string {
	state := "kept"
	if e.Compensated {
		state = "removed"
	}
	return fmt.Sprintf("invoice %s: %d of %d line items saved, invoice %s: %v", e.InvoiceID, e.Inserted, e.Expected, state, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

type Service interface {
	Save(ctx context.Context, req SaveRequest) (entity.Invoice, error)
	MarkPaid(ctx context.Context, id string) (entity.Invoice, error)
	SetStatus(ctx context.Context, id string, status entity.InvoiceStatus) (entity.Invoice, error)
	Delete(ctx context.Context, id string) error
	NextNumber(ctx context.Context) (string, error)
}
