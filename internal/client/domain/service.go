package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/guard"
)

// ClientInput carries the editable client fields.
type ClientInput struct {
	Name                 string
	Email                string
	Phone                string
	BillingName          string
	Address              string
	City                 string
	Province             string
	PostalCode           string
	OtherInfo            string
	Notes                string
	ChargeTaxesByDefault bool
}

// DeleteResult tells whether the client was deleted. A blocked delete is a
// normal result, not an error.
type DeleteResult struct {
	Deleted bool
	Verdict guard.Verdict
}

type Service interface {
	Create(ctx context.Context, in ClientInput) (entity.Client, error)
	Update(ctx context.Context, id string, in ClientInput) (entity.Client, error)
	Delete(ctx context.Context, id string) (DeleteResult, error)
	CanDelete(ctx context.Context, id string) (guard.Verdict, error)
	EnablePortal(ctx context.Context, id string) (entity.Client, error)
	DisablePortal(ctx context.Context, id string) (entity.Client, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
)
