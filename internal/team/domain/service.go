package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
)

type BillingInput struct {
	BillingName         string
	BillingAddress      string
	BillingCity         string
	BillingProvince     string
	BillingPostalCode   string
	BillingPhone        string
	FederalTaxNumber    string
	ProvincialTaxNumber string
	FederalTaxRate      decimal.Decimal
	ProvincialTaxRate   decimal.Decimal
}

type CreateTeamRequest struct {
	Name    string
	Billing BillingInput
}

type Service interface {
	Create(ctx context.Context, user entity.User, req CreateTeamRequest) (entity.Team, error)
	Refresh(ctx context.Context) (entity.Team, error)
	UpdateBilling(ctx context.Context, in BillingInput) (entity.Team, error)
	Invite(ctx context.Context, email string, role entity.TeamRole) (entity.TeamMember, error)
	CheckDefaults() error
}

var (
	ErrInvalidName           = errors.New("invalid_name")
	ErrInvalidEmail          = errors.New("invalid_email")
	ErrInvalidRole           = errors.New("invalid_role")
	ErrInvalidRate           = errors.New("invalid_tax_rate")
	ErrMultipleDefaultStatus = errors.New("multiple_default_status")
	ErrAlreadyMember         = errors.New("already_member")
	ErrTeamNotFound          = errors.New("team_not_found")
)
