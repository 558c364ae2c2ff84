package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/siino/internal/entity"
)

type ProjectInput struct {
	Name          string
	ClientID      *string
	StatusID      *string
	ProjectTypeID *string
	Deadline      *time.Time
	Notes         string
	ClientVisible bool
}

type Service interface {
	Create(ctx context.Context, in ProjectInput) (entity.Project, error)
	Update(ctx context.Context, id string, in ProjectInput) (entity.Project, error)
	Archive(ctx context.Context, id string) (entity.Project, error)
	Unarchive(ctx context.Context, id string) (entity.Project, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
	ErrUnknownClient = errors.New("unknown_client")
	ErrUnknownStatus = errors.New("unknown_status")
	ErrUnknownType   = errors.New("unknown_project_type")
)
