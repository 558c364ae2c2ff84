package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/client/domain"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/guard"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo    repository.Deps
	Log     *zap.Logger
	Session *session.Session
	Cache   *cache.Cache
	Guard   *guard.Guard
}

type Service struct {
	log     *zap.Logger
	session *session.Session
	cache   *cache.Cache
	guard   *guard.Guard
	repo    repository.Repository[entity.Client]
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("client.service"),
		session: p.Session,
		cache:   p.Cache,
		guard:   p.Guard,
		repo:    repository.ProvideStore[entity.Client](p.Repo),
	}
}

func (s *Service) Create(ctx context.Context, in domain.ClientInput) (entity.Client, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Client{}, err
	}
	in, err := normalize(in)
	if err != nil {
		return entity.Client{}, err
	}

	client := entity.Client{
		Name:                 in.Name,
		Email:                in.Email,
		Phone:                in.Phone,
		BillingName:          in.BillingName,
		Address:              in.Address,
		City:                 in.City,
		Province:             in.Province,
		PostalCode:           in.PostalCode,
		OtherInfo:            in.OtherInfo,
		Notes:                in.Notes,
		ChargeTaxesByDefault: in.ChargeTaxesByDefault,
	}
	if err := s.repo.Create(s.session.Context(ctx), &client); err != nil {
		return entity.Client{}, err
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, id string, in domain.ClientInput) (entity.Client, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Client{}, err
	}
	if _, err := s.cached(id); err != nil {
		return entity.Client{}, err
	}
	in, err := normalize(in)
	if err != nil {
		return entity.Client{}, err
	}

	return s.repo.Update(s.session.Context(ctx), id, map[string]any{
		"name":                    in.Name,
		"email":                   in.Email,
		"phone":                   in.Phone,
		"billing_name":            in.BillingName,
		"address":                 in.Address,
		"city":                    in.City,
		"province":                in.Province,
		"postal_code":             in.PostalCode,
		"other_info":              in.OtherInfo,
		"notes":                   in.Notes,
		"charge_taxes_by_default": in.ChargeTaxesByDefault,
	})
}

func (s *Service) CanDelete(_ context.Context, id string) (guard.Verdict, error) {
	if _, err := s.session.RequireTeam(); err != nil {
		return guard.Verdict{}, err
	}
	if _, err := s.cached(id); err != nil {
		return guard.Verdict{}, err
	}
	return s.guard.CanDeleteClient(id), nil
}

// Delete checks the cached dependents first and only then asks the store.
// The store may still refuse when the cache is stale; that error is returned.
func (s *Service) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	if err := s.session.Require(session.ActionDelete); err != nil {
		return domain.DeleteResult{}, err
	}
	verdict, err := s.CanDelete(ctx, id)
	if err != nil {
		return domain.DeleteResult{}, err
	}
	ctx = s.session.Context(ctx)
	log := logger.WithContext(ctx, s.log).With(zap.String("client_id", id))
	if !verdict.Allowed {
		log.Info("client delete blocked",
			zap.Int("projects", verdict.Projects),
			zap.Int("invoices", verdict.Invoices),
		)
		return domain.DeleteResult{Verdict: verdict}, nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.Warn("client delete rejected", zap.Error(err))
		return domain.DeleteResult{Verdict: verdict}, err
	}
	log.Info("client deleted")
	return domain.DeleteResult{Deleted: true, Verdict: verdict}, nil
}

// EnablePortal turns on portal access, issuing a code when the client has none.
func (s *Service) EnablePortal(ctx context.Context, id string) (entity.Client, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Client{}, err
	}
	client, err := s.cached(id)
	if err != nil {
		return entity.Client{}, err
	}

	patch := map[string]any{"portal_enabled": true}
	if client.PortalCode == nil || *client.PortalCode == "" {
		code, err := GeneratePortalCode()
		if err != nil {
			return entity.Client{}, err
		}
		patch["portal_code"] = code
	}
	return s.repo.Update(s.session.Context(ctx), id, patch)
}

// DisablePortal turns off portal access and keeps the code.
func (s *Service) DisablePortal(ctx context.Context, id string) (entity.Client, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Client{}, err
	}
	if _, err := s.cached(id); err != nil {
		return entity.Client{}, err
	}
	return s.repo.Update(s.session.Context(ctx), id, map[string]any{"portal_enabled": false})
}

func (s *Service) cached(id string) (entity.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.Client{}, domain.ErrInvalidID
	}
	client, ok := s.cache.Client(id)
	if !ok {
		return entity.Client{}, domain.ErrNotFound
	}
	return client, nil
}

func normalize(in domain.ClientInput) (domain.ClientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domain.ErrInvalidName
	}
	in.Email = strings.TrimSpace(in.Email)
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return in, domain.ErrInvalidEmail
	}
	in.Phone = strings.TrimSpace(in.Phone)
	in.PostalCode = strings.ToUpper(strings.TrimSpace(in.PostalCode))
	return in, nil
}
