package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/project/domain"
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
	Clock   clock.Clock
}

type Service struct {
	log     *zap.Logger
	session *session.Session
	cache   *cache.Cache
	clock   clock.Clock
	repo    repository.Repository[entity.Project]
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("project.service"),
		session: p.Session,
		cache:   p.Cache,
		clock:   p.Clock,
		repo:    repository.ProvideStore[entity.Project](p.Repo),
	}
}

// Create files a new project. Without an explicit status it starts in the
// team's default project status.
func (s *Service) Create(ctx context.Context, in domain.ProjectInput) (entity.Project, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Project{}, err
	}
	in, err := s.validate(in)
	if err != nil {
		return entity.Project{}, err
	}
	if in.StatusID == nil {
		in.StatusID = s.defaultStatus()
	}

	project := entity.Project{
		Name:          in.Name,
		ClientID:      in.ClientID,
		StatusID:      in.StatusID,
		ProjectTypeID: in.ProjectTypeID,
		Deadline:      in.Deadline,
		Notes:         in.Notes,
		ClientVisible: in.ClientVisible,
	}
	if err := s.repo.Create(s.session.Context(ctx), &project); err != nil {
		return entity.Project{}, err
	}
	return project, nil
}

func (s *Service) Update(ctx context.Context, id string, in domain.ProjectInput) (entity.Project, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Project{}, err
	}
	if _, err := s.cached(id); err != nil {
		return entity.Project{}, err
	}
	in, err := s.validate(in)
	if err != nil {
		return entity.Project{}, err
	}

	return s.repo.Update(s.session.Context(ctx), id, map[string]any{
		"name":            in.Name,
		"client_id":       in.ClientID,
		"status_id":       in.StatusID,
		"project_type_id": in.ProjectTypeID,
		"deadline":        in.Deadline,
		"notes":           in.Notes,
		"client_visible":  in.ClientVisible,
	})
}

// Archive hides the project from active views. The row stays in the store
// and in the cache.
func (s *Service) Archive(ctx context.Context, id string) (entity.Project, error) {
	return s.setArchived(ctx, id, true)
}

func (s *Service) Unarchive(ctx context.Context, id string) (entity.Project, error) {
	return s.setArchived(ctx, id, false)
}

func (s *Service) setArchived(ctx context.Context, id string, archived bool) (entity.Project, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Project{}, err
	}
	if _, err := s.cached(id); err != nil {
		return entity.Project{}, err
	}

	patch := map[string]any{"is_archived": archived, "archived_at": nil}
	if archived {
		patch["archived_at"] = s.clock.Now()
	}

	ctx = s.session.Context(ctx)
	project, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return entity.Project{}, err
	}
	logger.WithContext(ctx, s.log).Info("project archive toggled",
		zap.String("project_id", id),
		zap.Bool("archived", archived),
	)
	return project, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.session.Require(session.ActionDelete); err != nil {
		return err
	}
	if _, err := s.cached(id); err != nil {
		return err
	}
	return s.repo.Delete(s.session.Context(ctx), id)
}

func (s *Service) validate(in domain.ProjectInput) (domain.ProjectInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, domain.ErrInvalidName
	}
	if in.ClientID != nil {
		if _, ok := s.cache.Client(*in.ClientID); !ok {
			return in, domain.ErrUnknownClient
		}
	}
	if in.StatusID != nil && !containsID(s.cache.ProjectStatuses(), *in.StatusID) {
		return in, domain.ErrUnknownStatus
	}
	if in.ProjectTypeID != nil && !containsID(s.cache.ProjectTypes(), *in.ProjectTypeID) {
		return in, domain.ErrUnknownType
	}
	return in, nil
}

func (s *Service) defaultStatus() *string {
	for _, status := range s.cache.ProjectStatuses() {
		if status.IsDefault {
			id := status.ID
			return &id
		}
	}
	return nil
}

func (s *Service) cached(id string) (entity.Project, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entity.Project{}, domain.ErrInvalidID
	}
	project, ok := s.cache.Project(id)
	if !ok {
		return entity.Project{}, domain.ErrNotFound
	}
	return project, nil
}

func containsID[T entity.Record](records []T, id string) bool {
	for _, r := range records {
		if r.RecordID() == id {
			return true
		}
	}
	return false
}
