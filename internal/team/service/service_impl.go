package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/internal/team/domain"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo    repository.Deps
	Log     *zap.Logger
	Store   remote.Store
	Session *session.Session
	Cache   *cache.Cache
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	store   remote.Store
	session *session.Session
	cache   *cache.Cache
	clock   clock.Clock
	metrics *metrics.Metrics

	memberrepo repository.Repository[entity.TeamMember]
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("team.service"),
		store:   p.Store,
		session: p.Session,
		cache:   p.Cache,
		clock:   p.Clock,
		metrics: p.Metrics,

		memberrepo: repository.ProvideStore[entity.TeamMember](p.Repo),
	}
}

// Create stores a team owned by user, activates it and seeds the default
// lookup lists. Seed failures are logged and do not fail the creation.
func (s *Service) Create(ctx context.Context, user entity.User, req domain.CreateTeamRequest) (entity.Team, error) {
	if strings.TrimSpace(user.ID) == "" {
		return entity.Team{}, session.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return entity.Team{}, domain.ErrInvalidName
	}
	if req.Billing.FederalTaxRate.IsNegative() || req.Billing.ProvincialTaxRate.IsNegative() {
		return entity.Team{}, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	b := req.Billing
	team := entity.Team{
		ID:                  uuid.NewString(),
		Name:                name,
		Slug:                slug.Make(name),
		OwnerID:             user.ID,
		BillingName:         b.BillingName,
		BillingAddress:      b.BillingAddress,
		BillingCity:         b.BillingCity,
		BillingProvince:     orDefault(b.BillingProvince, defaultProvince),
		BillingPostalCode:   b.BillingPostalCode,
		BillingPhone:        b.BillingPhone,
		FederalTaxNumber:    b.FederalTaxNumber,
		ProvincialTaxNumber: b.ProvincialTaxNumber,
		FederalTaxRate:      b.FederalTaxRate,
		ProvincialTaxRate:   b.ProvincialTaxRate,
		PrimaryColor:        defaultPrimaryColor,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if team.FederalTaxRate.IsZero() {
		team.FederalTaxRate = defaultFederalRate
	}
	if team.ProvincialTaxRate.IsZero() {
		team.ProvincialTaxRate = defaultProvincialRate
	}

	if err := s.insert(ctx, remote.Write{Collection: entity.CollectionTeams}, &team); err != nil {
		return entity.Team{}, err
	}

	member := entity.TeamMember{
		ID:           uuid.NewString(),
		TeamID:       team.ID,
		UserID:       &user.ID,
		Role:         entity.RoleOwner,
		InviteStatus: entity.InviteAccepted,
		AcceptedAt:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.insert(ctx, remote.Write{Collection: entity.CollectionTeamMembers, TeamID: team.ID}, &member); err != nil {
		return entity.Team{}, err
	}
	member.User = nil
	member.Team = nil

	if err := s.session.Activate(user, team, member); err != nil {
		return entity.Team{}, err
	}
	ctx = s.session.Context(ctx)
	if err := s.cache.Add(member); err != nil {
		s.log.Warn("owner membership not cached", zap.Error(err))
	}
	s.seed(ctx, team.ID, now)

	logger.WithContext(ctx, s.log).Info("team created", zap.String("slug", team.Slug))
	return team, nil
}

func (s *Service) seed(ctx context.Context, teamID string, now time.Time) {
	var rows []entity.Record
	for _, st := range defaultProjectStatuses {
		st.ID, st.TeamID, st.CreatedAt = uuid.NewString(), teamID, now
		rows = append(rows, &st)
	}
	for _, pt := range defaultProjectTypes {
		pt.ID, pt.TeamID, pt.CreatedAt = uuid.NewString(), teamID, now
		rows = append(rows, &pt)
	}
	for _, ts := range defaultTaskStatuses {
		ts.ID, ts.TeamID, ts.CreatedAt, ts.UpdatedAt = uuid.NewString(), teamID, now, now
		rows = append(rows, &ts)
	}

	log := logger.WithContext(ctx, s.log)
	for _, row := range rows {
		w := remote.Write{Collection: row.Collection(), TeamID: teamID}
		if err := s.insert(ctx, w, row); err != nil {
			log.Warn("default lookup not seeded", zap.String("collection", string(row.Collection())), zap.Error(err))
			continue
		}
		if err := s.cache.Add(row); err != nil {
			log.Warn("default lookup not cached", zap.Error(err))
		}
	}
}

// Refresh reloads the active team row, picking up billing edits made
// elsewhere.
func (s *Service) Refresh(ctx context.Context) (entity.Team, error) {
	teamID, err := s.session.RequireTeam()
	if err != nil {
		return entity.Team{}, err
	}

	var teams []entity.Team
	err = s.store.Select(ctx, remote.Query{
		Collection: entity.CollectionTeams,
		Eq:         map[string]any{"id": teamID},
		Limit:      1,
	}, &teams)
	if err != nil {
		return entity.Team{}, err
	}
	if len(teams) == 0 {
		return entity.Team{}, domain.ErrTeamNotFound
	}
	s.session.ReplaceTeam(teams[0])
	return teams[0], nil
}

func (s *Service) UpdateBilling(ctx context.Context, in domain.BillingInput) (entity.Team, error) {
	if err := s.session.Require(session.ActionEdit); err != nil {
		return entity.Team{}, err
	}
	teamID, err := s.session.RequireTeam()
	if err != nil {
		return entity.Team{}, err
	}
	if in.FederalTaxRate.IsNegative() || in.ProvincialTaxRate.IsNegative() {
		return entity.Team{}, domain.ErrInvalidRate
	}

	patch := map[string]any{
		"billing_name":        in.BillingName,
		"billing_address":     in.BillingAddress,
		"billing_city":        in.BillingCity,
		"billing_province":    in.BillingProvince,
		"billing_postal_code": in.BillingPostalCode,
		"billing_phone":       in.BillingPhone,
		"tps_number":          in.FederalTaxNumber,
		"tvq_number":          in.ProvincialTaxNumber,
		"tps_rate":            in.FederalTaxRate,
		"tvq_rate":            in.ProvincialTaxRate,
		"updated_at":          s.clock.Now(),
	}

	var team entity.Team
	err = s.store.Update(s.session.Context(ctx), remote.Write{Collection: entity.CollectionTeams, TeamID: teamID}, teamID, patch, &team)
	s.recordWrite(ctx, entity.CollectionTeams, remote.OpUpdate, err)
	if err != nil {
		return entity.Team{}, err
	}
	s.session.ReplaceTeam(team)
	return team, nil
}

// Invite records a pending membership for email.
func (s *Service) Invite(ctx context.Context, email string, role entity.TeamRole) (entity.TeamMember, error) {
	if err := s.session.Require(session.ActionInvite); err != nil {
		return entity.TeamMember{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return entity.TeamMember{}, domain.ErrInvalidEmail
	}
	switch role {
	case entity.RoleAdmin, entity.RoleMember, entity.RoleViewer:
	default:
		return entity.TeamMember{}, domain.ErrInvalidRole
	}
	for _, m := range s.cache.TeamMembers() {
		if m.InvitedEmail != nil && strings.EqualFold(*m.InvitedEmail, email) && m.InviteStatus != entity.InviteDeclined && m.InviteStatus != entity.InviteExpired {
			return entity.TeamMember{}, domain.ErrAlreadyMember
		}
	}

	now := s.clock.Now()
	member := entity.TeamMember{
		Role:         role,
		InvitedEmail: &email,
		InviteStatus: entity.InvitePending,
		InvitedAt:    &now,
	}
	if user, ok := s.session.User(); ok {
		member.InvitedBy = &user.ID
	}
	if err := s.memberrepo.Create(s.session.Context(ctx), &member); err != nil {
		return entity.TeamMember{}, err
	}
	return member, nil
}

// CheckDefaults validates the cached project and task statuses.
func (s *Service) CheckDefaults() error {
	return errors.Join(
		ValidateDefaultStatus(s.cache.ProjectStatuses(), func(st entity.ProjectStatus) bool { return st.IsDefault }),
		ValidateDefaultStatus(s.cache.TaskStatuses(), func(st entity.TaskStatus) bool { return st.IsDefault }),
	)
}

func (s *Service) insert(ctx context.Context, w remote.Write, row any) error {
	err := s.store.Insert(ctx, w, row)
	s.recordWrite(ctx, w.Collection, remote.OpInsert, err)
	return err
}

func (s *Service) recordWrite(ctx context.Context, collection entity.Collection, op string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.RecordRemoteWrite(ctx, string(collection), op, outcome)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
