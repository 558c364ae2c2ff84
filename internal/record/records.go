package record

import (
	"context"
	"strings"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Repo    repository.Deps
	Session *session.Session
	Cache   *cache.Cache
	Clock   clock.Clock
}

// Records groups the per-collection stores.
type Records struct {
	Expenses     *Store[entity.Expense]
	Tasks        *Store[entity.Task]
	Bookings     *Store[entity.Booking]
	Services     *Store[entity.Service]
	Categories   *Store[entity.ServiceCategory]
	Availability *Store[entity.TeamAvailability]
	BlockedTimes *Store[entity.BlockedTime]

	session *session.Session
	cache   *cache.Cache
	clock   clock.Clock
}

func New(p Params) *Records {
	d, sess, c := p.Repo, p.Session, p.Cache
	return &Records{
		Expenses: newStore(d, sess, c, validateExpense,
			"name", "amount", "category", "date", "is_recurring", "frequency", "notes", "project_id"),
		Tasks: newStore(d, sess, c, validateTask,
			"title", "description", "priority", "due_date", "status_id", "project_id", "assigned_to", "is_client_visible"),
		Bookings: newStore(d, sess, c, validateBooking,
			"title", "start_time", "end_time", "notes", "internal_notes", "client_id", "project_id", "assigned_to",
			"guest_name", "guest_email", "guest_phone"),
		Services: newStore(d, sess, c, validateService,
			"name", "description", "duration_minutes", "price", "lead_time_hours", "buffer_minutes",
			"max_advance_days", "is_active", "sort_order", "category_id"),
		Categories: newStore(d, sess, c, validateCategory,
			"name", "description", "color", "sort_order", "is_active"),
		Availability: newStore(d, sess, c, validateAvailability,
			"day_of_week", "start_time", "end_time", "is_available", "team_member_id"),
		BlockedTimes: newStore(d, sess, c, validateBlockedTime,
			"title", "start_time", "end_time", "is_all_day", "notes", "is_recurring", "recurrence_type", "recurrence_end_date"),

		session: sess,
		cache:   c,
		clock:   p.Clock,
	}
}

// CompleteTask moves a task to the team's completed status and stamps it.
func (r *Records) CompleteTask(ctx context.Context, id string) (entity.Task, error) {
	if _, err := r.Tasks.Get(id); err != nil {
		return entity.Task{}, err
	}
	patch := map[string]any{"completed_at": r.clock.Now()}
	for _, st := range r.cache.TaskStatuses() {
		if st.IsCompleted {
			patch["status_id"] = st.ID
			break
		}
	}
	return r.Tasks.repoUpdate(ctx, id, patch)
}

// ReopenTask clears completion and returns the task to the default status.
func (r *Records) ReopenTask(ctx context.Context, id string) (entity.Task, error) {
	if _, err := r.Tasks.Get(id); err != nil {
		return entity.Task{}, err
	}
	patch := map[string]any{"completed_at": nil}
	for _, st := range r.cache.TaskStatuses() {
		if st.IsDefault {
			patch["status_id"] = st.ID
			break
		}
	}
	return r.Tasks.repoUpdate(ctx, id, patch)
}

func (r *Records) ConfirmBooking(ctx context.Context, id string) (entity.Booking, error) {
	b, err := r.Bookings.Get(id)
	if err != nil {
		return entity.Booking{}, err
	}
	if b.Status != entity.BookingPending {
		return entity.Booking{}, invalid("booking is %s", b.Status)
	}
	patch := map[string]any{
		"status":       entity.BookingConfirmed,
		"confirmed_at": r.clock.Now(),
	}
	if user, ok := r.session.User(); ok {
		patch["confirmed_by"] = user.ID
	}
	return r.Bookings.repoUpdate(ctx, id, patch)
}

func (r *Records) CancelBooking(ctx context.Context, id, reason string) (entity.Booking, error) {
	b, err := r.Bookings.Get(id)
	if err != nil {
		return entity.Booking{}, err
	}
	switch b.Status {
	case entity.BookingCancelled, entity.BookingCompleted:
		return entity.Booking{}, invalid("booking is %s", b.Status)
	}
	patch := map[string]any{
		"status":       entity.BookingCancelled,
		"cancelled_at": r.clock.Now(),
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		patch["cancellation_reason"] = reason
	}
	return r.Bookings.repoUpdate(ctx, id, patch)
}

// repoUpdate writes columns outside the user-editable set, such as status
// transitions.
func (s *Store[T]) repoUpdate(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if err := s.session.Require(session.ActionEdit); err != nil {
		return zero, err
	}
	return s.repo.Update(s.session.Context(ctx), id, patch)
}
