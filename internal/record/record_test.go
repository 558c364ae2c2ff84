package record

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/apptest"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecords(t *testing.T, role entity.TeamRole) (*Records, *apptest.Harness) {
	t.Helper()
	h := apptest.New(t, role)
	return New(Params{Repo: h.Deps, Session: h.Session, Cache: h.Cache, Clock: h.Clock}), h
}

func TestExpenseLifecycle(t *testing.T) {
	r, h := newRecords(t, entity.RoleMember)
	ctx := context.Background()

	first, err := r.Expenses.Create(ctx, entity.Expense{Name: "Camera rental", Amount: decimal.NewFromInt(250), Date: apptest.Now})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, apptest.TeamID, first.TeamID)

	second, err := r.Expenses.Create(ctx, entity.Expense{Name: "Fuel", Amount: decimal.NewFromInt(40), Date: apptest.Now})
	require.NoError(t, err)

	listed := r.Expenses.List()
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID, "newest first")

	updated, err := r.Expenses.Update(ctx, first.ID, map[string]any{"amount": decimal.NewFromInt(300)})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(300)))
	cached, err := r.Expenses.Get(first.ID)
	require.NoError(t, err)
	assert.True(t, cached.Amount.Equal(decimal.NewFromInt(300)))

	_, err = r.Expenses.Update(ctx, first.ID, map[string]any{"team_id": "team-b"})
	assert.ErrorIs(t, err, ErrUnknownField)

	err = r.Expenses.Delete(ctx, first.ID)
	assert.ErrorIs(t, err, session.ErrForbidden, "members cannot delete")
	assert.Len(t, h.Cache.Expenses(), 2)
}

func TestCreateValidates(t *testing.T) {
	r, _ := newRecords(t, entity.RoleOwner)
	ctx := context.Background()

	_, err := r.Expenses.Create(ctx, entity.Expense{Name: " ", Date: apptest.Now})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Expenses.Create(ctx, entity.Expense{Name: "Ghost", Date: apptest.Now, ProjectID: apptest.Ptr("missing")})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Tasks.Create(ctx, entity.Task{Title: "Edit", Priority: "whenever"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Availability.Create(ctx, entity.TeamAvailability{DayOfWeek: 1, StartTime: "17:00", EndTime: "09:00"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Availability.Create(ctx, entity.TeamAvailability{DayOfWeek: 7, StartTime: "09:00", EndTime: "17:00"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = r.Services.Create(ctx, entity.Service{Name: "Shoot", DurationMinutes: 0})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestFailedWriteLeavesCacheUntouched(t *testing.T) {
	r, h := newRecords(t, entity.RoleOwner)
	h.Store.FailOn(remote.OpInsert, entity.CollectionTasks, remote.ErrUnavailable, 1)

	_, err := r.Tasks.Create(context.Background(), entity.Task{Title: "Color grade"})
	assert.ErrorIs(t, err, remote.ErrUnavailable)
	assert.Empty(t, h.Cache.Tasks())
}

func TestCompleteAndReopenTask(t *testing.T) {
	r, h := newRecords(t, entity.RoleMember)
	ctx := context.Background()
	todo := entity.TaskStatus{ID: "ts-todo", TeamID: apptest.TeamID, Name: "To Do", IsDefault: true}
	done := entity.TaskStatus{ID: "ts-done", TeamID: apptest.TeamID, Name: "Done", SortOrder: 2, IsCompleted: true}
	h.Seed(t, &todo, &done)
	require.NoError(t, h.Cache.Add(todo))
	require.NoError(t, h.Cache.Add(done))

	task, err := r.Tasks.Create(ctx, entity.Task{Title: "Deliver cut", StatusID: apptest.Ptr("ts-todo")})
	require.NoError(t, err)

	task, err = r.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(apptest.Now))
	assert.Equal(t, "ts-done", *task.StatusID)

	task, err = r.ReopenTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, "ts-todo", *task.StatusID)
}

func TestBookingTransitions(t *testing.T) {
	r, h := newRecords(t, entity.RoleAdmin)
	ctx := context.Background()

	svc, err := r.Services.Create(ctx, entity.Service{Name: "Portrait session", DurationMinutes: 60, Price: decimal.NewFromInt(150), IsActive: true})
	require.NoError(t, err)

	start := apptest.Now.Add(48 * time.Hour)
	_, err = r.Bookings.Create(ctx, entity.Booking{ServiceID: svc.ID, Title: "Backwards", StartTime: start, EndTime: start.Add(-time.Hour)})
	assert.ErrorIs(t, err, ErrInvalid)

	booking, err := r.Bookings.Create(ctx, entity.Booking{
		ServiceID: svc.ID,
		Title:     "Portrait",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    entity.BookingPending,
	})
	require.NoError(t, err)

	booking, err = r.ConfirmBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingConfirmed, booking.Status)
	require.NotNil(t, booking.ConfirmedBy)
	assert.Equal(t, "user-1", *booking.ConfirmedBy)

	_, err = r.ConfirmBooking(ctx, booking.ID)
	assert.ErrorIs(t, err, ErrInvalid)

	booking, err = r.CancelBooking(ctx, booking.ID, " client sick ")
	require.NoError(t, err)
	assert.Equal(t, entity.BookingCancelled, booking.Status)
	assert.Equal(t, "client sick", *booking.CancellationReason)

	cached := h.Cache.Bookings()
	require.Len(t, cached, 1)
	assert.Equal(t, entity.BookingCancelled, cached[0].Status)
}

func TestDeleteRemovesFromCache(t *testing.T) {
	r, h := newRecords(t, entity.RoleOwner)
	ctx := context.Background()

	cat, err := r.Categories.Create(ctx, entity.ServiceCategory{Name: "Photo", IsActive: true})
	require.NoError(t, err)
	require.NoError(t, r.Categories.Delete(ctx, cat.ID))
	assert.Empty(t, h.Cache.ServiceCategories())

	assert.ErrorIs(t, r.Categories.Delete(ctx, cat.ID), ErrNotFound)
	assert.ErrorIs(t, r.Categories.Delete(ctx, ""), ErrInvalidID)
}
