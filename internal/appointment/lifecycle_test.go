package appointment

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

func book(t *testing.T, f *fixture, p *identity.Principal, req BookingRequest) *Appointment {
	t.Helper()
	appt, err := f.svc.BookAppointment(context.Background(), p, req)
	require.NoError(t, err)
	return appt
}

func TestCanTransition(t *testing.T) {
	all := []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow}
	allowed := map[[2]AppointmentStatus]bool{
		{StatusScheduled, StatusConfirmed}: true,
		{StatusScheduled, StatusCancelled}: true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusConfirmed, StatusNoShow}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]AppointmentStatus{from, to}], CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_HappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

	f.advance(time.Minute)
	confirmed, err := f.svc.Transition(ctx, centerOne, appt.ID.String(), StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, testNow.Add(time.Minute), confirmed.UpdatedAt)
	assert.Equal(t, appt.CreatedAt, confirmed.CreatedAt)

	f.advance(time.Minute)
	done, err := f.svc.Transition(ctx, admin, appt.ID.String(), StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, testNow.Add(2*time.Minute), done.UpdatedAt)

	// Only status and timestamps change.
	assert.Equal(t, appt.Date, done.Date)
	assert.Equal(t, appt.Time, done.Time)
	assert.Equal(t, appt.TestID, done.TestID)
	assert.True(t, appt.TotalAmount.Equal(done.TotalAmount))

	// Completed keeps the slot.
	slots, err := f.svc.AvailableSlots(ctx, "1", tomorrow)
	require.NoError(t, err)
	assert.Equal(t, []TimeSlot{"09:00"}, bookedLabels(slots))

	events := f.store.Events()
	require.Len(t, events, 3)
	assert.Equal(t, EventAppointmentStatusChanged, events[2].EventType)
}

func TestTransition_OwnershipBeatsEverything(t *testing.T) {
	statuses := []AppointmentStatus{StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow, StatusScheduled}
	for _, to := range statuses {
		t.Run(string(to), func(t *testing.T) {
			f := newFixture(t)
			appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

			_, err := f.svc.Transition(context.Background(), bob, appt.ID.String(), to)
			assert.ErrorIs(t, err, ErrForbidden)

			stored, err := f.store.FindByID(context.Background(), appt.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusScheduled, stored.Status)
		})
	}
}

func TestTransition_Permissions(t *testing.T) {
	tests := []struct {
		name      string
		principal *identity.Principal
		to        AppointmentStatus
		wantErr   error
	}{
		{name: "owner cancels", principal: alice, to: StatusCancelled},
		{name: "owner cannot confirm", principal: alice, to: StatusConfirmed, wantErr: ErrForbidden},
		{name: "admin cannot cancel for patient", principal: admin, to: StatusCancelled, wantErr: ErrForbidden},
		{name: "admin confirms", principal: admin, to: StatusConfirmed},
		{name: "center admin confirms own center", principal: centerOne, to: StatusConfirmed},
		{name: "center admin of other center", principal: centerTwo, to: StatusConfirmed, wantErr: ErrForbidden},
		{name: "super admin confirms", principal: superAdmin, to: StatusConfirmed},
		{name: "nobody", principal: nil, to: StatusCancelled, wantErr: ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

			updated, err := f.svc.Transition(context.Background(), tt.principal, appt.ID.String(), tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, updated)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}
}

func TestTransition_StateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))
	id := appt.ID.String()

	_, err := f.svc.Transition(ctx, admin, id, StatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition, "scheduled cannot complete")

	_, err = f.svc.Transition(ctx, admin, id, StatusNoShow)
	assert.ErrorIs(t, err, ErrInvalidTransition, "scheduled cannot be a no-show")

	_, err = f.svc.Transition(ctx, alice, id, StatusCancelled)
	require.NoError(t, err)

	_, err = f.svc.Transition(ctx, alice, id, StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition, "cancelling twice is rejected, not a no-op")

	_, err = f.svc.Transition(ctx, admin, id, StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition, "terminal states stay terminal")
}

func TestTransition_BadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

	_, err := f.svc.Transition(ctx, alice, appt.ID.String(), AppointmentStatus("archived"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Transition(ctx, alice, "not-a-uuid", StatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Transition(ctx, alice, uuid.NewString(), StatusCancelled)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransition_ConcurrentCancelOnlyOnce(t *testing.T) {
	f := newFixture(t)
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

	const n = 20
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Transition(context.Background(), alice, appt.ID.String(), StatusCancelled)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, ok)
}

func TestListAppointments_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a1 := book(t, f, alice, chestXRay(tomorrow, "09:00"))
	f.advance(time.Second)
	b1 := book(t, f, bob, chestXRay(tomorrow, "09:30"))
	f.advance(time.Second)
	a2 := book(t, f, alice, BookingRequest{CenterID: "2", TestID: "2-1", Date: tomorrow, Time: "09:00"})

	mine, err := f.svc.ListAppointments(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, a2.ID, mine[0].ID, "newest first")
	assert.Equal(t, a1.ID, mine[1].ID)
	require.NotNil(t, mine[1].Test)
	assert.Equal(t, "Chest X-Ray", mine[1].Test.Name)
	require.NotNil(t, mine[1].Center)
	assert.Equal(t, "Apollo Diagnostics", mine[1].Center.Name)

	all, err := f.svc.ListAppointments(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{a2.ID, b1.ID, a1.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	centerView, err := f.svc.ListAppointments(ctx, centerOne)
	require.NoError(t, err)
	require.Len(t, centerView, 2)
	assert.Equal(t, b1.ID, centerView[0].ID)

	_, err = f.svc.ListAppointments(ctx, nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.svc.ListAppointments(ctx, &identity.Principal{ID: "x", Role: identity.RoleDiagnosticCenterAdmin})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGetAppointment_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

	got, err := f.svc.GetAppointment(ctx, alice, appt.ID.String())
	require.NoError(t, err)
	assert.Equal(t, appt.ID, got.ID)

	_, err = f.svc.GetAppointment(ctx, centerOne, appt.ID.String())
	require.NoError(t, err)

	_, err = f.svc.GetAppointment(ctx, bob, appt.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.GetAppointment(ctx, centerTwo, appt.ID.String())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMarkNoShows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	past := book(t, f, alice, chestXRay(tomorrow, "09:00"))
	future := book(t, f, bob, chestXRay("2026-10-20", "09:00"))
	unconfirmed := book(t, f, bob, chestXRay(tomorrow, "10:00"))

	for _, a := range []*Appointment{past, future} {
		_, err := f.svc.Transition(ctx, admin, a.ID.String(), StatusConfirmed)
		require.NoError(t, err)
	}

	_, err := f.svc.MarkNoShows(ctx, alice, testNow)
	assert.ErrorIs(t, err, ErrForbidden)

	f.advance(72 * time.Hour) // 2026-10-20 08:00
	moved, err := f.svc.MarkNoShows(ctx, superAdmin, f.clock.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	got, err := f.store.FindByID(ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNoShow, got.Status)

	got, err = f.store.FindByID(ctx, future.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	got, err = f.store.FindByID(ctx, unconfirmed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
}

func TestTransition_UnknownStatusDoesNotGrowMetricSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	appt := book(t, f, alice, chestXRay(tomorrow, "09:00"))

	for i := 0; i < 50; i++ {
		_, err := f.svc.Transition(ctx, alice, appt.ID.String(), AppointmentStatus(fmt.Sprintf("junk-%d", i)))
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	assert.Equal(t, 1, testutil.CollectAndCount(f.metrics.Transitions))
	assert.Equal(t, 50.0, testutil.ToFloat64(f.metrics.Transitions.WithLabelValues("invalid", "invalid_input")))
}

type countingCatalog struct {
	catalog.Provider
	mu      sync.Mutex
	centers int
	tests   int
}

func (c *countingCatalog) GetCenter(ctx context.Context, id string) (*catalog.Center, error) {
	c.mu.Lock()
	c.centers++
	c.mu.Unlock()
	return c.Provider.GetCenter(ctx, id)
}

func (c *countingCatalog) GetTest(ctx context.Context, id string) (*catalog.Test, error) {
	c.mu.Lock()
	c.tests++
	c.mu.Unlock()
	return c.Provider.GetTest(ctx, id)
}

func TestListAppointments_ReadsCatalogOncePerID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, slot := range []string{"09:00", "09:30", "10:00", "10:30"} {
		book(t, f, alice, chestXRay(tomorrow, slot))
	}
	book(t, f, alice, BookingRequest{CenterID: "2", TestID: "2-1", Date: tomorrow, Time: "09:00"})

	counting := &countingCatalog{Provider: catalog.NewSeeded()}
	f.svc.catalog = counting

	list, err := f.svc.ListAppointments(ctx, admin)
	require.NoError(t, err)
	require.Len(t, list, 5)
	for _, d := range list {
		assert.NotNil(t, d.Center)
		assert.NotNil(t, d.Test)
	}
	assert.Equal(t, 2, counting.centers)
	assert.Equal(t, 2, counting.tests)
}
