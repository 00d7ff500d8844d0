package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAppt(t *testing.T, status AppointmentStatus, slot TimeSlot, created time.Time) *Appointment {
	t.Helper()
	return &Appointment{
		ID:        uuid.New(),
		PatientID: "p",
		CenterID:  "1",
		TestID:    "9",
		Date:      mustDate(t, tomorrow),
		Time:      slot,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestMemoryStore_InsertIfAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := newAppt(t, StatusScheduled, "09:00", testNow)
	require.NoError(t, s.InsertIfAbsent(ctx, first))

	dup := newAppt(t, StatusScheduled, "09:00", testNow)
	assert.ErrorIs(t, s.InsertIfAbsent(ctx, dup), ErrSlotConflict)

	// Non-occupying rows never block.
	cancelled := newAppt(t, StatusCancelled, "09:00", testNow)
	require.NoError(t, s.InsertIfAbsent(ctx, cancelled))

	_, err := s.FindByID(ctx, dup.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_UpdateStatusReleasesSlot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := newAppt(t, StatusScheduled, "09:00", testNow)
	require.NoError(t, s.InsertIfAbsent(ctx, a))

	_, err := s.UpdateStatus(ctx, a.ID, StatusConfirmed, StatusCompleted, testNow)
	assert.ErrorIs(t, err, ErrAppointmentNotFound, "stale from status")

	updated, err := s.UpdateStatus(ctx, a.ID, StatusScheduled, StatusCancelled, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, testNow.Add(time.Hour), updated.UpdatedAt)

	occupying, err := s.FindOccupying(ctx, "1", mustDate(t, tomorrow))
	require.NoError(t, err)
	assert.Empty(t, occupying)

	require.NoError(t, s.InsertIfAbsent(ctx, newAppt(t, StatusScheduled, "09:00", testNow)))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	a := newAppt(t, StatusScheduled, "09:00", testNow)
	require.NoError(t, s.InsertIfAbsent(ctx, a))

	got, err := s.FindByID(ctx, a.ID)
	require.NoError(t, err)
	got.Status = StatusCancelled

	again, err := s.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, again.Status)
}

func TestSortNewestFirst(t *testing.T) {
	older := *newAppt(t, StatusScheduled, "09:00", testNow)
	newer := *newAppt(t, StatusScheduled, "09:30", testNow.Add(time.Minute))

	appts := []Appointment{older, newer}
	sortNewestFirst(appts)
	assert.Equal(t, newer.ID, appts[0].ID)
	assert.Equal(t, older.ID, appts[1].ID)
}
