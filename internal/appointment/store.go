package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence collaborator. Implementations must make
// InsertIfAbsent atomic with respect to the occupying-status uniqueness rule
// and UpdateStatus a compare-and-set on the current status.
type Store interface {
	// InsertIfAbsent persists appt unless another occupying appointment holds
	// the same slot key, in which case it returns ErrSlotConflict.
	InsertIfAbsent(ctx context.Context, appt *Appointment) error

	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// Listings are newest-created first.
	FindByPatient(ctx context.Context, patientID string) ([]Appointment, error)
	FindByCenter(ctx context.Context, centerID string) ([]Appointment, error)
	FindAll(ctx context.Context) ([]Appointment, error)

	// FindOccupying returns the occupying appointments of one center and day.
	FindOccupying(ctx context.Context, centerID string, date time.Time) ([]Appointment, error)

	// UpdateStatus moves id from -> to. ErrAppointmentNotFound means the row is
	// missing or no longer in status from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, at time.Time) (*Appointment, error)

	// FindConfirmedBefore feeds the no-show sweep.
	FindConfirmedBefore(ctx context.Context, date time.Time) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
