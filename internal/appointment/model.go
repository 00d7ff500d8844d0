package appointment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// OccupyingStatuses hold their slot. Cancelled and no-show appointments
// release it; a completed one keeps it because the visit took place.
var OccupyingStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusCompleted}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

func (s AppointmentStatus) Occupying() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Appointment struct {
	ID            uuid.UUID
	PatientID     string
	CenterID      string
	TestID        string
	Date          time.Time // UTC midnight of the calendar day
	Time          TimeSlot
	Status        AppointmentStatus
	TotalAmount   decimal.Decimal
	PaymentStatus PaymentStatus
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a *Appointment) Key() SlotKey {
	return SlotKey{CenterID: a.CenterID, Date: a.Date, Time: a.Time}
}

// SlotKey identifies one bookable slot.
type SlotKey struct {
	CenterID string
	Date     time.Time
	Time     TimeSlot
}

func (k SlotKey) String() string {
	return k.CenterID + "|" + FormatDate(k.Date) + "|" + string(k.Time)
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// AppointmentDetail is an appointment joined with its catalog entries.
// Center or Test is nil when the catalog no longer knows the id.
type AppointmentDetail struct {
	Appointment
	Center *catalog.Center
	Test   *catalog.Test
}
