package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

type BookingRequest struct {
	CenterID string `validate:"required"`
	TestID   string `validate:"required"`
	Date     string `validate:"required,datetime=2006-01-02"`
	Time     string `validate:"required,datetime=15:04"`
	Notes    string `validate:"max=500"`
}

func (r *BookingRequest) normalize() {
	r.CenterID = strings.TrimSpace(r.CenterID)
	r.TestID = strings.TrimSpace(r.TestID)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	r.Notes = strings.TrimSpace(r.Notes)
}

// BookAppointment reserves a slot for principal. Checks run in a fixed order
// and the first failure wins; the occupancy check and the insert happen under
// the slot lock, and the store's uniqueness rule backs that up.
func (s *Service) BookAppointment(ctx context.Context, principal *identity.Principal, req BookingRequest) (appt *Appointment, err error) {
	start := time.Now()
	defer func() { s.observeBooking(start, err) }()

	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthenticated
	}

	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}

	test, err := s.checkReferences(ctx, req.CenterID, req.TestID)
	if err != nil {
		return nil, err
	}

	day, err := ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	slot := TimeSlot(req.Time)
	if err := s.checkNotPast(day, slot); err != nil {
		return nil, err
	}

	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %s is not a bookable time slot", ErrInvalidInput, req.Time)
	}

	key := SlotKey{CenterID: req.CenterID, Date: day, Time: slot}

	var created *Appointment
	lockRequested := time.Now()
	err = s.locker.WithSlotLock(ctx, key.String(), func(lockCtx context.Context) error {
		if s.metrics != nil {
			s.metrics.LockWait.Observe(time.Since(lockRequested).Seconds())
		}

		// Re-derive occupancy inside the critical section; never trust an
		// availability answer the caller saw earlier.
		taken, err := s.takenSlots(lockCtx, key.CenterID, key.Date)
		if err != nil {
			return err
		}
		if _, busy := taken[key.Time]; busy {
			return ErrSlotConflict
		}

		now := s.now()
		candidate := &Appointment{
			ID:            uuid.New(),
			PatientID:     principal.ID,
			CenterID:      key.CenterID,
			TestID:        test.ID,
			Date:          key.Date,
			Time:          key.Time,
			Status:        StatusScheduled,
			TotalAmount:   test.Price,
			PaymentStatus: PaymentPending,
			Notes:         req.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.InsertIfAbsent(lockCtx, candidate); err != nil {
			if errors.Is(err, ErrSlotConflict) {
				return ErrSlotConflict
			}
			return fmt.Errorf("create appointment: %w", err)
		}
		created = candidate

		s.logEvent(lockCtx, candidate.ID, EventAppointmentBooked, map[string]any{
			"patient_id":   candidate.PatientID,
			"center_id":    candidate.CenterID,
			"test_id":      candidate.TestID,
			"date":         FormatDate(candidate.Date),
			"time":         string(candidate.Time),
			"total_amount": candidate.TotalAmount.String(),
		})
		return nil
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The caller gave up; nothing says the slot is taken.
			return nil, fmt.Errorf("book %s: %w", key, ctxErr)
		}
		switch {
		case errors.Is(err, ErrLockNotAcquired):
			return nil, fmt.Errorf("%w: slot %s is being booked", ErrSlotConflict, key)
		case errors.Is(err, ErrSlotConflict):
			return nil, fmt.Errorf("%w: %s", ErrSlotConflict, key)
		}
		return nil, err
	}

	s.log.Info().
		Str("appointment_id", created.ID.String()).
		Str("patient_id", created.PatientID).
		Str("slot", key.String()).
		Msg("appointment booked")

	return created, nil
}

func (s *Service) checkReferences(ctx context.Context, centerID, testID string) (*catalog.Test, error) {
	if err := s.requireCenter(ctx, centerID); err != nil {
		return nil, err
	}

	test, err := s.catalog.GetTest(ctx, testID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: test %s", ErrNotFound, testID)
		}
		return nil, fmt.Errorf("load test: %w", err)
	}
	if test.CenterID != centerID {
		return nil, fmt.Errorf("%w: test %s is not offered by center %s", ErrInvalidInput, testID, centerID)
	}
	return test, nil
}

// checkNotPast rejects days before today in the booking location, and
// same-day slots that start sooner than the configured lead time.
func (s *Service) checkNotPast(day time.Time, slot TimeSlot) error {
	now := s.now()
	today := DateOf(now, s.loc)

	if day.Before(today) {
		return fmt.Errorf("%w: date %s is in the past", ErrInvalidInput, FormatDate(day))
	}
	if !day.Equal(today) {
		return nil
	}

	startsAt, err := slot.StartOn(day, s.loc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if startsAt.Before(now.Add(s.leadTime)) {
		return fmt.Errorf("%w: slot %s today is no longer bookable", ErrInvalidInput, slot)
	}
	return nil
}

func (s *Service) observeBooking(start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.BookingLatency.Observe(time.Since(start).Seconds())
	s.metrics.Bookings.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "datetime":
			parts = append(parts, fmt.Sprintf("%s must match %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}
