package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

// allowedTransitions is the whole state machine; terminal states have no entry.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ListAppointments returns the principal's view, newest first: patients see
// their own bookings, center admins their center's, admins everything.
func (s *Service) ListAppointments(ctx context.Context, principal *identity.Principal) ([]AppointmentDetail, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthenticated
	}

	var (
		appts []Appointment
		err   error
	)
	switch principal.Role {
	case identity.RoleAdmin, identity.RoleSuperAdmin:
		appts, err = s.store.FindAll(ctx)
	case identity.RoleDiagnosticCenterAdmin:
		if principal.CenterID == "" {
			return nil, fmt.Errorf("%w: center admin without a center", ErrForbidden)
		}
		appts, err = s.store.FindByCenter(ctx, principal.CenterID)
	default:
		appts, err = s.store.FindByPatient(ctx, principal.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	sortNewestFirst(appts)

	lookup := newCatalogLookup(s.catalog)
	out := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		d, err := lookup.detail(ctx, a)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// GetAppointment returns one appointment the principal is allowed to read.
func (s *Service) GetAppointment(ctx context.Context, principal *identity.Principal, id string) (*AppointmentDetail, error) {
	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canAccess(principal, appt) {
		return nil, ErrForbidden
	}
	d, err := newCatalogLookup(s.catalog).detail(ctx, *appt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Transition moves an appointment to newStatus. Ownership is checked before
// the per-status permission, and both before the state machine.
func (s *Service) Transition(ctx context.Context, principal *identity.Principal, id string, newStatus AppointmentStatus) (updated *Appointment, err error) {
	defer func() {
		if s.metrics == nil {
			return
		}
		// The target comes from request input; only known statuses become labels.
		to := string(newStatus)
		if !newStatus.Valid() {
			to = "invalid"
		}
		s.metrics.Transitions.WithLabelValues(to, outcome(err)).Inc()
	}()

	if principal == nil || principal.ID == "" {
		return nil, ErrUnauthenticated
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, newStatus)
	}

	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canAccess(principal, appt) {
		return nil, ErrForbidden
	}
	if err := checkPermission(principal, appt, newStatus); err != nil {
		return nil, err
	}

	if !CanTransition(appt.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, newStatus)
	}

	updated, err = s.store.UpdateStatus(ctx, appt.ID, appt.Status, newStatus, s.now())
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The row moved on between our read and the conditional update.
			return nil, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, appt.ID)
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentStatusChanged, map[string]any{
		"from":         string(appt.Status),
		"to":           string(newStatus),
		"principal_id": principal.ID,
		"role":         string(principal.Role),
	})

	s.log.Info().
		Str("appointment_id", updated.ID.String()).
		Str("from", string(appt.Status)).
		Str("to", string(newStatus)).
		Str("principal_id", principal.ID).
		Msg("appointment status changed")

	return updated, nil
}

// MarkNoShows moves confirmed appointments dated before cutoff to no_show,
// acting as system. It returns how many were moved.
func (s *Service) MarkNoShows(ctx context.Context, system *identity.Principal, cutoff time.Time) (int, error) {
	if system == nil || !system.Role.Elevated() {
		return 0, ErrForbidden
	}

	candidates, err := s.store.FindConfirmedBefore(ctx, DateOf(cutoff, s.loc))
	if err != nil {
		return 0, fmt.Errorf("find confirmed appointments: %w", err)
	}

	moved := 0
	for _, appt := range candidates {
		_, err := s.Transition(ctx, system, appt.ID.String(), StatusNoShow)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrForbidden) {
				continue
			}
			s.log.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("mark no-show")
			continue
		}
		moved++
	}
	return moved, nil
}

func (s *Service) load(ctx context.Context, id string) (*Appointment, error) {
	apptID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%w: appointment id must be a UUID", ErrInvalidInput)
	}
	appt, err := s.store.FindByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

// catalogLookup memoises center and test reads for the span of one call, so
// a listing costs one lookup per distinct id. Misses are remembered as nil.
type catalogLookup struct {
	cat     catalog.Provider
	centers map[string]*catalog.Center
	tests   map[string]*catalog.Test
}

func newCatalogLookup(cat catalog.Provider) *catalogLookup {
	return &catalogLookup{
		cat:     cat,
		centers: make(map[string]*catalog.Center),
		tests:   make(map[string]*catalog.Test),
	}
}

func (l *catalogLookup) detail(ctx context.Context, a Appointment) (AppointmentDetail, error) {
	d := AppointmentDetail{Appointment: a}

	center, seen := l.centers[a.CenterID]
	if !seen {
		var err error
		center, err = l.cat.GetCenter(ctx, a.CenterID)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return d, fmt.Errorf("load center %s: %w", a.CenterID, err)
		}
		l.centers[a.CenterID] = center
	}
	d.Center = center

	test, seen := l.tests[a.TestID]
	if !seen {
		var err error
		test, err = l.cat.GetTest(ctx, a.TestID)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return d, fmt.Errorf("load test %s: %w", a.TestID, err)
		}
		l.tests[a.TestID] = test
	}
	d.Test = test
	return d, nil
}

func canAccess(p *identity.Principal, appt *Appointment) bool {
	if appt.PatientID == p.ID {
		return true
	}
	return p.CanAccessCenter(appt.CenterID)
}

// checkPermission: patients may only cancel their own booking; confirming,
// completing and no-show marking belong to staff.
func checkPermission(p *identity.Principal, appt *Appointment, to AppointmentStatus) error {
	switch to {
	case StatusCancelled:
		if appt.PatientID != p.ID {
			return fmt.Errorf("%w: only the patient may cancel", ErrForbidden)
		}
	case StatusConfirmed, StatusCompleted, StatusNoShow:
		if !p.CanAccessCenter(appt.CenterID) {
			return fmt.Errorf("%w: %s requires staff access", ErrForbidden, to)
		}
	case StatusScheduled:
		return fmt.Errorf("%w: appointments cannot return to scheduled", ErrInvalidTransition)
	}
	return nil
}
