package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
)

// SlotAvailability is one catalog slot with its booked flag.
type SlotAvailability struct {
	Time   TimeSlot
	Booked bool
}

// AvailableSlots returns every daily slot, in catalog order, flagged booked
// when an occupying appointment holds it for centerID on date.
func (s *Service) AvailableSlots(ctx context.Context, centerID, date string) ([]SlotAvailability, error) {
	centerID = strings.TrimSpace(centerID)
	if centerID == "" {
		return nil, fmt.Errorf("%w: center_id is required", ErrInvalidInput)
	}
	day, err := ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	if err := s.requireCenter(ctx, centerID); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.AvailabilityOps.Inc()
	}

	taken, err := s.takenSlots(ctx, centerID, day)
	if err != nil {
		return nil, err
	}

	out := make([]SlotAvailability, len(DailySlots))
	for i, slot := range DailySlots {
		_, booked := taken[slot]
		out[i] = SlotAvailability{Time: slot, Booked: booked}
	}
	return out, nil
}

// FreeSlots is AvailableSlots reduced to the bookable labels.
func (s *Service) FreeSlots(ctx context.Context, centerID, date string) ([]TimeSlot, error) {
	all, err := s.AvailableSlots(ctx, centerID, date)
	if err != nil {
		return nil, err
	}
	free := make([]TimeSlot, 0, len(all))
	for _, a := range all {
		if !a.Booked {
			free = append(free, a.Time)
		}
	}
	return free, nil
}

func (s *Service) takenSlots(ctx context.Context, centerID string, day time.Time) (map[TimeSlot]struct{}, error) {
	occupying, err := s.store.FindOccupying(ctx, centerID, day)
	if err != nil {
		return nil, fmt.Errorf("load occupying appointments: %w", err)
	}
	taken := make(map[TimeSlot]struct{}, len(occupying))
	for _, a := range occupying {
		if a.Status.Occupying() {
			taken[a.Time] = struct{}{}
		}
	}
	return taken, nil
}

func (s *Service) requireCenter(ctx context.Context, centerID string) error {
	if _, err := s.catalog.GetCenter(ctx, centerID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: center %s", ErrNotFound, centerID)
		}
		return fmt.Errorf("load center: %w", err)
	}
	return nil
}
