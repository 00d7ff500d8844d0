package appointment

import (
	"errors"
	"fmt"
)

// Business outcomes. Callers branch with errors.Is; anything else returned by
// the service is an infrastructure failure.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSlotConflict      = errors.New("slot already booked")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotFound          = errors.New("not found")
)

// ErrAppointmentNotFound is what stores return for a missing row.
var ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)
