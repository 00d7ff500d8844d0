package appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/metrics"
)

const (
	EventAppointmentBooked        = "APPOINTMENT_BOOKED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

type Options struct {
	// Location decides what "today" means for date validation. Defaults to UTC.
	Location *time.Location
	// SameDayLeadTime is the minimum notice for a slot on the current day.
	SameDayLeadTime time.Duration
	Now             func() time.Time
	Logger          zerolog.Logger
	Metrics         *metrics.Metrics
}

type Service struct {
	store    Store
	catalog  catalog.Provider
	locker   Locker
	validate *validator.Validate
	loc      *time.Location
	leadTime time.Duration
	now      func() time.Time
	log      zerolog.Logger
	metrics  *metrics.Metrics
}

func NewService(store Store, cat catalog.Provider, locker Locker, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:    store,
		catalog:  cat,
		locker:   locker,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		loc:      opts.Location,
		leadTime: opts.SameDayLeadTime,
		now:      opts.Now,
		log:      opts.Logger,
		metrics:  opts.Metrics,
	}
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.now(),
	}

	if err := s.store.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
