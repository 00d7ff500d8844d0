package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

// BookingService is the part of appointment.Service the handlers call.
type BookingService interface {
	AvailableSlots(ctx context.Context, centerID, date string) ([]appointment.SlotAvailability, error)
	BookAppointment(ctx context.Context, principal *identity.Principal, req appointment.BookingRequest) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, principal *identity.Principal) ([]appointment.AppointmentDetail, error)
	GetAppointment(ctx context.Context, principal *identity.Principal, id string) (*appointment.AppointmentDetail, error)
	Transition(ctx context.Context, principal *identity.Principal, id string, newStatus appointment.AppointmentStatus) (*appointment.Appointment, error)
}

type RouterConfig struct {
	Service  BookingService
	Catalog  catalog.Provider
	Identity identity.Provider   // defaults to identity.ContextProvider
	Gatherer prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	PgPool   *pgxpool.Pool       // nil with the memory store
	Redis    *redis.Client       // nil with the local locker
	Logger   zerolog.Logger
	Env      string
	Version  string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Identity == nil {
		cfg.Identity = identity.ContextProvider{}
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	h := &handlers{
		svc:      cfg.Service,
		catalog:  cfg.Catalog,
		identity: cfg.Identity,
		log:      cfg.Logger,
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(identity.Middleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Get("/centers", h.listCenters)
	r.Get("/centers/{id}/tests", h.listTests)
	r.Get("/centers/{id}/slots", h.availableSlots)

	r.Post("/appointments", h.createAppointment)
	r.Get("/appointments", h.listAppointments)
	r.Get("/appointments/{id}", h.getAppointment)
	r.Post("/appointments/{id}/status", h.changeStatus)
	r.Post("/appointments/{id}/confirm", h.transitionTo(appointment.StatusConfirmed))
	r.Post("/appointments/{id}/cancel", h.transitionTo(appointment.StatusCancelled))

	return r
}
