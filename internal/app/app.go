// Package app wires configuration into a running booking service. The
// binaries under cmd/ share it so they agree on backends.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/config"
	"github.com/hackgods/diagnostic-booking/internal/db"
	"github.com/hackgods/diagnostic-booking/internal/metrics"
	redisclient "github.com/hackgods/diagnostic-booking/internal/redis"
)

const metricsNamespace = "diagnostic_booking"

type App struct {
	Service  *appointment.Service
	Catalog  catalog.Provider
	PgPool   *pgxpool.Pool // nil with the memory store
	Redis    *redis.Client // nil with the local locker
	Registry *prometheus.Registry
}

// Close releases whatever backends New opened.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.PgPool != nil {
		a.PgPool.Close()
	}
}

// New connects the configured store and locker, makes sure the schema and
// the built-in catalog exist, and builds the service.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var store appointment.Store
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, db.PoolOptions{
			MaxConns:     cfg.PostgresMaxConn,
			PingAttempts: 5,
		})
		cancel()
		if err != nil {
			return nil, err
		}
		a.PgPool = pool

		if err := db.Migrate(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		pgCatalog := catalog.NewPostgres(pool)
		if err := pgCatalog.Upsert(ctx, catalog.SeedCenters(), catalog.SeedTests()); err != nil {
			a.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		a.Catalog = pgCatalog
		store = appointment.NewPgStore(pool)
		log.Info().Msg("connected to Postgres")
	default:
		a.Catalog = catalog.NewSeeded()
		store = appointment.NewMemoryStore()
		log.Warn().Msg("using in-memory store; appointments are lost on restart")
	}

	var locker appointment.Locker
	switch cfg.LockBackend {
	case config.LockRedis:
		rdb, err := redisclient.NewRedisClient(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		locker = redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL, cfg.LockWait)
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	default:
		locker = appointment.NewLocalLocker(cfg.LockWait)
	}

	a.Service = appointment.NewService(store, a.Catalog, locker, appointment.Options{
		Location:        cfg.BookingTimezone,
		SameDayLeadTime: cfg.SameDayLeadTime,
		Logger:          log,
		Metrics:         metrics.New(a.Registry, metricsNamespace),
	})
	return a, nil
}
