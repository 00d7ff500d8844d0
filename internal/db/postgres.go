package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const applicationName = "diagnostic-booking"

type PoolOptions struct {
	// MaxConns caps the pool. Bookings hold a connection only for the
	// occupancy read and the insert, so the API needs few.
	MaxConns int
	// PingAttempts is how many times startup pings before giving up; the
	// database often comes up after the service in compose setups.
	PingAttempts int
	PingBackoff  time.Duration
}

func (o PoolOptions) withDefaults() PoolOptions {
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.PingAttempts <= 0 {
		o.PingAttempts = 1
	}
	if o.PingBackoff <= 0 {
		o.PingBackoff = 500 * time.Millisecond
	}
	return o
}

// poolConfig builds the pgxpool settings without dialing.
func poolConfig(dsn string, opts PoolOptions) (*pgxpool.Config, error) {
	opts = opts.withDefaults()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = int32(opts.MaxConns)
	// Keep a quarter of the ceiling warm for booking bursts.
	cfg.MinConns = int32(max(1, opts.MaxConns/4))
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute
	if _, set := cfg.ConnConfig.RuntimeParams["application_name"]; !set {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return cfg, nil
}

// ConnectPostgres opens the pool and pings until it answers or the attempts
// run out.
func ConnectPostgres(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	opts = opts.withDefaults()

	cfg, err := poolConfig(dsn, opts)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		cancel()
		if err == nil {
			return pool, nil
		}
		if attempt >= opts.PingAttempts {
			break
		}

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", ctx.Err())
		case <-time.After(opts.PingBackoff * time.Duration(attempt)):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", opts.PingAttempts, err)
}
