package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hackgods/diagnostic-booking/internal/app"
	"github.com/hackgods/diagnostic-booking/internal/config"
	"github.com/hackgods/diagnostic-booking/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logging.New("prod", "info")
		l.Fatal().Err(err).Msg("config load error")
	}

	log := logging.New(cfg.Env, cfg.LogLevel).With().Str("service", "noshow-worker").Logger()

	if cfg.StoreBackend != config.StorePostgres {
		log.Fatal().Str("store", cfg.StoreBackend).Msg("noshow-worker needs the postgres store")
	}

	log.Info().
		Dur("interval", cfg.WorkerInterval).
		Dur("grace", cfg.NoShowGrace).
		Msg("noshow-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(rootCtx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	app.RunNoShowWorker(rootCtx, a.Service, cfg.WorkerInterval, cfg.NoShowGrace, log)
}
