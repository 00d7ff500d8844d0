package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/diagnostic-booking/internal/appointment"
	"github.com/hackgods/diagnostic-booking/internal/identity"
)

// SystemPrincipal is the identity background jobs act as.
var SystemPrincipal = &identity.Principal{ID: "system", Name: "no-show worker", Role: identity.RoleSuperAdmin}

// RunNoShowWorker marks overdue confirmed appointments as no-shows once at
// start and then every interval until ctx ends.
func RunNoShowWorker(ctx context.Context, svc *appointment.Service, interval, grace time.Duration, log zerolog.Logger) {
	runNoShowOnce(ctx, svc, grace, log)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping no-show worker")
			return
		case <-ticker.C:
			runNoShowOnce(ctx, svc, grace, log)
		}
	}
}

func runNoShowOnce(ctx context.Context, svc *appointment.Service, grace time.Duration, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	moved, err := svc.MarkNoShows(runCtx, SystemPrincipal, start.Add(-grace))
	if err != nil {
		log.Error().Err(err).Msg("no-show run failed")
		return
	}
	log.Info().Int("moved", moved).Dur("took", time.Since(start)).Msg("no-show run complete")
}
