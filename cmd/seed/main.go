package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/diagnostic-booking/internal/catalog"
	"github.com/hackgods/diagnostic-booking/internal/db"
	"github.com/hackgods/diagnostic-booking/internal/logging"
)

// seed writes the built-in catalog plus SEED_EXTRA_CENTERS generated centers,
// each offering the standard test menu.
func main() {
	log := logging.New(getEnv("APP_ENV", "dev"), "info").With().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{MaxConns: 2, PingAttempts: 3})
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	extra := 0
	if v := os.Getenv("SEED_EXTRA_CENTERS"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &extra); err != nil || extra < 0 {
			log.Fatal().Str("value", v).Msg("SEED_EXTRA_CENTERS must be a non-negative integer")
		}
	}

	centers := catalog.SeedCenters()
	tests := catalog.SeedTests()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))
	for _, c := range fakeCenters(faker, len(centers)+1, extra) {
		centers = append(centers, c)
		tests = append(tests, catalog.MenuFor(c.ID)...)
	}

	if err := catalog.NewPostgres(pool).Upsert(ctx, centers, tests); err != nil {
		log.Fatal().Err(err).Msg("upsert catalog")
	}

	log.Info().Int("centers", len(centers)).Int("tests", len(tests)).Msg("seed complete")
}

func fakeCenters(faker *gofakeit.Faker, firstID, count int) []catalog.Center {
	out := make([]catalog.Center, 0, count)
	for i := 0; i < count; i++ {
		addr := faker.Address()
		out = append(out, catalog.Center{
			ID:          fmt.Sprintf("%d", firstID+i),
			Name:        faker.LastName() + " Diagnostics",
			Address:     fmt.Sprintf("%s, %s", addr.Street, addr.City),
			Phone:       faker.Phone(),
			Email:       faker.Email(),
			Description: faker.Sentence(8),
		})
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
