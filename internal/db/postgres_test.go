package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    PoolOptions
		wantMax int32
		wantMin int32
	}{
		{name: "defaults", opts: PoolOptions{}, wantMax: 10, wantMin: 2},
		{name: "large pool", opts: PoolOptions{MaxConns: 40}, wantMax: 40, wantMin: 10},
		{name: "tiny pool keeps one warm", opts: PoolOptions{MaxConns: 2}, wantMax: 2, wantMin: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := poolConfig("postgres://booker@localhost:5432/booking", tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMax, cfg.MaxConns)
			assert.Equal(t, tt.wantMin, cfg.MinConns)
			assert.Equal(t, applicationName, cfg.ConnConfig.RuntimeParams["application_name"])
		})
	}
}

func TestPoolConfig_KeepsExplicitApplicationName(t *testing.T) {
	cfg, err := poolConfig("postgres://booker@localhost:5432/booking?application_name=ops", PoolOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ops", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestPoolConfig_BadDSN(t *testing.T) {
	_, err := poolConfig("postgres://%zz", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse postgres dsn")
}

func TestConnectPostgres_GivesUpWhenUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Port 1 refuses connections; two attempts with a short backoff.
	_, err := ConnectPostgres(ctx, "postgres://booker@127.0.0.1:1/booking?connect_timeout=1", PoolOptions{
		PingAttempts: 2,
		PingBackoff:  10 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
