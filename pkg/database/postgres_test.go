package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/pkg/config"
)

func integrationConfig(t *testing.T) *config.Config {
	t.Helper()

	// Skip if DATABASE_URL is not set
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(&config.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewWithInvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        25,
			MinConns:        5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
	}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestSchema_CoversRepositories(t *testing.T) {
	schema := Schema()

	for _, table := range []string{
		"data.securities",
		"data.fundamentals",
		"rebalance.filter_state",
		"rebalance.universe_snapshots",
		"rebalance.screening_results",
		"rebalance.ranking_results",
		"portfolio.holdings",
		"portfolio.target_history",
		"portfolio.rebalance_logs",
		"execution.pending_orders",
	} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}

func TestMigrateAndHealthCheck(t *testing.T) {
	cfg := integrationConfig(t)

	db, err := New(cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 두 번 실행해도 성공해야 함
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx))

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Greater(t, status.Stats.MaxConns, int32(0))
}

func TestClose(t *testing.T) {
	cfg := integrationConfig(t)

	db, err := New(cfg)
	require.NoError(t, err)

	// Double close should not panic
	db.Close()
	db.Close()
}
