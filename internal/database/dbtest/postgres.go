package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/database"
)

const postgresImage = "postgres:16-alpine"

// Postgres starts a throwaway postgres container and returns a migrated
// connection to it. The test is skipped under -short or when no container
// runtime is available.
func Postgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("cash_or_card"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := config.Default().Database
	cfg.DSN = dsn
	cfg.Tracing = false
	cfg.SlowThreshold = time.Minute

	db, err := database.Open(cfg, Logger())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close() //nolint:errcheck
		}
	})
	return db
}
