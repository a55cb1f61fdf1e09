// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/database"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Sqlite opens a migrated sqlite database in a temp directory. It is
// closed when the test ends.
func Sqlite(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := config.Default().Database
	cfg.Driver = config.DriverSqlite
	cfg.SqlitePath = filepath.Join(t.TempDir(), "test.sqlite")
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

// Seed holds the rows most tests need.
type Seed struct {
	Admin      models.User
	Users      []models.User
	Restaurant models.Restaurant
}

// SeedBasic creates one admin, n registered users and one restaurant.
func SeedBasic(t testing.TB, db *gorm.DB, n int) Seed {
	t.Helper()
	s := Seed{
		Admin: models.User{Username: "admin", Email: "admin@example.com", Password: "x", Role: models.RoleAdmin},
	}
	require.NoError(t, db.Create(&s.Admin).Error)
	for i := range n {
		u := models.User{
			Username: "user" + string(rune('a'+i)),
			Email:    "user" + string(rune('a'+i)) + "@example.com",
			Password: "x",
			Role:     models.RoleUser,
		}
		require.NoError(t, db.Create(&u).Error)
		s.Users = append(s.Users, u)
	}
	s.Restaurant = models.Restaurant{
		Name:     "Pho Hung",
		Address:  "350 Spadina Ave",
		City:     "Toronto",
		Category: "vietnamese",
	}
	require.NoError(t, db.Create(&s.Restaurant).Error)
	return s
}
