package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/database"
	"github.com/acejarvis/cash-or-card/backend/internal/database/dbtest"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Sqlite(t)
	require.NoError(t, database.Migrate(db))
	for _, m := range database.MigrateModels {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}
}

func TestCuisineTagsRoundTrip(t *testing.T) {
	db := dbtest.Sqlite(t)
	in := models.Restaurant{
		Name:        "Banh Mi Boys",
		Address:     "392 Queen St W",
		CuisineTags: models.Tags{"vietnamese", "sandwiches"},
	}
	require.NoError(t, db.Create(&in).Error)

	var out models.Restaurant
	require.NoError(t, db.Take(&out, in.ID).Error)
	assert.Equal(t, in.CuisineTags, out.CuisineTags)
}

func TestVerifiedIndexRejectsSecondVerifiedRow(t *testing.T) {
	db := dbtest.Sqlite(t)
	seed := dbtest.SeedBasic(t, db, 1)

	first := models.PaymentAcceptance{PaymentType: models.PaymentVisa, IsAccepted: true}
	first.RestaurantID = seed.Restaurant.ID
	first.IsVerified = true
	require.NoError(t, db.Create(&first).Error)

	pending := models.PaymentAcceptance{PaymentType: models.PaymentVisa}
	pending.RestaurantID = seed.Restaurant.ID
	require.NoError(t, db.Create(&pending).Error)

	second := models.PaymentAcceptance{PaymentType: models.PaymentVisa}
	second.RestaurantID = seed.Restaurant.ID
	second.IsVerified = true
	assert.Error(t, db.Create(&second).Error)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := dbtest.Sqlite(t)
	fact := models.CashDiscount{DiscountPercentage: 5, IsActive: true}
	fact.RestaurantID = 999
	assert.Error(t, db.Create(&fact).Error)
}

func TestServiceHealth(t *testing.T) {
	cfg := config.Default().Database
	cfg.Driver = config.DriverSqlite
	cfg.SqlitePath = t.TempDir() + "/health.sqlite"
	cfg.Tracing = false

	svc, err := database.New(cfg, nil)
	require.NoError(t, err)
	stats := svc.Health()
	assert.Equal(t, "up", stats["status"])
	require.NoError(t, svc.Close())
	assert.Equal(t, "down", svc.Health()["status"])
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := config.Default().Database
	cfg.Driver = "oracle"
	_, err := database.Open(cfg, dbtest.Logger())
	assert.Error(t, err)
}
