package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
	"github.com/acejarvis/cash-or-card/backend/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db     *gorm.DB
	name   string
	logger *slog.Logger
}

// New opens the configured database, applies migrations and tunes the
// connection pool.
func New(cfg config.DatabaseConfig, log *slog.Logger) (Service, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	db, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("database connected", "driver", cfg.Driver)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database migrations completed")

	name := cfg.Name
	if cfg.Driver == config.DriverSqlite {
		name = cfg.SqlitePath
	}
	return &service{db: db, name: name, logger: log}, nil
}

// Open connects to postgres or sqlite according to cfg.
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             cfg.SlowThreshold,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	gormCfg := &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSqlite:
		dsn, err := sqliteDSN(cfg.SqlitePath)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if cfg.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("error enabling tracing: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting database instance: %w", err)
	}
	if cfg.Driver == config.DriverSqlite {
		// sqlite allows a single writer; one connection serializes
		// transactions instead of failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", errors.New("sqlite path must be set")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path,
	), nil
}

// MigrateModels lists the tables in dependency order.
var MigrateModels = []any{
	&models.User{},
	&models.Restaurant{},
	&models.PaymentAcceptance{},
	&models.CashDiscount{},
	&models.PaymentMethodVote{},
	&models.CashDiscountVote{},
	&models.Rating{},
}

// Migrate creates or updates every table, then the partial unique index
// that backs the single verified payment fact per (restaurant, type).
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(MigrateModels...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	stmt := fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_methods_verified ON %s (restaurant_id, payment_type) WHERE is_verified",
		models.KindPaymentAcceptance.Table(),
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to create verified index: %w", err)
	}
	return nil
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)
	stats["wait_count"] = fmt.Sprintf("%d", dbStats.WaitCount)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	s.logger.Info("disconnected from database", "database", s.name)
	return sqlDB.Close()
}
