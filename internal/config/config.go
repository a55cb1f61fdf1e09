package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CASHORCARD"

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type ServerConfig struct {
	Host         string        `yaml:"host"         envconfig:"HOST"`
	Port         uint          `yaml:"port"         envconfig:"PORT"`
	CorsOrigins  []string      `yaml:"corsOrigins"  envconfig:"CORS_ORIGINS"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"  envconfig:"IDLE_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"          envconfig:"DRIVER"`
	Host            string        `yaml:"host"            envconfig:"HOST"`
	Port            uint          `yaml:"port"            envconfig:"PORT"`
	User            string        `yaml:"user"            envconfig:"USER"`
	Password        string        `yaml:"password"        envconfig:"PASSWORD"`
	Name            string        `yaml:"name"            envconfig:"NAME"`
	SSLMode         string        `yaml:"sslMode"         envconfig:"SSLMODE"`
	DSN             string        `yaml:"dsn"             envconfig:"DSN"`
	SqlitePath      string        `yaml:"sqlitePath"      envconfig:"SQLITE_PATH"`
	MaxIdleConns    int           `yaml:"maxIdleConns"    envconfig:"MAX_IDLE_CONNS"`
	MaxOpenConns    int           `yaml:"maxOpenConns"    envconfig:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" envconfig:"CONN_MAX_LIFETIME"`
	SlowThreshold   time.Duration `yaml:"slowThreshold"   envconfig:"SLOW_THRESHOLD"`
	Tracing         bool          `yaml:"tracing"         envconfig:"TRACING"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret" envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"tokenTTL"  envconfig:"TOKEN_TTL"`
}

type LogConfig struct {
	Level  string `yaml:"level"  envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

type ConsensusConfig struct {
	// MaxTxAttempts bounds retries of a transaction that hit a
	// serialization conflict.
	MaxTxAttempts int     `yaml:"maxTxAttempts" envconfig:"MAX_TX_ATTEMPTS"`
	Scorer        string  `yaml:"scorer"        envconfig:"SCORER"`
	PriorUp       float64 `yaml:"priorUp"       envconfig:"SCORER_PRIOR_UP"`
	PriorDown     float64 `yaml:"priorDown"     envconfig:"SCORER_PRIOR_DOWN"`
	WilsonZ       float64 `yaml:"wilsonZ"       envconfig:"SCORER_WILSON_Z"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	Consensus ConsensusConfig `yaml:"consensus"`
	Metrics   bool            `yaml:"metrics" envconfig:"METRICS"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         3001,
			CorsOrigins:  []string{"http://localhost:3000"},
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  time.Minute,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Name:            "cash_or_card",
			SSLMode:         "disable",
			SqlitePath:      "cash_or_card.sqlite",
			MaxIdleConns:    10,
			MaxOpenConns:    20,
			ConnMaxLifetime: time.Hour,
			SlowThreshold:   time.Second,
			Tracing:         true,
		},
		Auth: AuthConfig{
			JWTSecret: "dev-secret-change-in-production",
			TokenTTL:  7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Consensus: ConsensusConfig{
			MaxTxAttempts: 3,
			Scorer:        "bayesian",
			PriorUp:       1,
			PriorDown:     1,
			WilsonZ:       1.96,
		},
		Metrics: true,
	}
}

type ctxKey struct{}

// WithContext returns a copy of ctx carrying cfg.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(ctxKey{}).(*Config)
	return cfg
}

// Load builds the configuration from defaults, then the YAML file (if any),
// then the environment. A .env file in the working directory is loaded into
// the environment first.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	cfg := Default()
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSqlite:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Consensus.MaxTxAttempts < 1 {
		return fmt.Errorf("consensus max transaction attempts must be at least 1, got %d", c.Consensus.MaxTxAttempts)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret must be set")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// PostgresDSN returns DSN if set, otherwise a keyword/value connection
// string built from the individual fields.
func (c DatabaseConfig) PostgresDSN() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func (c LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Level)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return lvl, nil
}

// NewLogger builds the process logger from the log section.
func (c LogConfig) NewLogger() *slog.Logger {
	lvl, err := c.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
