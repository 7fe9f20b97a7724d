package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/retry"
	"github.com/caarlos0/env/v10"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DBConfig struct {
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	SSLMode         string        `env:"DB_SSLMODE_DEFAULT" envDefault:"require"` // "require" for prod safety
	PingTimeout     time.Duration `env:"DB_PING_TIMEOUT" envDefault:"5s"`
	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
}

func defaultDBConfig() *DBConfig {
	return &DBConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    25,
		ConnMaxLifetime: 5 * time.Minute,
		SSLMode:         "require",
		PingTimeout:     5 * time.Second,
		ConnectAttempts: 5,
	}
}

// NewDBConfig reads pool settings from the environment, falling back to
// defaults when any of them fails to parse.
func NewDBConfig(logger *log.Logger) *DBConfig {
	cfg := &DBConfig{}
	if err := env.Parse(cfg); err != nil {
		logger.Warn("Invalid database pool settings in environment; using defaults", "error", err)
		return defaultDBConfig()
	}
	return cfg
}

// NewDatabase opens the shared pool and pings it before returning, retrying
// while the server is still coming up.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = defaultDBConfig()
	}

	dsn, err := buildDSNFromEnv(logger, cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Warn),
		DisableAutomaticPing: true,
	})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingDatabase(logger, gdb, cfg); err != nil {
		_ = sqlDB.Close()
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully")
	return gdb, nil
}

func pingDatabase(logger *log.Logger, db *gorm.DB, cfg *DBConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	policy := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: cfg.ConnectAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("Database not reachable yet; retrying",
				"attempt", attempt,
				"retry_in", delay.String(),
				"error", err,
			)
		},
	})

	return policy.Execute(context.Background(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
}

// databaseURLKeys are checked in order; DATABASE_URL is the conventional
// name used by hosting platforms.
var databaseURLKeys = []string{"DATABASE_URL", "APP_DATABASE_URL"}

func databaseURLFromEnv() (key, url string) {
	for _, k := range databaseURLKeys {
		if v := sanitizeEnv(GetValueFromEnvironmentVariable(k, "")); v != "" {
			return k, v
		}
	}
	return "", ""
}

func buildDSNFromEnv(logger *log.Logger, cfg *DBConfig) (string, error) {
	if key, url := databaseURLFromEnv(); url != "" {
		logger.Info("Using connection URL for database connection", "source", key)
		return url, nil
	}

	host, portStr, user, pass, dbName, ssl := getDatabaseEnvParams()
	if ssl == "" {
		ssl = cfg.SSLMode
	}

	missing := []string{}

	if host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}

	if portStr == "" {
		missing = append(missing, "POSTGRES_PORT")
	}

	if user == "" {
		missing = append(missing, "POSTGRES_USER")
	}

	if dbName == "" {
		missing = append(missing, "POSTGRES_DB_NAME")
	}

	if len(missing) > 0 {
		logger.Error("Missing required database environment variables", "missing_vars", strings.Join(missing, ", "))

		return "", fmt.Errorf("missing required database env vars (or set DATABASE_URL): %s", strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		logger.Error("Invalid POSTGRES_PORT", "error", err)
		return "", fmt.Errorf("invalid POSTGRES_PORT %q: %w", portStr, err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, dbName, ssl,
	)

	logger.Info("Connecting to database",
		"host", host,
		"port", port,
		"user", user,
		"dbname", dbName,
		"sslmode", ssl,
	)
	return dsn, nil
}

func getDatabaseEnvParams() (host, port, user, pass, dbName, ssl string) {
	host = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_HOST", ""))
	port = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PORT", ""))
	user = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_USER", ""))
	pass = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_PASSWORD", ""))
	dbName = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_DB_NAME", ""))
	ssl = sanitizeEnv(GetValueFromEnvironmentVariable("POSTGRES_SSLMODE", ""))

	return host, port, user, pass, dbName, ssl
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
