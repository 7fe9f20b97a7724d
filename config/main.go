package config

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/pingaroo/config/router"
	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/internal/models"
	"github.com/akeren/pingaroo/pkg/constants"
	"github.com/caarlos0/env/v10"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	RateLimitRequests         int           `env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow           time.Duration `env:"RATE_LIMIT_WINDOW"`
	RequestTimeout            time.Duration `env:"REQUEST_TIMEOUT"`
	WaitlistRateLimitRequests int           `env:"WAITLIST_RATE_LIMIT_REQUESTS"`
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		RateLimitRequests:         constants.DefaultRateLimitRequests,
		RateLimitWindow:           constants.DefaultRateLimitWindow(),
		RequestTimeout:            constants.DefaultRequestTimeout,
		WaitlistRateLimitRequests: constants.DefaultWaitlistRegistrationsPerMinute,
	}
}

// NewAppConfig overlays the environment on the defaults. Unparseable or
// non-positive values are logged and the defaults kept.
func NewAppConfig(logger *log.Logger) *AppConfig {
	defaults := defaultAppConfig()

	parsed := *defaults
	if err := env.Parse(&parsed); err != nil {
		logger.Warn("Invalid application settings in environment; using defaults", "error", err)
		return defaults
	}

	if err := parsed.validate(); err != nil {
		logger.Warn("Invalid application settings in environment; using defaults", "error", err)
		return defaults
	}

	return &parsed
}

func (c *AppConfig) validate() error {
	switch {
	case c.RateLimitRequests <= 0:
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive, got %d", c.RateLimitRequests)
	case c.RateLimitWindow <= 0:
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimitWindow)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	case c.WaitlistRateLimitRequests <= 0:
		return fmt.Errorf("WAITLIST_RATE_LIMIT_REQUESTS must be positive, got %d", c.WaitlistRateLimitRequests)
	}
	return nil
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	if autoMigrate {
		appEnv := GetAppEnv()
		if err := ValidateAutoMigrateAllowed(appEnv); err != nil {
			return nil, err
		}
		if appEnv == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, NewDBConfig(logger))
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	appConfig := NewAppConfig(logger)
	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully",
		"rate_limit_requests", appConfig.RateLimitRequests,
		"rate_limit_window", appConfig.RateLimitWindow.String(),
		"request_timeout", appConfig.RequestTimeout.String(),
		"waitlist_rate_limit_requests", appConfig.WaitlistRateLimitRequests,
	)

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, nil
}
