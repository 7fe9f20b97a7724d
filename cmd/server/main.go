package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akeren/pingaroo/config"
	"github.com/akeren/pingaroo/domain"
	"github.com/akeren/pingaroo/internal/log"
	"github.com/akeren/pingaroo/pkg/utils"
)

const shutdownTimeout = 30 * time.Second

type serverOptions struct {
	autoMigrate bool
}

// parseServerOptions accepts --auto-migrate (or -m). Anything else is an error
// so a typo cannot silently skip the migration.
func parseServerOptions(args []string, stderr io.Writer) (serverOptions, error) {
	var opts serverOptions

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.autoMigrate, "auto-migrate", false, "run gorm AutoMigrate for the waitlist schema (dev-like APP_ENV only)")
	fs.BoolVar(&opts.autoMigrate, "m", false, "shorthand for --auto-migrate")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, errors.New("unexpected arguments: server takes flags only")
	}
	return opts, nil
}

func main() {
	logger := log.NewLoggerWithJSONOutput()

	opts, err := parseServerOptions(os.Args[1:], os.Stderr)
	if err != nil {
		logger.Error("Invalid server arguments", "error", err)
		os.Exit(2)
	}

	logger.Info("Pingaroo waitlist server starting",
		"app_env", config.GetAppEnv(),
		"port", utils.GetEnvTrimmedOrDefault("APP_PORT", "8080"),
		"auto_migrate", opts.autoMigrate,
	)

	appConfig, err := config.LoadApplicationConfiguration(logger, opts.autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	domain.SetupCoreDomain(appConfig)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, logger, appConfig); err != nil {
		appConfig.Cleanup()
		os.Exit(1)
	}
	appConfig.Cleanup()
	logger.Info("Graceful shutdown completed")
}

// serve blocks until the listener fails or ctx is cancelled, then drains
// in-flight registrations before returning.
func serve(ctx context.Context, logger *log.Logger, appConfig *config.ApplicationConfig) error {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
		}
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received, draining requests", "timeout", shutdownTimeout.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
		return nil
	}

	logger.Info("HTTP server shut down gracefully")
	return nil
}
