package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akeren/pingaroo/config"
	"github.com/akeren/pingaroo/internal/log"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error

	switch args[0] {
	case "migrate":
		err = runMigrate(ctx, logger, args[1:])

	case "join":
		err = runJoin(ctx, args[1:])

	case "import":
		err = runImport(ctx, logger, os.Stdin, os.Stdout)

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Command failed", "command", args[0], "error", err.Error())
		stop()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up]        Apply pending database migrations and exit")
	fmt.Println("  migrate down [N]    Roll back the last N migrations (default 1)")
	fmt.Println("  migrate status      Print the current schema version")
	fmt.Println("  join <email>        Join the waitlist through the HTTP API (WAITLIST_API_URL)")
	fmt.Println("  import              Register one email per line from stdin directly in the database")
}
