package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akeren/pingaroo/config"
	"github.com/akeren/pingaroo/domain/waitlist"
	"github.com/akeren/pingaroo/internal/log"
	apperrors "github.com/akeren/pingaroo/pkg/errors"
)

type importSummary struct {
	Registered int
	Rejected   int
	Failed     int
}

func runImport(ctx context.Context, logger *log.Logger, in io.Reader, out io.Writer) error {
	db, err := config.NewDatabase(logger, config.NewDBConfig(logger))
	if err != nil {
		return fmt.Errorf("connect to database for import: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	service := waitlist.NewWaitlistServiceFactory(db, logger, nil, 0).CreateService()

	summary, err := importEmails(ctx, service, in, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "registered=%d rejected=%d failed=%d\n", summary.Registered, summary.Rejected, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d registrations failed", summary.Failed)
	}
	return nil
}

// importEmails registers one address per line. Blank lines and lines starting
// with '#' are skipped. Invalid addresses are reported and do not stop the run.
func importEmails(ctx context.Context, service waitlist.WaitlistService, in io.Reader, out io.Writer) (importSummary, error) {
	var summary importSummary

	scanner := bufio.NewScanner(in)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		_, err := service.Register(ctx, line)
		switch {
		case err == nil:
			summary.Registered++
		case apperrors.IsValidationError(err):
			summary.Rejected++
			fmt.Fprintf(out, "line %d: %s: %s\n", lineNo, line, apperrors.GetFieldErrors(err).First("email"))
		default:
			summary.Failed++
			fmt.Fprintf(out, "line %d: %s: %s\n", lineNo, line, apperrors.GetHumanReadableMessage(err))
		}
	}

	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("read import input: %w", err)
	}

	return summary, nil
}
