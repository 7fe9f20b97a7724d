package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/akeren/pingaroo/pkg/utils"
	"github.com/akeren/pingaroo/pkg/waitlistclient"
)

var errJoinFailed = errors.New("waitlist registration failed")

func runJoin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: cli join <email>")
	}

	baseURL := utils.GetEnvTrimmedOrDefault("WAITLIST_API_URL", "http://localhost:8080")
	form := waitlistclient.NewForm(baseURL)

	if err := form.Submit(ctx, args[0]); err != nil {
		return err
	}

	if form.State() != waitlistclient.Success {
		return fmt.Errorf("%w: %s", errJoinFailed, form.ErrorMessage())
	}

	fmt.Println("Successfully added to waitlist!")
	return nil
}
