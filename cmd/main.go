package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytsync/internal/services"
	"github.com/desertthunder/ytsync/internal/shared"
)

// Exit codes of the ytsync binary.
const (
	exitOK = iota
	exitFailure
	exitConfig
	exitAuth
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})
	if err := rootCommand(runner).Run(ctx, os.Args); err != nil {
		runner.logger.Errorf("application error: %v", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error onto the process exit status.
func exitCode(err error) int {
	var (
		configErr *shared.ConfigError
		authErr   *services.AuthRequiredError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &configErr),
		errors.Is(err, shared.ErrInvalidConfig),
		errors.Is(err, shared.ErrMissingConfig),
		errors.Is(err, shared.ErrMissingCredentials):
		return exitConfig
	case errors.As(err, &authErr),
		errors.Is(err, shared.ErrNotAuthenticated),
		errors.Is(err, shared.ErrAuthFailed):
		return exitAuth
	default:
		return exitFailure
	}
}
