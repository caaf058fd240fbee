package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"stickerbot/internal/daemon"
	"stickerbot/internal/services"
)

// Exit codes beyond the generic failure, for service managers.
const (
	exitFailure        = 1
	exitConfiguration  = 2
	exitAlreadyRunning = 3
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "stickerbot: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, daemon.ErrAlreadyRunning):
		return exitAlreadyRunning
	case errors.Is(err, services.ErrConfiguration):
		return exitConfiguration
	default:
		return exitFailure
	}
}
