// Package main is the enhance command-line client.
//
// It submits prompts to the enhancement server through the request gateway
// and manages the stored provider credentials.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hpn/hpn-prompt-enhancer/internal/security"
	"github.com/joho/godotenv"
)

// Exit codes for the enhance CLI.
const (
	ExitOK      = 0 // Enhanced, or answered with a fallback result.
	ExitUsage   = 1 // Bad flags, config or store errors.
	ExitFailure = 2 // The gateway reported a channel failure.
)

// exitCodeError carries a process exit code. An empty msg means the
// failure was already shown to the user.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string {
	return e.msg
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "enhance: load .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var ece *exitCodeError
		if errors.As(err, &ece) {
			if ece.msg != "" {
				fmt.Fprintln(os.Stderr, security.Redact(ece.msg))
			}
			os.Exit(ece.code)
		}
		fmt.Fprintln(os.Stderr, "enhance: "+security.Redact(err.Error()))
		os.Exit(ExitUsage)
	}
}
