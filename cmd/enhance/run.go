package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/hpn/hpn-prompt-enhancer/internal/adapter"
	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/credstore"
	"github.com/hpn/hpn-prompt-enhancer/internal/gateway"
	"github.com/hpn/hpn-prompt-enhancer/internal/service"
	"github.com/hpn/hpn-prompt-enhancer/internal/ui"
	"github.com/spf13/cobra"
)

// runOptions are the flags of the run subcommand.
type runOptions struct {
	local     bool
	serverURL string
	timeout   time.Duration
	jsonOut   bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [prompt...]",
		Short: "Enhance a prompt",
		Long: `Enhance a prompt through the enhancement server.

Arguments are joined with spaces. Without arguments the prompt is read
from stdin. With --local the enhancement service runs in this process
instead of on the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEnhance(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.local, "local", false, "run the enhancement service in-process")
	cmd.Flags().StringVar(&opts.serverURL, "server", "", "enhancement server URL (overrides gateway.server_url)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "reply timeout (overrides gateway.timeout_ms)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the result as JSON")

	return cmd
}

func (a *app) runEnhance(cmd *cobra.Command, args []string, opts *runOptions) error {
	prompt, err := readPrompt(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	sender, closeFn, err := a.newSender(opts)
	if err != nil {
		return err
	}
	defer closeFn()

	timeout := a.cfg.Gateway.Timeout()
	if opts.timeout > 0 {
		timeout = opts.timeout
	}

	gw := gateway.New(sender,
		gateway.WithTimeout(timeout),
		gateway.WithLogger(a.logger),
	)

	res, err := gw.Enhance(cmd.Context(), prompt)
	switch {
	case err != nil:
		ui.PrintFailure(cmd.ErrOrStderr(), gateway.Notice(err))
		return &exitCodeError{code: ExitFailure}
	case res == nil:
		ui.PrintDropped(cmd.ErrOrStderr())
		return nil
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	ui.PrintResult(cmd.OutOrStdout(), *res)
	return nil
}

// newSender returns the channel to the enhancement service: HTTP to the
// server by default, or an in-process service with --local.
func (a *app) newSender(opts *runOptions) (channel.Sender, func() error, error) {
	if !opts.local {
		url := a.cfg.Gateway.ServerURL
		if opts.serverURL != "" {
			url = opts.serverURL
		}
		a.logger.Debug("using remote enhancement server", slog.String("url", url))
		return channel.NewHTTPSender(url, nil), func() error { return nil }, nil
	}

	store, err := credstore.Open(a.cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}

	providers := adapter.NewRegistry(
		adapter.NewOpenAIAdapter(
			adapter.WithBaseURL(a.cfg.Provider.BaseURL),
			adapter.WithTimeout(a.cfg.Provider.RequestTimeout()),
			adapter.WithLogger(a.logger),
		),
	)
	svc := service.New(store, providers, service.WithLogger(a.logger))

	mux := channel.NewMux(a.logger)
	svc.Register(mux)

	a.logger.Debug("using in-process enhancement service", slog.String("store", a.cfg.Store.Driver))
	return channel.NewLocal(mux), store.Close, nil
}

// readPrompt joins args, or reads stdin when there are none.
func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
