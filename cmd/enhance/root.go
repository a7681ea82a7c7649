package main

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/logging"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	verbose    bool
	noColor    bool

	cfg    *config.Configuration
	logger *slog.Logger
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "enhance",
		Short: "Rewrite a prompt into a clearer, more effective one",
		Long: `enhance sends a prompt to the enhancement server, which asks the
configured provider to rewrite it and lists what was improved.

The prompt is taken from the arguments, or read from stdin:
  enhance run "write a poem about the sea"
  echo "summarise this file" | enhance run

Store your API key first:
  enhance config set --api-key sk-...`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config.yaml")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRunCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

// setup loads configuration and builds the logger. Logs go to stderr so
// stdout carries only the result.
func (a *app) setup(stderr io.Writer) error {
	if a.noColor {
		color.NoColor = true
	}

	cfg, err := config.GetConfigWithPath(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.Logging
	logCfg.Format = "text"
	if a.verbose {
		logCfg.Level = "debug"
	} else if logCfg.Level == "info" {
		logCfg.Level = "warn"
	}
	a.logger = logging.New(logCfg, stderr)

	return nil
}
