package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/credstore"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"github.com/hpn/hpn-prompt-enhancer/internal/ui"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stored provider credentials",
	}

	cmd.AddCommand(newConfigSetCmd(a))
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigClearCmd(a))

	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the API key, provider or model",
		Long: `Store credentials for the enhancement service. Only the given fields
are changed.

  enhance config set --api-key sk-...
  enhance config set --model gpt-4o`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds.APIKey = strings.TrimSpace(creds.APIKey)
			creds.Provider = strings.TrimSpace(creds.Provider)
			creds.Model = strings.TrimSpace(creds.Model)

			if creds == (domain.Credentials{}) {
				return errors.New("nothing to set: pass --api-key, --provider or --model")
			}
			if creds.Provider != "" && !domain.IsKnownProvider(creds.Provider) {
				allowed := make([]string, 0, len(domain.KnownProviders()))
				for _, p := range domain.KnownProviders() {
					allowed = append(allowed, string(p))
				}
				return &config.InvalidValueError{Key: "provider", Value: creds.Provider, AllowedValues: allowed}
			}

			store, err := credstore.Open(a.cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(cmd.Context(), creds); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}
			ui.PrintSaved(cmd.OutOrStdout(), "Credentials saved to "+storeLocation(a.cfg.Store))
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.APIKey, "api-key", "", "provider API key")
	cmd.Flags().StringVar(&creds.Provider, "provider", "", "provider name (openai)")
	cmd.Flags().StringVar(&creds.Model, "model", "", "model name (default "+domain.DefaultModel+")")

	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials with the key masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := credstore.Open(a.cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			creds, err := store.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load credentials: %w", err)
			}
			ui.PrintCredentials(cmd.OutOrStdout(), creds, storeLocation(a.cfg.Store))
			return nil
		},
	}
}

func newConfigClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := credstore.Open(a.cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear credentials: %w", err)
			}
			ui.PrintSaved(cmd.OutOrStdout(), "API key removed")
			return nil
		},
	}
}

// storeLocation describes where credentials live.
func storeLocation(cfg config.StoreConfig) string {
	if cfg.Driver == config.StoreDriverMemory {
		return "memory (not persisted)"
	}
	return cfg.Driver + ":" + cfg.Path
}
