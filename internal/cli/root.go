// Package cli implements the stellarctl command-line interface.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	output     string
	cfg        *Config
	now        func() time.Time
}

// NewRootCmd builds the stellarctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(time.Now)
}

func newRootCmd(now func() time.Time) *cobra.Command {
	opts := &rootOptions{now: now}

	root := &cobra.Command{
		Use:   "stellarctl",
		Short: "StellarFS view tooling",
		Long: `stellarctl runs the StellarFS view engine over exported record files.
It filters, scopes, sorts and pages records exactly like the API does,
and mints development access tokens.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.stellarctl.toml)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputAuto, "Output format: auto, table, tsv or json")

	root.AddCommand(newViewCmd(opts), newStatsCmd(opts), newTokenCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}
