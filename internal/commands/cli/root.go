// Package cli provides the CLI command structure for go_dukpt.
package cli

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/config"
	"github.com/andrei-cloud/go_dukpt/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand creates and returns the root command with all subcommands.
func NewRootCommand() (*cobra.Command, error) {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "go_dukpt",
		Short: "DUKPT key derivation host and utilities",
		Long: `A DUKPT (ANSI X9.24 TDEA) host emulator and utility tool.
It derives IPEKs and transaction keys, translates PIN blocks, encrypts data
and generates MACs for devices that share a Base Derivation Key.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Initialize(cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// Explicit flags win over file and environment.
			v := config.GetViper()
			for key, flag := range map[string]string{"log.level": "log-level", "log.format": "log-format"} {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					v.Set(key, f.Value.String())
				}
			}

			logging.InitLoggerWithWriter(
				cmd.ErrOrStderr(),
				logging.IsDebug(v.GetString("log.level")),
				logging.IsHuman(v.GetString("log.format")),
			)

			return nil
		},
	}

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default is $HOME/.go_dukpt/config.yaml)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "logging format (human, json)")

	if err := RegisterCommands(rootCmd); err != nil {
		return nil, fmt.Errorf("failed to register commands: %w", err)
	}

	return rootCmd, nil
}
