// Package cli provides centralized command registration.
package cli

import (
	"github.com/andrei-cloud/go_dukpt/internal/commands/cli/dukptcmd"
	"github.com/andrei-cloud/go_dukpt/internal/commands/cli/keys"
	"github.com/andrei-cloud/go_dukpt/internal/commands/cli/server"
	"github.com/spf13/cobra"
)

// RegisterCommands registers all root commands.
func RegisterCommands(root *cobra.Command) error {
	root.AddCommand(server.NewServeCommand())
	root.AddCommand(dukptcmd.NewDukptCommand())
	root.AddCommand(keys.NewKeysCommand())

	return nil
}
