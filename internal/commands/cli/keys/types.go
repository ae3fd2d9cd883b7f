package keys

import (
	"fmt"
	"text/tabwriter"

	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/spf13/cobra"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List all supported key types",
		Long: `List all supported key types and their details.
Shows the key type code, name and LMK variant for each type.`,
		RunE: runTypes,
	}
}

func runTypes(cmd *cobra.Command, _ []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)

	if _, err := fmt.Fprintln(w, "Code\tName\tVariant"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "----\t----\t-------"); err != nil {
		return fmt.Errorf("failed to write header separator: %w", err)
	}

	for _, kt := range hsm.KeyTypes() {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", kt.Code, kt.Name, kt.VariantID); err != nil {
			return fmt.Errorf("failed to write key type info: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}
