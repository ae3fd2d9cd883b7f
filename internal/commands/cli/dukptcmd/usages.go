package dukptcmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
	"github.com/spf13/cobra"
)

func newUsagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usages",
		Short: "List key usages and their masks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			if _, err := fmt.Fprintln(w, "Code\tName\tMask\tDescription"); err != nil {
				return fmt.Errorf("failed to write header: %w", err)
			}
			if _, err := fmt.Fprintln(w, "----\t----\t----\t-----------"); err != nil {
				return fmt.Errorf("failed to write header separator: %w", err)
			}
			for _, u := range dukpt.KeyUsages() {
				if _, err := fmt.Fprintf(w, "%02d\t%s\t%s\t%s\n",
					int(u), u, u.Mask(), u.Description()); err != nil {
					return fmt.Errorf("failed to write usage: %w", err)
				}
			}

			return w.Flush()
		},
	}
}
