package dukptcmd

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
	"github.com/spf13/cobra"
)

func newIPEKCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ipek",
		Short: "Derive the initial key (IPEK) of a device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bdk, ksn, err := keyInputs(cmd)
			if err != nil {
				return err
			}

			ipek, err := dukpt.New().IPEK(bitvec.FromBytes(bdk), bitvec.FromBytes(ksn))
			if err != nil {
				return fmt.Errorf("derive IPEK: %w", err)
			}

			return printKey(cmd, "IPEK", ipek.Bytes())
		},
	}
	addKeyFlags(cmd)

	return cmd
}

func newDeriveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a transaction key for a key usage",
		Long: `Derive the transaction key for the given KSN and apply the mask of a key usage.
Usages are accepted by name (pin-request) or two digit code (00); see "dukpt usages".`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			usageName, _ := cmd.Flags().GetString("usage")
			usage, err := dukpt.ParseKeyUsage(usageName)
			if err != nil {
				return err
			}

			bdk, ksn, err := keyInputs(cmd)
			if err != nil {
				return err
			}

			key, err := dukpt.DeriveKey(bdk, ksn, usage)
			if err != nil {
				return fmt.Errorf("derive key: %w", err)
			}

			counter, err := dukpt.Counter(bitvec.FromBytes(ksn))
			if err != nil {
				return err
			}
			cmd.Printf("Usage: %s\n", usage)
			cmd.Printf("Counter: %d\n", counter)

			return printKey(cmd, "Key", key)
		},
	}
	addKeyFlags(cmd)
	cmd.Flags().String("usage", dukpt.PINRequest.String(), "Key usage name or code")

	return cmd
}

func newDataKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datakey",
		Short: "Derive the ANSI X9.24-2009 data encryption key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bdk, ksn, err := keyInputs(cmd)
			if err != nil {
				return err
			}

			key, err := dukpt.DeriveDataKey(bdk, ksn)
			if err != nil {
				return fmt.Errorf("derive data key: %w", err)
			}

			return printKey(cmd, "Data Key", key)
		},
	}
	addKeyFlags(cmd)

	return cmd
}
