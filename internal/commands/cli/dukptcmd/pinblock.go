package dukptcmd

import (
	"encoding/hex"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
	"github.com/andrei-cloud/go_dukpt/pkg/pinblock"
	"github.com/spf13/cobra"
)

func newPINBlockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pinblock",
		Short: "Encrypt or decrypt a PIN block under the DUKPT PIN key",
		Long: `Acts as the PIN entry device: builds an ISO 9564-1 PIN block from --pin and
--pan and encrypts it under the PIN-request key of the KSN. With --encrypted the
block is decrypted instead and the PIN is printed.`,
		RunE: runPINBlock,
	}
	addKeyFlags(cmd)
	cmd.Flags().String("pin", "", "Clear PIN (4-12 digits)")
	cmd.Flags().String("pan", "", "Primary account number")
	cmd.Flags().String("format", pinblock.ISO0.String(), "PIN block format (iso0, iso1, iso3)")
	cmd.Flags().String("encrypted", "", "Encrypted PIN block to decrypt (16 hex)")
	cmd.MarkFlagsOneRequired("pin", "encrypted")
	cmd.MarkFlagsMutuallyExclusive("pin", "encrypted")

	return cmd
}

func runPINBlock(cmd *cobra.Command, _ []string) error {
	pin, _ := cmd.Flags().GetString("pin")
	pan, _ := cmd.Flags().GetString("pan")
	formatName, _ := cmd.Flags().GetString("format")
	encrypted, _ := cmd.Flags().GetString("encrypted")

	format, err := pinblock.ParseFormat(formatName)
	if err != nil {
		return err
	}

	bdk, ksn, err := keyInputs(cmd)
	if err != nil {
		return err
	}
	key, err := dukpt.DeriveKey(bdk, ksn, dukpt.PINRequest)
	if err != nil {
		return fmt.Errorf("derive PIN key: %w", err)
	}

	if encrypted != "" {
		block, err := hex.DecodeString(encrypted)
		if err != nil {
			return fmt.Errorf("invalid PIN block hex: %w", err)
		}
		clearBlock, err := cryptoutils.DecryptECB(key, block)
		if err != nil {
			return fmt.Errorf("decrypt PIN block: %w", err)
		}
		pin, err := pinblock.Decode(cryptoutils.Raw2Str(clearBlock), pan, format)
		if err != nil {
			return err
		}
		cmd.Printf("PIN Block: %s\n", cryptoutils.Raw2Str(clearBlock))
		cmd.Printf("PIN: %s\n", pin)

		return nil
	}

	clearHex, err := pinblock.Encode(pin, pan, format)
	if err != nil {
		return err
	}
	clearBlock, err := hex.DecodeString(clearHex)
	if err != nil {
		return err
	}
	block, err := cryptoutils.EncryptECB(key, clearBlock)
	if err != nil {
		return fmt.Errorf("encrypt PIN block: %w", err)
	}

	cmd.Printf("PIN Block: %s\n", clearHex)
	cmd.Printf("Encrypted PIN Block: %s\n", cryptoutils.Raw2Str(block))

	return nil
}
