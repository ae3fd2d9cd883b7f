package keys

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/spf13/cobra"
)

func newImportKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a clear key under LMK",
		Long: `Import a clear double length key under the LMK variant of a key type.
The command validates key parity and prints the cryptogram and Key Check Value (KCV).
If the key fails the parity check an error is returned unless --force-parity is set,
which fixes the parity before importing.`,
		RunE: runImportKey,
	}

	cmd.Flags().String("key", "", "Clear key in hex format (32 characters)")
	cmd.Flags().String("type", hsm.KeyTypeBDK, "Key type code (see keys types)")
	cmd.Flags().Bool("force-parity", false, "Fix key parity if invalid")

	if err := cmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}

	return cmd
}

func runImportKey(cmd *cobra.Command, _ []string) error {
	keyHex, _ := cmd.Flags().GetString("key")
	keyType, _ := cmd.Flags().GetString("type")
	forceParity, _ := cmd.Flags().GetBool("force-parity")

	clearKey, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("invalid key hex: %w", err)
	}
	if len(clearKey) != cryptoutils.KEY_LENGTH_DOUBLE {
		return fmt.Errorf("invalid key length: %d bytes (expected %d)",
			len(clearKey), cryptoutils.KEY_LENGTH_DOUBLE)
	}

	kt, err := hsm.LookupKeyType(keyType)
	if err != nil {
		return fmt.Errorf("invalid key type: %w", err)
	}

	parityOK := cryptoutils.CheckKeyParity(clearKey)
	if !parityOK && !forceParity {
		return errors.New("key has invalid DES parity (use --force-parity to fix)")
	}
	if !parityOK {
		cmd.Printf("Warning: Key has invalid parity, fixing...\n")
		clearKey = cryptoutils.FixKeyParity(clearKey)
	}

	h, err := newHSM(cmd)
	if err != nil {
		return err
	}

	cmd.Printf("Key Type: %s\n", kt)
	cmd.Printf("Parity Check: %v\n", parityOK)

	return printWrapped(cmd, h, kt, clearKey)
}
