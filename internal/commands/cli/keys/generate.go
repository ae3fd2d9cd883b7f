package keys

import (
	"crypto/rand"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/spf13/cobra"
)

func newGenerateKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random key under LMK",
		Long: `Generate a random double length key with odd parity, for example a BDK or ZPK.
The command prints the key encrypted under the LMK variant of its type and its
Key Check Value (KCV). --clear also prints the clear key, for testing only.`,
		RunE: runGenerateKey,
	}

	cmd.Flags().String("type", hsm.KeyTypeBDK, "Key type code (see keys types)")
	cmd.Flags().Bool("clear", false, "Display clear key value")

	return cmd
}

func runGenerateKey(cmd *cobra.Command, _ []string) error {
	keyType, _ := cmd.Flags().GetString("type")
	showClear, _ := cmd.Flags().GetBool("clear")

	kt, err := hsm.LookupKeyType(keyType)
	if err != nil {
		return fmt.Errorf("invalid key type: %w", err)
	}

	h, err := newHSM(cmd)
	if err != nil {
		return err
	}

	clearKey := make([]byte, cryptoutils.KEY_LENGTH_DOUBLE)
	if _, err := rand.Read(clearKey); err != nil {
		return fmt.Errorf("failed to generate random key: %w", err)
	}
	clearKey = cryptoutils.FixKeyParity(clearKey)

	cmd.Printf("Key Type: %s\n", kt)
	if err := printWrapped(cmd, h, kt, clearKey); err != nil {
		return err
	}
	if showClear {
		cmd.Printf("Clear Key: %s\n", cryptoutils.Raw2Str(clearKey))
	}

	return nil
}
