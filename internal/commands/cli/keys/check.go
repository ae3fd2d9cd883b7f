package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/spf13/cobra"
)

func newCheckKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check an encrypted key under LMK",
		Long: `Decrypt a U-prefixed cryptogram under the LMK variant of its key type,
verify its parity and print its Key Check Value (KCV).`,
		RunE: runCheckKey,
	}

	cmd.Flags().String("key", "", "Encrypted key with scheme prefix (U + 32 hex)")
	cmd.Flags().String("type", hsm.KeyTypeBDK, "Key type code (see keys types)")

	if err := cmd.MarkFlagRequired("key"); err != nil {
		panic(err)
	}

	return cmd
}

func runCheckKey(cmd *cobra.Command, _ []string) error {
	encryptedKeyHex, _ := cmd.Flags().GetString("key")
	keyType, _ := cmd.Flags().GetString("type")

	keyHex, ok := strings.CutPrefix(strings.ToUpper(encryptedKeyHex), keyScheme)
	if !ok {
		return errors.New("encrypted key must start with scheme prefix U")
	}
	encrypted, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("invalid encrypted key format: %w", err)
	}

	kt, err := hsm.LookupKeyType(keyType)
	if err != nil {
		return fmt.Errorf("invalid key type: %w", err)
	}

	h, err := newHSM(cmd)
	if err != nil {
		return err
	}

	clearKey, err := h.DecryptUnderLMK(encrypted, kt.Code)
	if err != nil {
		return fmt.Errorf("failed to decrypt key: %w", err)
	}
	kcv, err := cryptoutils.KeyCV(clearKey, cryptoutils.KCV_LENGTH)
	if err != nil {
		return err
	}

	cmd.Printf("Key Type: %s\n", kt)
	cmd.Printf("Key Scheme: %s\n", keyScheme)
	cmd.Printf("KCV: %s\n", kcv)
	cmd.Printf("Parity Valid: %t\n", cryptoutils.CheckKeyParity(clearKey))

	return nil
}
