// Package keys provides key management commands.
package keys

import (
	"errors"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/config"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/spf13/cobra"
)

// NewKeysCommand creates the keys command group.
func NewKeysCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Key generation, import and check operations",
		Long: `Key operations under the Local Master Key (LMK).
Keys are double length and travel as U-prefixed cryptograms, the same form the
host commands accept for BDKs and ZPKs.`,
	}

	cmd.PersistentFlags().String("lmk", "", "LMK in hex (overrides hsm.lmk)")

	cmd.AddCommand(newGenerateKeyCommand())
	cmd.AddCommand(newImportKeyCommand())
	cmd.AddCommand(newCheckKeyCommand())
	cmd.AddCommand(newTypesCommand())

	return cmd
}

// newHSM builds the HSM from --lmk or the loaded configuration.
func newHSM(cmd *cobra.Command) (*hsm.HSM, error) {
	cfg := config.Get()
	lmk, _ := cmd.Flags().GetString("lmk")
	if lmk == "" {
		lmk = cfg.HSM.LMK
	}
	if lmk == "" {
		return nil, errors.New("no LMK configured: set hsm.lmk or pass --lmk")
	}

	h, err := hsm.NewHSM(lmk, cfg.HSM.Firmware, hsm.WithCacheSize(0))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize HSM instance: %w", err)
	}

	return h, nil
}

// printWrapped writes the cryptogram and KCV of a key put under the LMK.
func printWrapped(cmd *cobra.Command, h *hsm.HSM, kt hsm.KeyType, clearKey []byte) error {
	encrypted, err := h.EncryptUnderLMK(clearKey, kt.Code)
	if err != nil {
		return fmt.Errorf("failed to encrypt key: %w", err)
	}
	kcv, err := cryptoutils.KeyCV(clearKey, cryptoutils.KCV_LENGTH)
	if err != nil {
		return err
	}

	cmd.Printf("Encrypted Key: %s%s\n", keyScheme, cryptoutils.Raw2Str(encrypted))
	cmd.Printf("KCV: %s\n", kcv)

	return nil
}

const keyScheme = "U"
