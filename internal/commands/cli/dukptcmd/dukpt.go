// Package dukptcmd provides the offline DUKPT derivation commands.
package dukptcmd

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewDukptCommand creates the dukpt command group.
func NewDukptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dukpt",
		Short: "Offline DUKPT key derivation",
		Long: `Offline DUKPT (ANSI X9.24 TDEA) key derivation.
The BDK is taken from --bdk or, when omitted, read from the terminal without echo
or from the first line of standard input. Keys are printed in hex with their KCV.`,
	}

	cmd.AddCommand(newIPEKCommand())
	cmd.AddCommand(newDeriveCommand())
	cmd.AddCommand(newDataKeyCommand())
	cmd.AddCommand(newPINBlockCommand())
	cmd.AddCommand(newUsagesCommand())
	cmd.AddCommand(newTUICommand())

	return cmd
}

// addKeyFlags registers the --bdk and --ksn flags.
func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("bdk", "", "Base Derivation Key in hex (32 characters)")
	cmd.Flags().String("ksn", "", "Key Serial Number in hex (20 characters)")
	if err := cmd.MarkFlagRequired("ksn"); err != nil {
		panic(err)
	}
}

// keyInputs decodes the BDK and KSN of a command.
func keyInputs(cmd *cobra.Command) ([]byte, []byte, error) {
	bdkHex, _ := cmd.Flags().GetString("bdk")
	ksnHex, _ := cmd.Flags().GetString("ksn")

	if bdkHex == "" {
		var err error
		if bdkHex, err = readBDK(cmd); err != nil {
			return nil, nil, err
		}
	}

	bdk, err := hex.DecodeString(strings.TrimSpace(bdkHex))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid BDK hex: %w", err)
	}
	ksn, err := hex.DecodeString(strings.TrimSpace(ksnHex))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid KSN hex: %w", err)
	}

	return bdk, ksn, nil
}

// readBDK prompts for the BDK without echo on a terminal, otherwise reads one
// line from the command input.
func readBDK(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "BDK: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read BDK: %w", err)
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read BDK: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return "", errors.New("BDK is required: pass --bdk or provide it on standard input")
	}

	return line, nil
}

// printKey writes a labelled key and its check value.
func printKey(cmd *cobra.Command, label string, key []byte) error {
	kcv, err := cryptoutils.KeyCV(key, cryptoutils.KCV_LENGTH)
	if err != nil {
		return err
	}
	cmd.Printf("%s: %s\n", label, cryptoutils.Raw2Str(key))
	cmd.Printf("KCV: %s\n", kcv)

	return nil
}
