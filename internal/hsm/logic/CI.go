package logic

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/message"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

// ExecuteCI translates a PIN block encrypted by a DUKPT device to encryption
// under a ZPK. The device PIN key is the PIN-request variant of the
// transaction key.
func ExecuteCI(svc KeyService, input []byte) ([]byte, error) {
	logInfo("CI: Starting PIN translation.")

	m, err := message.NewCI(input)
	if err != nil {
		logError("CI: Invalid payload", err)

		return nil, err
	}
	logDebug(m.Trace())

	bdk, err := decryptKeyField(svc, m.Get("BDK"), hsm.KeyTypeBDK)
	if err != nil {
		logError("CI: Failed to decrypt BDK", err)

		return nil, err
	}
	zpk, err := decryptKeyField(svc, m.Get("ZPK"), hsm.KeyTypeZPK)
	if err != nil {
		logError("CI: Failed to decrypt ZPK", err)

		return nil, err
	}
	ksn, err := decodeHexField(m.Get("KSN"))
	if err != nil {
		return nil, err
	}
	pinBlock, err := decodeHexField(m.Get("PIN Block"))
	if err != nil {
		return nil, err
	}

	pinKey, err := svc.TransactionKey(bdk, ksn, dukpt.PINRequest)
	if err != nil {
		logError("CI: Derivation failed", err)

		return nil, dukptError(err)
	}

	clearBlock, err := cryptoutils.DecryptECB(pinKey, pinBlock)
	if err != nil {
		return nil, fmt.Errorf("decrypt pin block: %w", errorcodes.Err42)
	}
	out, err := cryptoutils.EncryptECB(zpk, clearBlock)
	if err != nil {
		return nil, fmt.Errorf("encrypt pin block: %w", errorcodes.Err42)
	}
	logInfo("CI: PIN block translated.")

	return respond("CJ", cryptoutils.Raw2B(out)), nil
}
