package logic

import (
	"fmt"
	"strconv"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/message"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

// ExecuteKD derives a transaction usage key and returns it under the LMK
// key type matching the usage.
func ExecuteKD(svc KeyService, input []byte) ([]byte, error) {
	logInfo("KD: Starting transaction key derivation.")

	m, err := message.NewKD(input)
	if err != nil {
		logError("KD: Invalid payload", err)

		return nil, err
	}
	logDebug(m.Trace())

	code, _ := strconv.Atoi(string(m.Get("Usage")))
	usage := dukpt.KeyUsage(code)
	if !usage.Valid() {
		logError("KD: Unknown key usage", dukpt.ErrUnknownKeyUsage)

		return nil, fmt.Errorf("usage %02d: %w", code, errorcodes.Err21)
	}

	bdk, err := decryptKeyField(svc, m.Get("BDK"), hsm.KeyTypeBDK)
	if err != nil {
		logError("KD: Failed to decrypt BDK", err)

		return nil, err
	}
	ksn, err := decodeHexField(m.Get("KSN"))
	if err != nil {
		return nil, err
	}

	key, err := svc.TransactionKey(bdk, ksn, usage)
	if err != nil {
		logError("KD: Derivation failed", err)

		return nil, dukptError(err)
	}

	field, err := encryptKeyField(svc, key, hsm.KeyTypeForUsage(usage))
	if err != nil {
		logError("KD: Failed to wrap key", err)

		return nil, err
	}
	logInfo(fmt.Sprintf("KD: %s key derived.", usage))

	return respond("KE", field), nil
}
