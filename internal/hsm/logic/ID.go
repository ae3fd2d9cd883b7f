package logic

import (
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/message"
)

// ExecuteID derives the IPEK of a device and returns it under the LMK.
func ExecuteID(svc KeyService, input []byte) ([]byte, error) {
	logInfo("ID: Starting IPEK derivation.")

	m, err := message.NewID(input)
	if err != nil {
		logError("ID: Invalid payload", err)

		return nil, err
	}
	logDebug(m.Trace())

	bdk, err := decryptKeyField(svc, m.Get("BDK"), hsm.KeyTypeBDK)
	if err != nil {
		logError("ID: Failed to decrypt BDK", err)

		return nil, err
	}
	ksn, err := decodeHexField(m.Get("KSN"))
	if err != nil {
		return nil, err
	}

	ipek, err := svc.IPEK(bdk, ksn)
	if err != nil {
		logError("ID: Derivation failed", err)

		return nil, dukptError(err)
	}

	field, err := encryptKeyField(svc, ipek, hsm.KeyTypeIPEK)
	if err != nil {
		logError("ID: Failed to wrap IPEK", err)

		return nil, err
	}
	logInfo("ID: IPEK derived.")

	return respond("IE", field), nil
}
