package logic

import (
	"crypto/des"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/message"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
)

// ExecuteM0 encrypts data under the DUKPT data key variant.
func ExecuteM0(svc KeyService, input []byte) ([]byte, error) {
	m, err := message.NewM0(input)
	if err != nil {
		logError("M0: Invalid payload", err)

		return nil, err
	}

	return dataCommand(svc, m, "M1", true)
}

// ExecuteM2 decrypts data under the DUKPT data key variant.
func ExecuteM2(svc KeyService, input []byte) ([]byte, error) {
	m, err := message.NewM2(input)
	if err != nil {
		logError("M2: Invalid payload", err)

		return nil, err
	}

	return dataCommand(svc, m, "M3", false)
}

func dataCommand(svc KeyService, m *message.BaseMessage, respCode string, encrypt bool) ([]byte, error) {
	cmd := m.CommandCode()
	logInfo(fmt.Sprintf("%s: Starting %s.", cmd, m.Description()))
	logDebug(m.Trace())

	data, err := decodeHexField(m.Get("Data"))
	if err != nil {
		return nil, err
	}
	if len(data)%des.BlockSize != 0 {
		logError(fmt.Sprintf("%s: Data not block aligned", cmd), cryptoutils.ErrNotBlockAligned)

		return nil, fmt.Errorf("%d bytes: %w", len(data), errorcodes.Err80)
	}

	bdk, err := decryptKeyField(svc, m.Get("BDK"), hsm.KeyTypeBDK)
	if err != nil {
		logError(fmt.Sprintf("%s: Failed to decrypt BDK", cmd), err)

		return nil, err
	}
	ksn, err := decodeHexField(m.Get("KSN"))
	if err != nil {
		return nil, err
	}

	key, err := svc.DataKey(bdk, ksn)
	if err != nil {
		logError(fmt.Sprintf("%s: Derivation failed", cmd), err)

		return nil, dukptError(err)
	}

	var out []byte
	switch string(m.Get("Mode")) {
	case message.ModeCBC:
		iv, ierr := decodeHexField(m.Get("IV"))
		if ierr != nil {
			return nil, ierr
		}
		if encrypt {
			out, err = cryptoutils.EncryptCBC(key, iv, data)
		} else {
			out, err = cryptoutils.DecryptCBC(key, iv, data)
		}
	default:
		if encrypt {
			out, err = cryptoutils.EncryptECB(key, data)
		} else {
			out, err = cryptoutils.DecryptECB(key, data)
		}
	}
	if err != nil {
		logError(fmt.Sprintf("%s: Cipher failure", cmd), err)

		return nil, fmt.Errorf("%s: %w", cmd, errorcodes.Err42)
	}
	logInfo(fmt.Sprintf("%s: Processed %d bytes.", cmd, len(out)))

	return respond(respCode, fmt.Appendf(nil, "%04X", len(out)), cryptoutils.Raw2B(out)), nil
}
