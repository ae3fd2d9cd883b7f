package logic

import (
	"crypto/subtle"
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
	"github.com/andrei-cloud/go_dukpt/internal/message"
	"github.com/andrei-cloud/go_dukpt/pkg/cryptoutils"
	"github.com/andrei-cloud/go_dukpt/pkg/dukpt"
)

// ExecuteM6 generates an ISO 9797-1 algorithm 3 MAC with the DUKPT MAC key.
func ExecuteM6(svc KeyService, input []byte) ([]byte, error) {
	m, err := message.NewM6(input)
	if err != nil {
		logError("M6: Invalid payload", err)

		return nil, err
	}

	mac, err := macOf(svc, m)
	if err != nil {
		return nil, err
	}
	logInfo("M6: MAC generated.")

	return respond("M7", cryptoutils.Raw2B(mac)), nil
}

// ExecuteM8 verifies a MAC produced with the DUKPT MAC key. A mismatch
// answers with error 01.
func ExecuteM8(svc KeyService, input []byte) ([]byte, error) {
	m, err := message.NewM8(input)
	if err != nil {
		logError("M8: Invalid payload", err)

		return nil, err
	}

	want, err := decodeHexField(m.Get("MAC"))
	if err != nil {
		return nil, err
	}
	mac, err := macOf(svc, m)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare(mac, want) != 1 {
		logInfo("M8: MAC verification failed.")

		return nil, errorcodes.Err01
	}
	logInfo("M8: MAC verified.")

	return respond("M9"), nil
}

func macOf(svc KeyService, m *message.BaseMessage) ([]byte, error) {
	cmd := m.CommandCode()
	logDebug(m.Trace())

	usage := dukpt.MACRequest
	if m.Get("Direction")[0] == message.DirectionResponse {
		usage = dukpt.MACResponse
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
	data, err := decodeHexField(m.Get("Data"))
	if err != nil {
		return nil, err
	}

	key, err := svc.TransactionKey(bdk, ksn, usage)
	if err != nil {
		logError(fmt.Sprintf("%s: Derivation failed", cmd), err)

		return nil, dukptError(err)
	}

	mac, err := cryptoutils.RetailMAC(data, key)
	if err != nil {
		logError(fmt.Sprintf("%s: MAC failure", cmd), err)

		return nil, fmt.Errorf("%s: %w", cmd, errorcodes.Err42)
	}

	return mac, nil
}
