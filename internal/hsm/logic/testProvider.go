package logic

import (
	"github.com/andrei-cloud/go_dukpt/internal/hsm"
)

const (
	testLMKKeyHex = "0123456789ABCDEFFEDCBA9876543210"
	testFirmware  = "0007-E000"
)

// NewTestService returns an HSM with a fixed test LMK for unit tests.
func NewTestService() (*hsm.HSM, error) {
	return hsm.NewHSM(testLMKKeyHex, testFirmware)
}

// WrapTestKey encrypts a clear hex key under the test LMK and returns the
// 'U'+32H field a client would send.
func WrapTestKey(svc KeyService, clearHex, keyType string) ([]byte, error) {
	clearKey, err := decodeHexField([]byte(clearHex))
	if err != nil {
		return nil, err
	}
	field, err := encryptKeyField(svc, clearKey, keyType)
	if err != nil {
		return nil, err
	}

	return field[:33], nil
}
