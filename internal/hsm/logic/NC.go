// Package logic implements the host commands. Each Execute function takes the
// command payload without its two character code and returns the full response.
package logic

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/andrei-cloud/go_dukpt/internal/message"
)

// ExecuteNC reports the LMK check value and the firmware version.
func ExecuteNC(svc KeyService, input []byte) ([]byte, error) {
	logInfo("NC: Starting diagnostics.")

	if _, err := message.NewNC(input); err != nil {
		logError("NC: Unexpected payload", err)

		return nil, err
	}

	kcv, err := svc.LMKCheckValue()
	if err != nil {
		logError("NC: Failed to calculate LMK check value", err)

		return nil, fmt.Errorf("lmk kcv: %w", errorcodes.Err41)
	}
	logDebug(fmt.Sprintf("NC: LMK check value: %s", kcv))

	return respond("ND", []byte(kcv), []byte(svc.Firmware())), nil
}
