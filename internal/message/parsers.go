package message

import (
	"fmt"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
)

// Data encryption modes for M0/M2.
const (
	ModeECB = "00"
	ModeCBC = "01"
)

// MAC directions for M6/M8.
const (
	DirectionRequest  = '0'
	DirectionResponse = '1'
)

// NewNC parses an NC Perform Diagnostics command. It takes no fields.
func NewNC(data []byte) (*BaseMessage, error) {
	return newReader(NewBaseMessage("NC", "Perform Diagnostics"), data).done()
}

// NewID parses an ID Derive IPEK command: BDK, KSN.
func NewID(data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage("ID", "Derive DUKPT IPEK"), data)
	r.key("BDK")
	r.hex("KSN", KSNFieldLen)

	return r.done()
}

// NewKD parses a KD Derive Transaction Key command: usage, BDK, KSN.
func NewKD(data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage("KD", "Derive DUKPT Transaction Key"), data)
	r.digits("Usage", 2)
	r.key("BDK")
	r.hex("KSN", KSNFieldLen)

	return r.done()
}

// NewCI parses a CI Translate PIN from DUKPT to ZPK command: BDK, ZPK, KSN, PIN block.
func NewCI(data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage("CI", "Translate PIN from DUKPT to ZPK"), data)
	r.key("BDK")
	r.key("ZPK")
	r.hex("KSN", KSNFieldLen)
	r.hex("PIN Block", BlockFieldLen)

	return r.done()
}

// NewM0 parses an M0 Encrypt Data command.
func NewM0(data []byte) (*BaseMessage, error) {
	return newDataMessage("M0", "Encrypt Data under DUKPT", data)
}

// NewM2 parses an M2 Decrypt Data command.
func NewM2(data []byte) (*BaseMessage, error) {
	return newDataMessage("M2", "Decrypt Data under DUKPT", data)
}

func newDataMessage(code, description string, data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage(code, description), data)
	mode := r.digits("Mode", 2)
	r.key("BDK")
	r.hex("KSN", KSNFieldLen)
	switch string(mode) {
	case ModeECB:
	case ModeCBC:
		r.hex("IV", BlockFieldLen)
	default:
		if r.err == nil {
			r.fail(fmt.Errorf("mode %s: %w", mode, errorcodes.Err21))
		}
	}
	r.lengthPrefixed("Data")

	return r.done()
}

// NewM6 parses an M6 Generate MAC command.
func NewM6(data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage("M6", "Generate MAC under DUKPT"), data)
	macHeader(r)
	r.lengthPrefixed("Data")

	return r.done()
}

// NewM8 parses an M8 Verify MAC command.
func NewM8(data []byte) (*BaseMessage, error) {
	r := newReader(NewBaseMessage("M8", "Verify MAC under DUKPT"), data)
	macHeader(r)
	r.hex("MAC", BlockFieldLen)
	r.lengthPrefixed("Data")

	return r.done()
}

func macHeader(r *reader) {
	dir := r.take("Direction", 1)
	if r.err == nil && dir[0] != DirectionRequest && dir[0] != DirectionResponse {
		r.fail(fmt.Errorf("direction %q: %w", dir[0], errorcodes.Err21))
	}
	r.key("BDK")
	r.hex("KSN", KSNFieldLen)
}
