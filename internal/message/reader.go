package message

import (
	"fmt"
	"strconv"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
)

// Field widths in ASCII characters.
const (
	KeyFieldLen    = 33 // 'U' + 32 hex
	KSNFieldLen    = 20
	BlockFieldLen  = 16
	LengthFieldLen = 4
)

// Fields that carry key cryptograms.
var secretFields = []string{"BDK", "ZPK"}

// reader consumes a payload left to right. The first failure sticks.
type reader struct {
	msg  *BaseMessage
	data []byte
	err  error
}

func newReader(m *BaseMessage, data []byte) *reader {
	return &reader{msg: m, data: data}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// take stores the next n bytes under name.
func (r *reader) take(name string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data) < n {
		r.fail(fmt.Errorf("%s: need %d bytes, have %d: %w", name, n, len(r.data), errorcodes.Err15))

		return nil
	}
	v := r.data[:n]
	r.data = r.data[n:]
	r.msg.Set(name, v)

	return v
}

// hex stores the next n hex characters under name.
func (r *reader) hex(name string, n int) []byte {
	v := r.take(name, n)
	if r.err == nil && !isHex(v) {
		r.fail(fmt.Errorf("%s: not hex: %w", name, errorcodes.Err15))
	}

	return v
}

// key stores a 'U' scheme double length key cryptogram.
func (r *reader) key(name string) []byte {
	v := r.take(name, KeyFieldLen)
	if r.err != nil {
		return nil
	}
	if v[0] != 'U' {
		r.fail(fmt.Errorf("%s: unsupported key scheme %q: %w", name, v[0], errorcodes.Err27))

		return nil
	}
	if !isHex(v[1:]) {
		r.fail(fmt.Errorf("%s: not hex: %w", name, errorcodes.Err15))
	}

	return v
}

// digits stores the next n decimal digits under name.
func (r *reader) digits(name string, n int) []byte {
	v := r.take(name, n)
	if r.err != nil {
		return nil
	}
	for _, c := range v {
		if c < '0' || c > '9' {
			r.fail(fmt.Errorf("%s: not numeric: %w", name, errorcodes.Err15))

			return nil
		}
	}

	return v
}

// lengthPrefixed reads a 4H byte count followed by that many bytes as hex.
func (r *reader) lengthPrefixed(name string) []byte {
	l := r.hex("Length", LengthFieldLen)
	if r.err != nil {
		return nil
	}
	n, err := strconv.ParseUint(string(l), 16, 16)
	if err != nil {
		r.fail(fmt.Errorf("length: %w", errorcodes.Err15))

		return nil
	}
	if n == 0 {
		r.fail(fmt.Errorf("%s: empty: %w", name, errorcodes.Err80))

		return nil
	}
	if len(r.data) < int(n)*2 {
		r.fail(fmt.Errorf("%s: declared %d bytes, have %d hex chars: %w", name, n, len(r.data), errorcodes.Err80))

		return nil
	}

	return r.hex(name, int(n)*2)
}

// done rejects trailing bytes and returns the parsed message.
func (r *reader) done() (*BaseMessage, error) {
	if r.err == nil && len(r.data) != 0 {
		r.fail(fmt.Errorf("%d unexpected trailing bytes: %w", len(r.data), errorcodes.Err15))
	}
	if r.err != nil {
		return nil, fmt.Errorf("%s: %w", r.msg.cmdCode, r.err)
	}

	return r.msg, nil
}

func isHex(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'F', c >= 'a' && c <= 'f':
		default:
			return false
		}
	}

	return true
}
