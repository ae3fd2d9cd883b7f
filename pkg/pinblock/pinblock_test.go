package pinblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPAN = "4111111111111111"

func TestEncodeISO0(t *testing.T) {
	t.Parallel()

	block, err := Encode("1234", testPAN, ISO0)
	require.NoError(t, err)
	assert.Equal(t, "041225EEEEEEEEEE", block)

	pin, err := Decode("041225eeeeeeeeee", testPAN, ISO0)
	require.NoError(t, err)
	assert.Equal(t, "1234", pin)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		pin    string
	}{
		{ISO0, "1234"},
		{ISO0, "123456789012"},
		{ISO1, "0000"},
		{ISO1, "98765"},
		{ISO3, "4321"},
		{ISO3, "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.format.String()+"/"+tt.pin, func(t *testing.T) {
			t.Parallel()

			block, err := Encode(tt.pin, testPAN, tt.format)
			require.NoError(t, err)
			require.Len(t, block, BlockLen)

			pin, err := Decode(block, testPAN, tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.pin, pin)
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pin    string
		pan    string
		format Format
		want   error
	}{
		{"short pin", "123", testPAN, ISO0, ErrInvalidPinLength},
		{"long pin", "1234567890123", testPAN, ISO0, ErrInvalidPinLength},
		{"non-digit pin", "12a4", testPAN, ISO0, ErrInvalidPinLength},
		{"short pan", "1234", "411111111111", ISO0, ErrInvalidPanLength},
		{"short pan iso3", "1234", "", ISO3, ErrInvalidPanLength},
		{"unknown format", "1234", testPAN, Format(9), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Encode(tt.pin, tt.pan, tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		block  string
		pan    string
		format Format
		want   error
	}{
		{"short block", "0412", testPAN, ISO0, ErrInvalidPinBlockLength},
		{"not hex", "041225EEEEEEEEEZ", testPAN, ISO0, ErrInvalidPinBlockLength},
		{"wrong pan", "041225EEEEEEEEEE", "5500000000000004", ISO0, ErrDecoding},
		{"wrong format", "041225EEEEEEEEEE", testPAN, ISO3, ErrDecoding},
		{"bad length nibble", "1234FFFFFFFFFFFF", "", ISO1, ErrDecoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decode(tt.block, tt.pan, tt.format)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"iso0": ISO0, "ISO1": ISO1, "3": ISO3} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("iso2")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
