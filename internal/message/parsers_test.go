package message

import (
	"errors"
	"strings"
	"testing"

	"github.com/andrei-cloud/go_dukpt/internal/errorcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "U0123456789ABCDEFFEDCBA9876543210"
	testKSN = "FFFF9876543210E00001"
)

func TestNewKD(t *testing.T) {
	t.Parallel()

	m, err := NewKD([]byte("00" + testKey + testKSN))
	require.NoError(t, err)
	assert.Equal(t, "KD", m.CommandCode())
	assert.Equal(t, "00", string(m.Get("Usage")))
	assert.Equal(t, testKey, string(m.Get("BDK")))
	assert.Equal(t, testKSN, string(m.Get("KSN")))

	trace := m.Trace()
	assert.Contains(t, trace, "[KSN]="+testKSN)
	assert.NotContains(t, trace, testKey)
}

func TestNewDataMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		payload  string
		wantIV   string
		wantData string
		wantCode string
	}{
		{
			name:     "ecb",
			payload:  "00" + testKey + testKSN + "0008" + "0011223344556677",
			wantData: "0011223344556677",
		},
		{
			name:     "cbc",
			payload:  "01" + testKey + testKSN + "FFFFFFFFFFFFFFFF" + "0008" + "0011223344556677",
			wantIV:   "FFFFFFFFFFFFFFFF",
			wantData: "0011223344556677",
		},
		{
			name:     "unknown mode",
			payload:  "07" + testKey + testKSN + "0008" + "0011223344556677",
			wantCode: "21",
		},
		{
			name:     "short data",
			payload:  "00" + testKey + testKSN + "0010" + "0011223344556677",
			wantCode: "80",
		},
		{
			name:     "zero length",
			payload:  "00" + testKey + testKSN + "0000",
			wantCode: "80",
		},
		{
			name:     "trailing bytes",
			payload:  "00" + testKey + testKSN + "0008" + "0011223344556677" + "FF",
			wantCode: "15",
		},
		{
			name:     "bad key scheme",
			payload:  "00" + "X" + testKey[1:] + testKSN + "0008" + "0011223344556677",
			wantCode: "27",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := NewM0([]byte(tt.payload))
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errorcodes.CodeOf(err))

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIV, string(m.Get("IV")))
			assert.Equal(t, tt.wantData, string(m.Get("Data")))
		})
	}
}

func TestNewMACMessages(t *testing.T) {
	t.Parallel()

	m, err := NewM6([]byte("1" + testKey + testKSN + "0003" + "414243"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(m.Get("Direction")))
	assert.Equal(t, "414243", string(m.Get("Data")))

	m, err = NewM8([]byte("0" + testKey + testKSN + "0123456789ABCDEF" + "0001" + "41"))
	require.NoError(t, err)
	assert.Equal(t, "0123456789ABCDEF", string(m.Get("MAC")))

	_, err = NewM6([]byte("2" + testKey + testKSN + "0001" + "41"))
	assert.True(t, errors.Is(err, errorcodes.Err21))
}

func TestTruncatedPayloads(t *testing.T) {
	t.Parallel()

	full := testKey + testKey + testKSN + "0123456789ABCDEF"
	for i := 0; i < len(full); i += 7 {
		_, err := NewCI([]byte(full[:i]))
		assert.ErrorIs(t, err, errorcodes.Err15, "prefix length %d", i)
	}

	m, err := NewCI([]byte(full))
	require.NoError(t, err)
	assert.Equal(t, "0123456789ABCDEF", string(m.Get("PIN Block")))
}

func TestNonHexRejected(t *testing.T) {
	t.Parallel()

	_, err := NewID([]byte(testKey + strings.Repeat("Z", KSNFieldLen)))
	assert.ErrorIs(t, err, errorcodes.Err15)

	_, err = NewKD([]byte("A0" + testKey + testKSN))
	assert.ErrorIs(t, err, errorcodes.Err15)

	_, err = NewNC([]byte("extra"))
	assert.ErrorIs(t, err, errorcodes.Err15)
}
