package dukpt

import (
	"crypto/des"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/andrei-cloud/go_dukpt/pkg/bitvec"
)

type vectorFile struct {
	BDK          string `yaml:"bdk"`
	IPEK         string `yaml:"ipek"`
	Transactions []struct {
		KSN        string `yaml:"ksn"`
		SessionKey string `yaml:"session_key"`
		PINKey     string `yaml:"pin_key"`
	} `yaml:"transactions"`
}

func loadVectors(t *testing.T) vectorFile {
	t.Helper()

	raw, err := os.ReadFile("testdata/vectors.yaml")
	require.NoError(t, err)

	var vf vectorFile
	require.NoError(t, yaml.Unmarshal(raw, &vf))
	require.NotEmpty(t, vf.Transactions)

	return vf
}

// countingCipher counts single-DES calls made through DESCipher.
type countingCipher struct {
	DESCipher
	single atomic.Int32
}

func (c *countingCipher) EncryptSingle(key, block []byte) ([]byte, error) {
	c.single.Add(1)

	return c.DESCipher.EncryptSingle(key, block)
}

type failingCipher struct{}

var errBoom = errors.New("boom")

func (failingCipher) EncryptSingle(_, _ []byte) ([]byte, error) { return nil, errBoom }
func (failingCipher) EncryptTriple(_, _ []byte) ([]byte, error) { return nil, errBoom }

func TestKnownAnswerVectors(t *testing.T) {
	t.Parallel()

	vf := loadVectors(t)
	d := New()
	bdk := bitvec.MustFromHex(vf.BDK)

	for _, tx := range vf.Transactions {
		t.Run(tx.KSN, func(t *testing.T) {
			t.Parallel()

			ksn := bitvec.MustFromHex(tx.KSN)

			ipek, err := d.IPEK(bdk, ksn)
			require.NoError(t, err)
			assert.Equal(t, vf.IPEK, ipek.String())

			session, err := deriveSessionKey(DESCipher{}, ipek, ksn)
			require.NoError(t, err)
			assert.Equal(t, tx.SessionKey, session.String())

			pinKey, err := d.ComputeKey(bdk, ksn, PINRequest)
			require.NoError(t, err)
			assert.Equal(t, tx.PINKey, pinKey.String())
		})
	}
}

func TestComputeKeyMatchesMaskedSessionKey(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	ksn := bitvec.MustFromHex("FFFF9876543210E00001")
	session := bitvec.MustFromHex("042666B49184CFA368DE9628D0397BC9")

	for _, usage := range KeyUsages() {
		t.Run(usage.String(), func(t *testing.T) {
			t.Parallel()

			got, err := d.ComputeKey(bdk, ksn, usage)
			require.NoError(t, err)

			want, err := bitvec.Xored(session, usage.Mask())
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
		})
	}
}

func TestComputeKeyDeterministic(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	ksn := bitvec.MustFromHex("FFFF9876543210E0000A")

	first, err := d.ComputeKey(bdk, ksn, MACRequest)
	require.NoError(t, err)
	second, err := d.ComputeKey(bdk, ksn, MACRequest)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestInputsAreNotMutated(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	ksn := bitvec.MustFromHex("FFFF9876543210E1F0FF")

	_, err := d.ComputeDataKeyVariant(bdk, ksn)
	require.NoError(t, err)
	assert.Equal(t, "0123456789ABCDEFFEDCBA9876543210", bdk.String())
	assert.Equal(t, "FFFF9876543210E1F0FF", ksn.String())
}

func TestIPEKIgnoresCounter(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")

	base, err := d.IPEK(bdk, bitvec.MustFromHex("FFFF9876543210E00000"))
	require.NoError(t, err)

	for _, ksn := range []string{"FFFF9876543210E00001", "FFFF9876543210FFFFFF", "FFFF9876543210E80000"} {
		ipek, err := d.IPEK(bdk, bitvec.MustFromHex(ksn))
		require.NoError(t, err)
		assert.Equal(t, base.String(), ipek.String(), ksn)
	}

	other, err := d.IPEK(bdk, bitvec.MustFromHex("FFFF9876543211E00000"))
	require.NoError(t, err)
	assert.NotEqual(t, base.String(), other.String())
}

func TestZeroCounterIsIdentity(t *testing.T) {
	t.Parallel()

	c := &countingCipher{}
	ipek := bitvec.MustFromHex("6AC292FAA1315B4D858AB3A3D7D5933A")

	key, err := deriveSessionKey(c, ipek, bitvec.MustFromHex("FFFF9876543210E00000"))
	require.NoError(t, err)
	assert.True(t, key.Equal(ipek))
	assert.Zero(t, c.single.Load())
}

func TestRoundCountEqualsPopCount(t *testing.T) {
	t.Parallel()

	ipek := bitvec.MustFromHex("6AC292FAA1315B4D858AB3A3D7D5933A")
	for _, tc := range []struct {
		ksn    string
		rounds int32
	}{
		{"FFFF9876543210E00001", 1},
		{"FFFF9876543210E00003", 2},
		{"FFFF9876543210E0FF00", 8},
		{"FFFF9876543210FFFFFF", 21},
		{"FFFF9876543210F00000", 1},
	} {
		t.Run(tc.ksn, func(t *testing.T) {
			t.Parallel()

			c := &countingCipher{}
			ksn := bitvec.MustFromHex(tc.ksn)
			_, err := deriveSessionKey(c, ipek, ksn)
			require.NoError(t, err)

			assert.Equal(t, tc.rounds, int32(ksn.OnesCount(CounterStart, KSNBits)))
			// Each round encrypts twice with single DES.
			assert.Equal(t, 2*tc.rounds, c.single.Load())
		})
	}
}

func TestAdvanceUsesUnmaskedThenMaskedKey(t *testing.T) {
	t.Parallel()

	key := bitvec.MustFromHex("6AC292FAA1315B4D858AB3A3D7D5933A")
	data := bitvec.MustFromHex("9876543210E00001")

	got, err := advance(DESCipher{}, key, data)
	require.NoError(t, err)
	assert.Equal(t, "042666B49184CFA368DE9628D0397BC9", got.String())

	// Rebuild the two halves by hand from crypto/des.
	encrypt := func(k, b []byte) []byte {
		c, err := des.NewCipher(k)
		require.NoError(t, err)
		out := make([]byte, 8)
		c.Encrypt(out, b)

		return out
	}
	xor := func(a, b []byte) []byte {
		out := make([]byte, len(a))
		for i := range a {
			out[i] = a[i] ^ b[i]
		}

		return out
	}

	k := key.Bytes()
	masked := xor(k, keyRegisterMask.Bytes())
	d := data.Bytes()
	r2 := xor(encrypt(k[:8], xor(d, k[8:])), k[8:])
	r1 := xor(encrypt(masked[:8], xor(d, masked[8:])), masked[8:])

	assert.Equal(t, append(r1, r2...), got.Bytes())
	assert.Equal(t, "6AC292FAA1315B4D858AB3A3D7D5933A", key.String())
}

func TestMaskInvolution(t *testing.T) {
	t.Parallel()

	key := bitvec.MustFromHex("279C0F6AEED0BE652B2C733E1383AE91")
	for _, usage := range KeyUsages() {
		once, err := ApplyMask(key, usage)
		require.NoError(t, err)
		assert.False(t, once.Equal(key), usage.String())

		twice, err := ApplyMask(once, usage)
		require.NoError(t, err)
		assert.True(t, twice.Equal(key), usage.String())
	}

	_, err := ApplyMask(key, KeyUsage(42))
	require.ErrorIs(t, err, ErrUnknownKeyUsage)
}

func TestDataKeyVariant(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	ksn := bitvec.MustFromHex("FFFF9876543210E00001")

	got, err := d.ComputeDataKeyVariant(bdk, ksn)
	require.NoError(t, err)
	require.Equal(t, KeyBits, got.Len())

	dataKey, err := d.ComputeKey(bdk, ksn, DataRequest)
	require.NoError(t, err)
	assert.Equal(t, "042666B4917BCFA368DE9628D0C67BC9", dataKey.String())

	k := dataKey.Bytes()
	c, err := des.NewTripleDESCipher(append(append([]byte{}, k...), k[:8]...))
	require.NoError(t, err)
	want := make([]byte, 16)
	c.Encrypt(want[:8], k[:8])
	c.Encrypt(want[8:], k[8:])
	assert.Equal(t, want, got.Bytes())

	ipek, err := d.IPEK(bdk, ksn)
	require.NoError(t, err)
	fromIPEK, err := d.DataKeyVariantFromIPEK(ipek, ksn)
	require.NoError(t, err)
	assert.True(t, fromIPEK.Equal(got))
}

func TestOutputWidthForLongKSN(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	short := bitvec.MustFromHex("FFFF9876543210E00001")
	long := bitvec.MustFromHex("FFFF9876543210E00001ABCD")

	a, err := d.ComputeKey(bdk, short, PINRequest)
	require.NoError(t, err)
	b, err := d.ComputeKey(bdk, long, PINRequest)
	require.NoError(t, err)
	assert.Equal(t, KeyBits, b.Len())
	assert.True(t, a.Equal(b))

	dk, err := d.ComputeDataKeyVariant(bdk, long)
	require.NoError(t, err)
	assert.Equal(t, KeyBits, dk.Len())
}

func TestLengthValidation(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	ksn := bitvec.MustFromHex("FFFF9876543210E00001")

	_, err := d.ComputeKey(bitvec.MustFromHex("0123456789ABCDEF"), ksn, PINRequest)
	require.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = d.ComputeKey(bdk, ksn.Slice(0, 60), PINRequest)
	require.ErrorIs(t, err, ErrInvalidKsnLength)

	_, err = d.ComputeDataKeyVariant(bdk, ksn.Slice(0, 60))
	require.ErrorIs(t, err, ErrInvalidKsnLength)

	_, err = d.ComputeKey(bdk, ksn, KeyUsage(-1))
	require.ErrorIs(t, err, ErrUnknownKeyUsage)

	_, err = DeriveKey(make([]byte, 24), ksn.Bytes(), PINRequest)
	require.ErrorIs(t, err, ErrInvalidKeyLength)
}

func TestCipherFailurePropagates(t *testing.T) {
	t.Parallel()

	d := New(WithCipher(failingCipher{}))
	_, err := d.ComputeKey(
		bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210"),
		bitvec.MustFromHex("FFFF9876543210E00001"),
		PINRequest,
	)
	require.ErrorIs(t, err, ErrCipherFailure)
	require.ErrorIs(t, err, errBoom)
}

func TestConcurrentDerivations(t *testing.T) {
	t.Parallel()

	d := New()
	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210")
	want := map[string]string{
		"FFFF9876543210E00001": "042666B49184CF5C68DE9628D0397B36",
		"FFFF9876543210E00002": "C46551CEF9FD244FAA9AD834130D3B38",
		"FFFF9876543210E00003": "0DF3D9422ACA561A47676D07AD6BAD05",
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 10; i++ {
		for ksnHex, pinKey := range want {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := d.ComputeKey(bdk, bitvec.MustFromHex(ksnHex), PINRequest)
				if err != nil {
					errs <- err

					return
				}
				if got.String() != pinKey {
					errs <- errors.New(ksnHex + ": got " + got.String())
				}
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestDeriveKeyBytes(t *testing.T) {
	t.Parallel()

	bdk := bitvec.MustFromHex("0123456789ABCDEFFEDCBA9876543210").Bytes()
	ksn := bitvec.MustFromHex("FFFF9876543210E00004").Bytes()

	key, err := DeriveKey(bdk, ksn, PINRequest)
	require.NoError(t, err)
	assert.Equal(t, "279C0F6AEED0BE9A2B2C733E1383AE6E", bitvec.FromBytes(key).String())

	dk, err := DeriveDataKey(bdk, ksn)
	require.NoError(t, err)
	assert.Len(t, dk, 16)
}

func TestCounter(t *testing.T) {
	t.Parallel()

	n, err := Counter(bitvec.MustFromHex("FFFF9876543210E00004"))
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)

	n, err = Counter(bitvec.MustFromHex("FFFF9876543210FFFFFF"))
	require.NoError(t, err)
	assert.Equal(t, uint32(1<<CounterBits-1), n)

	_, err = Counter(bitvec.New(64))
	require.ErrorIs(t, err, ErrInvalidKsnLength)
}

func TestParseKeyUsage(t *testing.T) {
	t.Parallel()

	u, err := ParseKeyUsage("mac-response")
	require.NoError(t, err)
	assert.Equal(t, MACResponse, u)

	u, err = ParseKeyUsage("04")
	require.NoError(t, err)
	assert.Equal(t, DataRequest, u)

	_, err = ParseKeyUsage("07")
	require.ErrorIs(t, err, ErrUnknownKeyUsage)

	assert.Len(t, KeyUsages(), 6)
	assert.Equal(t, "KeyUsage(9)", KeyUsage(9).String())
}
