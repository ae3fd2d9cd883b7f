package keys

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLMK = "0123456789ABCDEFFEDCBA9876543210"
	testBDK = "0123456789ABCDEFFEDCBA9876543210"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewKeysCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(append(args, "--lmk", testLMK))
	cmd.SilenceUsage = true

	err := cmd.Execute()

	return buf.String(), err
}

func field(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, label+": "); ok {
			return v
		}
	}

	return ""
}

func TestImportAndCheck(t *testing.T) {
	out, err := executeCommand(t, "import", "--key", testBDK, "--type", "009")
	require.NoError(t, err)
	assert.Equal(t, "009 (BDK)", field(out, "Key Type"))
	assert.Equal(t, "true", field(out, "Parity Check"))
	assert.Equal(t, "08D7B4", field(out, "KCV"))

	cryptogram := field(out, "Encrypted Key")
	require.Len(t, cryptogram, 33)
	assert.True(t, strings.HasPrefix(cryptogram, "U"))

	out, err = executeCommand(t, "check", "--key", cryptogram, "--type", "009")
	require.NoError(t, err)
	assert.Equal(t, "08D7B4", field(out, "KCV"))
	assert.Equal(t, "true", field(out, "Parity Valid"))

	// The same cryptogram under another key type decrypts to a different key.
	out, err = executeCommand(t, "check", "--key", cryptogram, "--type", "001")
	require.NoError(t, err)
	assert.NotEqual(t, "08D7B4", field(out, "KCV"))
}

func TestImportParity(t *testing.T) {
	const badParity = "00112233445566778899AABBCCDDEEFF"

	_, err := executeCommand(t, "import", "--key", badParity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid DES parity")

	out, err := executeCommand(t, "import", "--key", badParity, "--force-parity")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning: Key has invalid parity")
	assert.Equal(t, "false", field(out, "Parity Check"))
	assert.Len(t, field(out, "Encrypted Key"), 33)
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad hex", []string{"import", "--key", "ZZ"}, "invalid key hex"},
		{"single length", []string{"import", "--key", "0123456789ABCDEF"}, "invalid key length"},
		{"unknown type", []string{"import", "--key", testBDK, "--type", "999"}, "invalid key type"},
		{"missing prefix", []string{"check", "--key", testBDK}, "scheme prefix"},
		{"short cryptogram", []string{"check", "--key", "U0123"}, "failed to decrypt key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGenerate(t *testing.T) {
	out, err := executeCommand(t, "generate", "--type", "00a", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "00A (ZEK)", field(out, "Key Type"))

	clearKey := field(out, "Clear Key")
	require.Len(t, clearKey, 32)

	check, err := executeCommand(t, "check", "--key", field(out, "Encrypted Key"), "--type", "00A")
	require.NoError(t, err)
	assert.Equal(t, field(out, "KCV"), field(check, "KCV"))
	assert.Equal(t, "true", field(check, "Parity Valid"))
}

func TestTypes(t *testing.T) {
	out, err := executeCommand(t, "types")
	require.NoError(t, err)

	for _, code := range []string{"001", "003", "009", "00A", "302", "70A", "70B", "70D"} {
		assert.Contains(t, out, code)
	}
	assert.Less(t, strings.Index(out, "001"), strings.Index(out, "70D"))
}
