package vault

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte(`{"wallets":[{"name":"Wallet 1"}]}`)

	blob, err := Encrypt(plaintext, "correct horse battery staple")
	require.NoError(t, err)

	decrypted, err := Decrypt(blob, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	plaintext := []byte("same plaintext")

	first, err := Encrypt(plaintext, "secret")
	require.NoError(t, err)
	second, err := Encrypt(plaintext, "secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptWrongSecret(t *testing.T) {
	blob, err := Encrypt([]byte("payload"), "secretA")
	require.NoError(t, err)

	_, err = Decrypt(blob, "secretB")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptCorruptedBlob(t *testing.T) {
	blob, err := Encrypt([]byte("payload"), "secret")
	require.NoError(t, err)

	raw, err := hex.DecodeString(blob)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	corrupted := hex.EncodeToString(raw)

	_, err = Decrypt(corrupted, "secret")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt("not hex at all", "secret")
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	_, err = Decrypt("deadbeef", "secret")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestBlobLayout(t *testing.T) {
	blob, err := Encrypt([]byte("x"), "secret")
	require.NoError(t, err)

	raw, err := hex.DecodeString(blob)
	require.NoError(t, err)
	// salt(16) + nonce(12) + 1 byte plaintext + 16 byte GCM tag
	assert.Equal(t, 16+12+1+16, len(raw))
}
