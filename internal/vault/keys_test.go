package vault

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Standard bip39 test phrase.
const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestKeypairFromMnemonicDeterministic(t *testing.T) {
	first, err := KeypairFromMnemonic(testPhrase)
	require.NoError(t, err)
	second, err := KeypairFromMnemonic(testPhrase)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey(), second.PublicKey())
	assert.Equal(t, first.SecretHex(), second.SecretHex())
}

func TestKeypairFromMnemonicNormalizesWhitespace(t *testing.T) {
	messy := "  " + strings.ReplaceAll(testPhrase, " ", "   ") + "\n"
	kp, err := KeypairFromMnemonic(messy)
	require.NoError(t, err)

	canonical, err := KeypairFromMnemonic(testPhrase)
	require.NoError(t, err)
	assert.Equal(t, canonical.PublicKey(), kp.PublicKey())
}

func TestKeypairFromMnemonicRejectsBadInput(t *testing.T) {
	_, err := KeypairFromMnemonic("one two three")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	// 12 words, but fails the checksum
	_, err = KeypairFromMnemonic(strings.TrimSpace(strings.Repeat("abandon ", 12)))
	assert.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = KeypairFromMnemonic("")
	assert.ErrorIs(t, err, ErrInvalidMnemonic)
}

func TestKeypairFromSecretBase58(t *testing.T) {
	_, kp, err := GenerateWallet()
	require.NoError(t, err)

	encoded := base58.Encode(kp.PrivateKey)
	imported, err := KeypairFromSecret(encoded)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), imported.PublicKey())
}

func TestKeypairFromSecretHexFallback(t *testing.T) {
	_, kp, err := GenerateWallet()
	require.NoError(t, err)

	imported, err := KeypairFromSecret(kp.SecretHex())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), imported.PublicKey())

	// 0x prefix is tolerated
	imported, err = KeypairFromSecret("0x" + kp.SecretHex())
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), imported.PublicKey())
}

func TestKeypairFromSecretRejectsBadInput(t *testing.T) {
	_, err := KeypairFromSecret("")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	_, err = KeypairFromSecret("not a key")
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	// wrong length in both encodings
	_, err = KeypairFromSecret(hex.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)

	// right length but inconsistent public key half
	_, kp, err := GenerateWallet()
	require.NoError(t, err)
	raw := append([]byte(nil), kp.PrivateKey...)
	raw[40] ^= 0xff
	_, err = KeypairFromSecret(hex.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrInvalidKeyFormat)
}

func TestGenerateWallet(t *testing.T) {
	mnemonic, kp, err := GenerateWallet()
	require.NoError(t, err)
	assert.Len(t, strings.Fields(mnemonic), 24)

	// phrase re-derives the same key
	again, err := KeypairFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), again.PublicKey())

	// two generations never collide
	_, other, err := GenerateWallet()
	require.NoError(t, err)
	assert.NotEqual(t, kp.PublicKey(), other.PublicKey())
}
