package vault

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Vectors from the SLIP-0010 specification, ed25519 curve.
func TestDeriveSeedForPathSlip10Vectors(t *testing.T) {
	seed1, err := hex.DecodeString("000102030405060708090a0b0c0d0e0f")
	require.NoError(t, err)

	chain1 := []struct {
		path   string
		keyHex string
		pubHex string
	}{
		{"m/0'", "68e0fe46dfb67e368c75379acec591dad19df3cde26e63b93a8e704f1dade7a3",
			"8c8a13df77a28f3445213a0f432fde644acaa215fc72dcdf300d5efaa85d350c"},
		{"m/0'/1'", "b1d0bad404bf35da785a64ca1ac54b2617211d2777696fbffaf208f746ae84f2",
			"1932a5270f335bed617d5b935c80aedb1a35bd9fc1e31acafd5372c30f5c1187"},
		{"m/0'/1'/2'", "92a5b23c0b8a99e37d07df3fb9966917f5d06e02ddbd909c7e184371463e9fc9",
			"ae98736566d30ed0e9d2f4486a64bc95740d89c7db33f52121f8ea8f76ff0fc1"},
		{"m/0'/1'/2'/2'", "30d1dc7e5fc04c31219ab25a27ae00b50f6fd66622f6e9c913253d6511d1e662",
			"8abae2d66361c879b900d204ad2cc4984fa2aa344dd7ddc46007329ac76c429c"},
		{"m/0'/1'/2'/2'/1000000000'", "8f94d394a8e8fd6b1bc2f3f49f5c47e385281d5c17e65324b0f62483e37e8793",
			"3c24da049451555d51a7014a37337aa4e12d41e485abccfa46b47dfb2af54b7a"},
	}
	for _, tc := range chain1 {
		derived, err := deriveSeedForPath(seed1, tc.path)
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.keyHex, hex.EncodeToString(derived), tc.path)

		pub := ed25519.NewKeyFromSeed(derived).Public().(ed25519.PublicKey)
		assert.Equal(t, tc.pubHex, hex.EncodeToString(pub), tc.path)
	}

	seed2, err := hex.DecodeString(
		"fffcf9f6f3f0edeae7e4e1dedbd8d5d2cfccc9c6c3c0bdbab7b4b1aeaba8a5a2" +
			"9f9c999693908d8a8784817e7b7875726f6c696663605d5a5754514e4b484542")
	require.NoError(t, err)

	derived, err := deriveSeedForPath(seed2, "m/0'")
	require.NoError(t, err)
	assert.Equal(t, "1559eb2bbec5790b0c65d8693e4d0875b1747f4970ae8b650486ed7470845635",
		hex.EncodeToString(derived))
}

func TestDeriveSeedForPathWalletPathKnownAnswer(t *testing.T) {
	// standard test mnemonic; expected values cross-checked against the
	// reference SLIP-0010 derivation at the fixed account path
	const mnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

	kp, err := KeypairFromMnemonic(mnemonic)
	require.NoError(t, err)
	assert.Equal(t, "HAgk14JpMQLgt6rVgv7cBQFJWFto5Dqxi472uT3DKpqk", kp.PublicKey().String())
	assert.Equal(t, "37df573b3ac4ad5b522e064e25b63ea16bcbe79d449e81a0268d1047948bb445",
		hex.EncodeToString(kp.PrivateKey[:32]))
}

func TestDeriveSeedForPathRejectsMalformedPaths(t *testing.T) {
	seed := make([]byte, 64)
	for _, path := range []string{"", "44'/501'", "m/44/501'/0'/0'", "m/44'/abc'", "m/4294967295'"} {
		_, err := deriveSeedForPath(seed, path)
		assert.Error(t, err, path)
	}
}
