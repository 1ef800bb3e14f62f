package vault

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidMnemonic is returned for a wrong word count or a phrase that
	// fails the bip39 checksum.
	ErrInvalidMnemonic = errors.New("invalid seed phrase")

	// ErrInvalidKeyFormat is returned when a raw secret key decodes to the
	// wrong length, or decodes in neither supported encoding.
	ErrInvalidKeyFormat = errors.New("invalid private key format")
)

const secretKeySize = 64 // ed25519 seed + public key

// Keypair wraps a full 64-byte ed25519 secret key.
type Keypair struct {
	PrivateKey solana.PrivateKey
}

func (k Keypair) PublicKey() solana.PublicKey {
	return k.PrivateKey.PublicKey()
}

// SecretHex returns the hex encoding of the full secret key, the form stored
// inside the encrypted wallet record.
func (k Keypair) SecretHex() string {
	return hex.EncodeToString(k.PrivateKey)
}

// KeypairFromMnemonic validates the phrase (12 or 24 words, bip39 checksum)
// and deterministically derives the signing key along DerivationPath.
func KeypairFromMnemonic(phrase string) (Keypair, error) {
	phrase = normalizePhrase(phrase)

	words := strings.Fields(phrase)
	if len(words) != 12 && len(words) != 24 {
		return Keypair{}, ErrInvalidMnemonic
	}
	if !bip39.IsMnemonicValid(phrase) {
		return Keypair{}, ErrInvalidMnemonic
	}

	seed := bip39.NewSeed(phrase, "")
	derived, err := deriveSeedForPath(seed, DerivationPath)
	if err != nil {
		return Keypair{}, fmt.Errorf("key derivation failed: %w", err)
	}

	priv := ed25519.NewKeyFromSeed(derived)
	return Keypair{PrivateKey: solana.PrivateKey(priv)}, nil
}

// KeypairFromSecret accepts a raw 64-byte secret key in base58 or hex,
// preferring base58. The embedded public key must match the one derivable
// from the seed half, otherwise the material is rejected.
func KeypairFromSecret(secret string) (Keypair, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Keypair{}, ErrInvalidKeyFormat
	}

	raw, err := base58.Decode(secret)
	if err != nil || len(raw) != secretKeySize {
		raw, err = hex.DecodeString(strings.TrimPrefix(secret, "0x"))
		if err != nil || len(raw) != secretKeySize {
			return Keypair{}, ErrInvalidKeyFormat
		}
	}

	priv := solana.PrivateKey(raw)
	derived := ed25519.NewKeyFromSeed(raw[:32])
	if !priv.PublicKey().Equals(solana.PublicKeyFromBytes(derived.Public().(ed25519.PublicKey))) {
		return Keypair{}, ErrInvalidKeyFormat
	}
	return Keypair{PrivateKey: priv}, nil
}

// KeypairFromSecretHex reconstructs a keypair from the hex form produced by
// SecretHex.
func KeypairFromSecretHex(secretHex string) (Keypair, error) {
	raw, err := hex.DecodeString(secretHex)
	if err != nil || len(raw) != secretKeySize {
		return Keypair{}, ErrInvalidKeyFormat
	}
	return Keypair{PrivateKey: solana.PrivateKey(raw)}, nil
}

// GenerateWallet produces a fresh 24-word phrase from 256 bits of entropy and
// derives its keypair.
func GenerateWallet() (string, Keypair, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", Keypair{}, fmt.Errorf("error generating entropy: %v", err)
	}

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", Keypair{}, fmt.Errorf("error generating mnemonic: %v", err)
	}

	kp, err := KeypairFromMnemonic(mnemonic)
	if err != nil {
		return "", Keypair{}, err
	}
	return mnemonic, kp, nil
}

func normalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(phrase))), " ")
}
