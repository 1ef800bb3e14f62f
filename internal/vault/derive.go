package vault

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DerivationPath is the fixed account path used for every phrase-derived
// signing key. Index 501 is the registered coin type for the target chain.
const DerivationPath = "m/44'/501'/0'/0'"

const hardenedOffset = 0x80000000

var masterKeyHMAC = []byte("ed25519 seed")

// deriveSeedForPath walks a SLIP-0010 ed25519 derivation path over the given
// bip39 seed and returns the 32-byte child seed. Ed25519 derivation only
// supports hardened indices, so every path segment must carry the ' marker.
func deriveSeedForPath(seed []byte, path string) ([]byte, error) {
	segments, err := parsePath(path)
	if err != nil {
		return nil, err
	}

	key, chainCode := masterKey(seed)
	for _, index := range segments {
		key, chainCode = childKey(key, chainCode, index)
	}
	return key, nil
}

func masterKey(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, masterKeyHMAC)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func childKey(parentKey, parentChain []byte, index uint32) (key, chainCode []byte) {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, parentKey...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, parentChain)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func parsePath(path string) ([]uint32, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("invalid derivation path %q", path)
	}

	parts := strings.Split(strings.TrimPrefix(path, "m/"), "/")
	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		if !strings.HasSuffix(part, "'") {
			return nil, fmt.Errorf("derivation path component %q must be hardened", part)
		}
		index, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid derivation path component %q: %v", part, err)
		}
		if index >= hardenedOffset {
			return nil, fmt.Errorf("derivation path index %d out of range", index)
		}
		indices = append(indices, uint32(index)+hardenedOffset)
	}
	return indices, nil
}
