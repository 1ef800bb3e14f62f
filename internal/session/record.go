package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// WalletRecord is one key-managed identity inside the encrypted vault. The
// secret key and mnemonic never leave this package except through Signer.
type WalletRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PublicKey  string    `json:"publicKey"`
	SecretHex  string    `json:"secretKey"`
	Mnemonic   string    `json:"mnemonic,omitempty"`
	IsFavorite bool      `json:"isFavorite"`
	LastUsed   time.Time `json:"lastUsed"`
}

// WalletInfo is the secret-free view handed to callers.
type WalletInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PublicKey  string    `json:"publicKey"`
	IsFavorite bool      `json:"isFavorite"`
	LastUsed   time.Time `json:"lastUsed"`
}

func (r WalletRecord) info() WalletInfo {
	return WalletInfo{
		ID:         r.ID,
		Name:       r.Name,
		PublicKey:  r.PublicKey,
		IsFavorite: r.IsFavorite,
		LastUsed:   r.LastUsed,
	}
}

// vaultPayload is the plaintext JSON shape of the encrypted blob.
type vaultPayload struct {
	Wallets []WalletRecord `json:"wallets"`
}

func newRecordID() string {
	return uuid.NewString()
}

func defaultWalletName(position int) string {
	return fmt.Sprintf("Wallet %d", position)
}
