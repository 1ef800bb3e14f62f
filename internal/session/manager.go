package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/adelekeogunsona/solana-web-wallet/internal/vault"
	"github.com/gagliardetto/solana-go"
)

// UnlockPolicy selects the secret format the vault accepts.
const (
	PolicyPIN      = "pin"
	PolicyPassword = "password"
)

// Config carries the session tunables.
type Config struct {
	UnlockPolicy       string
	PINLength          int
	MinPasswordLength  int
	AutoLogoutDuration time.Duration
	CheckInterval      time.Duration

	// test seam
	Now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.UnlockPolicy == "" {
		c.UnlockPolicy = PolicyPassword
	}
	if c.PINLength <= 0 {
		c.PINLength = 6
	}
	if c.MinPasswordLength <= 0 {
		c.MinPasswordLength = 8
	}
	if c.AutoLogoutDuration <= 0 {
		c.AutoLogoutDuration = 15 * time.Minute
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ImportParams provides exactly one source of key material: a recovery
// phrase or a raw secret key. Both empty means "generate fresh".
type ImportParams struct {
	Name      string
	Mnemonic  string
	SecretKey string
}

// Manager owns the authenticated session and the decrypted wallet
// collection, and is the only writer of the encrypted vault. Mutations are
// serialized by one mutex and always persist the re-encrypted collection
// before committing in-memory state.
type Manager struct {
	cfg   Config
	store storage.Store

	mu            sync.Mutex
	wallets       []WalletRecord
	activeID      string
	secret        string
	authenticated bool
	lastActivity  time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewManager builds the session manager and starts the expiry watcher.
func NewManager(store storage.Store, cfg Config) *Manager {
	cfg.applyDefaults()
	m := &Manager{
		cfg:   cfg,
		store: store,
		done:  make(chan struct{}),
	}
	m.wg.Add(1)
	go m.expiryLoop()
	return m
}

// Close stops the expiry watcher. The session itself is left as-is so a
// restart can restore it.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

// IsInitialized reports whether an encrypted vault has ever been persisted.
func (m *Manager) IsInitialized() bool {
	_, ok, err := m.store.GetItem(storage.KeyVault)
	if err != nil {
		logger.Error("failed to read vault flag: ", err)
		return false
	}
	return ok
}

// IsAuthenticated reports whether a session is currently active.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// Initialize creates the vault with one freshly generated wallet, persists
// it under the unlock secret and starts a session. The new phrase is parked
// in the pending-mnemonic slot until AcknowledgeMnemonic is called.
func (m *Manager) Initialize(secret, confirm string) (WalletInfo, error) {
	if err := m.validateNewSecret(secret, confirm); err != nil {
		return WalletInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initializedLocked() {
		return WalletInfo{}, ErrAlreadyInitialized
	}

	mnemonic, kp, err := vault.GenerateWallet()
	if err != nil {
		return WalletInfo{}, err
	}

	record := m.newRecordLocked("", kp, mnemonic)
	if err := m.persistLocked([]WalletRecord{record}, secret); err != nil {
		return WalletInfo{}, err
	}
	if err := m.store.SetItem(storage.KeyPendingMnemonic, mnemonic); err != nil {
		logger.Warn("failed to park pending mnemonic: ", err)
	}

	m.startSessionLocked([]WalletRecord{record}, record.ID, secret)
	logger.Info("vault initialized with wallet ", record.PublicKey)
	return record.info(), nil
}

// ImportFirst creates the vault from supplied key material instead of fresh
// entropy. Phrase and raw-key errors from the key utilities surface
// unchanged.
func (m *Manager) ImportFirst(params ImportParams, secret, confirm string) (WalletInfo, error) {
	if err := m.validateNewSecret(secret, confirm); err != nil {
		return WalletInfo{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initializedLocked() {
		return WalletInfo{}, ErrAlreadyInitialized
	}

	kp, mnemonic, err := deriveKeypair(params)
	if err != nil {
		return WalletInfo{}, err
	}

	record := m.newRecordLocked(params.Name, kp, mnemonic)
	if err := m.persistLocked([]WalletRecord{record}, secret); err != nil {
		return WalletInfo{}, err
	}

	m.startSessionLocked([]WalletRecord{record}, record.ID, secret)
	logger.Info("vault imported with wallet ", record.PublicKey)
	return record.info(), nil
}

// Login decrypts the persisted vault and starts a session. The most recently
// used wallet becomes active.
func (m *Manager) Login(secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	wallets, err := m.loadVaultLocked(secret)
	if err != nil {
		return err
	}

	active := mostRecentlyUsed(wallets)
	m.startSessionLocked(wallets, active, secret)
	logger.Info("session started, ", len(wallets), " wallet(s) loaded")
	return nil
}

// Restore resumes a session persisted by a previous process using the
// session-scoped secret, provided the auto-logout window has not elapsed.
// Returns true when a session was restored.
func (m *Manager) Restore() bool {
	secret, ok, err := m.store.GetItem(storage.KeySessionSecret)
	if err != nil || !ok {
		return false
	}
	stamp, ok, err := m.store.GetItem(storage.KeySessionActivity)
	if err != nil || !ok {
		return false
	}
	last, err := time.Parse(time.RFC3339, stamp)
	if err != nil || m.cfg.Now().Sub(last) > m.cfg.AutoLogoutDuration {
		m.clearSessionKeys()
		return false
	}

	if err := m.Login(secret); err != nil {
		m.clearSessionKeys()
		return false
	}
	return true
}

// Logout discards the decrypted collection and session state. The persisted
// ciphertext is untouched.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endSessionLocked("logout")
}

// ResetVault irreversibly deletes the persisted ciphertext and all session
// state. Confirmation is the caller's responsibility.
func (m *Manager) ResetVault() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range []string{
		storage.KeyVault,
		storage.KeyInitialized,
		storage.KeyPendingMnemonic,
	} {
		if err := m.store.RemoveItem(key); err != nil {
			return fmt.Errorf("failed to reset vault: %w", err)
		}
	}
	m.endSessionLocked("reset")
	logger.Info("vault reset")
	return nil
}

// Wallets returns the secret-free view of the collection.
func (m *Manager) Wallets() ([]WalletInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return nil, ErrNoActiveSession
	}
	m.touchLocked()

	infos := make([]WalletInfo, 0, len(m.wallets))
	for _, record := range m.wallets {
		infos = append(infos, record.info())
	}
	return infos, nil
}

// ActiveWallet returns the currently selected wallet.
func (m *Manager) ActiveWallet() (WalletInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return WalletInfo{}, ErrNoActiveSession
	}
	m.touchLocked()

	for _, record := range m.wallets {
		if record.ID == m.activeID {
			return record.info(), nil
		}
	}
	return WalletInfo{}, ErrNoActiveSession
}

// AddWallet derives a new record from params (or fresh entropy when params
// is empty), rejects duplicates by public key, persists the grown collection
// and makes the new wallet active.
func (m *Manager) AddWallet(params ImportParams) (WalletInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return WalletInfo{}, ErrNoActiveSession
	}
	m.touchLocked()

	kp, mnemonic, err := deriveKeypair(params)
	if err != nil {
		return WalletInfo{}, err
	}

	pubkey := kp.PublicKey().String()
	for _, record := range m.wallets {
		if record.PublicKey == pubkey {
			return WalletInfo{}, ErrDuplicateWallet
		}
	}

	record := m.newRecordLocked(params.Name, kp, mnemonic)
	next := append(append([]WalletRecord(nil), m.wallets...), record)
	if err := m.persistLocked(next, m.secret); err != nil {
		return WalletInfo{}, err
	}

	m.wallets = next
	m.activeID = record.ID
	logger.Info("wallet added: ", record.PublicKey)
	return record.info(), nil
}

// RemoveWallet deletes a record. The collection never becomes empty; when
// the active wallet is removed, the first remaining one takes over.
func (m *Manager) RemoveWallet(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return ErrNoActiveSession
	}
	m.touchLocked()

	index := -1
	for i, record := range m.wallets {
		if record.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}
	if len(m.wallets) == 1 {
		return ErrCannotRemoveLastWallet
	}

	next := append([]WalletRecord(nil), m.wallets[:index]...)
	next = append(next, m.wallets[index+1:]...)
	if err := m.persistLocked(next, m.secret); err != nil {
		return err
	}

	m.wallets = next
	if m.activeID == id {
		m.activeID = next[0].ID
	}
	return nil
}

// SwitchWallet makes a record active and records the selection time. Unknown
// ids are a silent no-op.
func (m *Manager) SwitchWallet(id string) error {
	return m.updateRecord(id, func(record *WalletRecord) {
		record.LastUsed = m.cfg.Now()
		m.activeID = record.ID
	})
}

// ToggleFavorite flips a record's favorite flag.
func (m *Manager) ToggleFavorite(id string) error {
	return m.updateRecord(id, func(record *WalletRecord) {
		record.IsFavorite = !record.IsFavorite
	})
}

// RenameWallet sets a record's user label.
func (m *Manager) RenameWallet(id, name string) error {
	return m.updateRecord(id, func(record *WalletRecord) {
		record.Name = name
	})
}

func (m *Manager) updateRecord(id string, mutate func(*WalletRecord)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return ErrNoActiveSession
	}
	m.touchLocked()

	index := -1
	for i, record := range m.wallets {
		if record.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	next := append([]WalletRecord(nil), m.wallets...)
	savedActive := m.activeID
	mutate(&next[index])
	if err := m.persistLocked(next, m.secret); err != nil {
		m.activeID = savedActive
		return err
	}
	m.wallets = next
	return nil
}

// ChangeUnlockSecret re-encrypts the vault under a new secret. The old one
// must still authenticate against the persisted ciphertext.
func (m *Manager) ChangeUnlockSecret(oldSecret, newSecret string) error {
	if err := m.validateSecretPolicy(newSecret); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return ErrNoActiveSession
	}
	m.touchLocked()

	wallets, err := m.loadVaultLocked(oldSecret)
	if err != nil {
		return err
	}
	if err := m.persistLocked(wallets, newSecret); err != nil {
		return err
	}

	m.wallets = wallets
	m.secret = newSecret
	if err := m.store.SetItem(storage.KeySessionSecret, newSecret); err != nil {
		logger.Warn("failed to update session secret: ", err)
	}
	logger.Info("unlock secret changed")
	return nil
}

// Signer hands out the private key for one record. The caller must not
// retain it beyond the signing step.
func (m *Manager) Signer(id string) (solana.PrivateKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return nil, ErrNoActiveSession
	}
	m.touchLocked()

	if id == "" {
		id = m.activeID
	}
	for _, record := range m.wallets {
		if record.ID == id {
			kp, err := vault.KeypairFromSecretHex(record.SecretHex)
			if err != nil {
				return nil, err
			}
			return kp.PrivateKey, nil
		}
	}
	return nil, ErrNoActiveSession
}

// PendingMnemonic returns the freshly generated phrase awaiting its one-time
// display, if any.
func (m *Manager) PendingMnemonic() (string, bool) {
	phrase, ok, err := m.store.GetItem(storage.KeyPendingMnemonic)
	if err != nil {
		logger.Error("failed to read pending mnemonic: ", err)
		return "", false
	}
	return phrase, ok
}

// AcknowledgeMnemonic clears the pending phrase after the user confirms it
// is written down.
func (m *Manager) AcknowledgeMnemonic() error {
	return m.store.RemoveItem(storage.KeyPendingMnemonic)
}

// CheckExpiry forces one expiry evaluation. The background watcher calls
// this on its interval; tests call it directly.
func (m *Manager) CheckExpiry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.authenticated {
		return
	}
	if m.cfg.Now().Sub(m.lastActivity) > m.cfg.AutoLogoutDuration {
		logger.Info("session expired after inactivity")
		m.endSessionLocked("expiry")
	}
}

func (m *Manager) expiryLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.CheckExpiry()
		}
	}
}

func deriveKeypair(params ImportParams) (vault.Keypair, string, error) {
	switch {
	case params.Mnemonic != "":
		kp, err := vault.KeypairFromMnemonic(params.Mnemonic)
		return kp, params.Mnemonic, err
	case params.SecretKey != "":
		kp, err := vault.KeypairFromSecret(params.SecretKey)
		return kp, "", err
	default:
		mnemonic, kp, err := vault.GenerateWallet()
		return kp, mnemonic, err
	}
}

func (m *Manager) newRecordLocked(name string, kp vault.Keypair, mnemonic string) WalletRecord {
	if name == "" {
		name = defaultWalletName(len(m.wallets) + 1)
	}
	return WalletRecord{
		ID:        newRecordID(),
		Name:      name,
		PublicKey: kp.PublicKey().String(),
		SecretHex: kp.SecretHex(),
		Mnemonic:  mnemonic,
		LastUsed:  m.cfg.Now(),
	}
}

func (m *Manager) initializedLocked() bool {
	_, ok, err := m.store.GetItem(storage.KeyVault)
	return err == nil && ok
}

// persistLocked is the single write path for the vault: marshal, encrypt,
// store. The caller commits in-memory state only after it returns nil.
func (m *Manager) persistLocked(wallets []WalletRecord, secret string) error {
	plaintext, err := json.Marshal(vaultPayload{Wallets: wallets})
	if err != nil {
		return fmt.Errorf("failed to serialize wallets: %w", err)
	}
	blob, err := vault.Encrypt(plaintext, secret)
	if err != nil {
		return fmt.Errorf("failed to encrypt vault: %w", err)
	}
	if err := m.store.SetItem(storage.KeyVault, blob); err != nil {
		return fmt.Errorf("failed to persist vault: %w", err)
	}
	if err := m.store.SetItem(storage.KeyInitialized, "true"); err != nil {
		return fmt.Errorf("failed to persist vault flag: %w", err)
	}
	return nil
}

func (m *Manager) loadVaultLocked(secret string) ([]WalletRecord, error) {
	blob, ok, err := m.store.GetItem(storage.KeyVault)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	if !ok {
		return nil, ErrNoVaultFound
	}

	plaintext, err := vault.Decrypt(blob, secret)
	if err != nil {
		if errors.Is(err, vault.ErrDecryptionFailed) {
			return nil, ErrInvalidSecret
		}
		return nil, err
	}

	var payload vaultPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, ErrInvalidSecret
	}
	return payload.Wallets, nil
}

func (m *Manager) startSessionLocked(wallets []WalletRecord, activeID, secret string) {
	m.wallets = wallets
	m.activeID = activeID
	m.secret = secret
	m.authenticated = true
	m.touchLocked()

	// Persisting the unlock secret lets a session survive a process reload
	// without re-prompting. The slot is cleared on logout, expiry and reset.
	if err := m.store.SetItem(storage.KeySessionSecret, secret); err != nil {
		logger.Warn("failed to persist session secret: ", err)
	}
}

func (m *Manager) endSessionLocked(reason string) {
	m.wallets = nil
	m.activeID = ""
	m.secret = ""
	m.authenticated = false
	m.clearSessionKeys()
	logger.Debug("session ended: ", reason)
}

func (m *Manager) touchLocked() {
	m.lastActivity = m.cfg.Now()
	if err := m.store.SetItem(storage.KeySessionActivity, m.lastActivity.Format(time.RFC3339)); err != nil {
		logger.Warn("failed to persist session activity: ", err)
	}
}

func (m *Manager) clearSessionKeys() {
	for _, key := range []string{storage.KeySessionSecret, storage.KeySessionActivity} {
		if err := m.store.RemoveItem(key); err != nil {
			logger.Warn("failed to clear session key ", key, ": ", err)
		}
	}
}

func (m *Manager) validateNewSecret(secret, confirm string) error {
	if secret != confirm {
		return ErrSecretMismatch
	}
	return m.validateSecretPolicy(secret)
}

func (m *Manager) validateSecretPolicy(secret string) error {
	switch m.cfg.UnlockPolicy {
	case PolicyPIN:
		if len(secret) != m.cfg.PINLength {
			return ErrWeakSecret
		}
		for _, r := range secret {
			if !unicode.IsDigit(r) {
				return ErrWeakSecret
			}
		}
	default:
		if len(secret) < m.cfg.MinPasswordLength {
			return ErrWeakSecret
		}
	}
	return nil
}

func mostRecentlyUsed(wallets []WalletRecord) string {
	if len(wallets) == 0 {
		return ""
	}
	best := wallets[0]
	for _, record := range wallets[1:] {
		if record.LastUsed.After(best.LastUsed) {
			best = record
		}
	}
	return best.ID
}
