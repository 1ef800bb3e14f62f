package config

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
)

var (
	ErrLastEndpoint      = errors.New("at least one RPC endpoint is required")
	ErrDuplicateEndpoint = errors.New("endpoint already configured")
	ErrInvalidEndpoint   = errors.New("invalid endpoint URL")
)

// Settings is the user-adjustable configuration surface, persisted as one JSON
// blob in the wallet store so it survives reloads the same way the encrypted
// vault does.
type Settings struct {
	RPCEndpoints        []string      `json:"rpcEndpoints"`
	BalancePollInterval time.Duration `json:"balancePollInterval"`
	AutoLogoutDuration  time.Duration `json:"autoLogoutDuration"`
	Theme               string        `json:"theme"`
}

// SettingsManager owns the persisted settings blob. Mutations write through
// before the in-memory copy is updated.
type SettingsManager struct {
	mu       sync.Mutex
	store    storage.Store
	settings Settings
	onChange func(Settings)
}

// NewSettingsManager loads persisted settings, falling back to defaults for
// anything absent. defaults.RPCEndpoints must be non-empty.
func NewSettingsManager(store storage.Store, defaults Settings) (*SettingsManager, error) {
	if len(defaults.RPCEndpoints) == 0 {
		return nil, ErrLastEndpoint
	}

	m := &SettingsManager{store: store, settings: defaults}

	raw, ok, err := store.GetItem(storage.KeySettings)
	if err != nil {
		return nil, err
	}
	if ok {
		var saved Settings
		if err := json.Unmarshal([]byte(raw), &saved); err == nil && len(saved.RPCEndpoints) > 0 {
			m.settings = saved
		}
	}
	return m, nil
}

// OnChange registers a callback invoked (outside the lock) after every
// persisted mutation. The scheduler uses it to reconfigure endpoints.
func (m *SettingsManager) OnChange(fn func(Settings)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// Current returns a copy of the active settings.
func (m *SettingsManager) Current() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *SettingsManager) snapshot() Settings {
	out := m.settings
	out.RPCEndpoints = append([]string(nil), m.settings.RPCEndpoints...)
	return out
}

// AddRPCEndpoint validates the URL format and appends it. Duplicates are
// rejected.
func (m *SettingsManager) AddRPCEndpoint(endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidEndpoint
	}

	m.mu.Lock()
	for _, existing := range m.settings.RPCEndpoints {
		if existing == endpoint {
			m.mu.Unlock()
			return ErrDuplicateEndpoint
		}
	}
	next := m.snapshot()
	next.RPCEndpoints = append(next.RPCEndpoints, endpoint)
	return m.commit(next)
}

// RemoveRPCEndpoint drops an endpoint, refusing to remove the last one.
func (m *SettingsManager) RemoveRPCEndpoint(endpoint string) error {
	m.mu.Lock()
	if len(m.settings.RPCEndpoints) <= 1 {
		m.mu.Unlock()
		return ErrLastEndpoint
	}
	next := m.snapshot()
	kept := next.RPCEndpoints[:0]
	for _, existing := range next.RPCEndpoints {
		if existing != endpoint {
			kept = append(kept, existing)
		}
	}
	if len(kept) == 0 {
		m.mu.Unlock()
		return ErrLastEndpoint
	}
	next.RPCEndpoints = kept
	return m.commit(next)
}

func (m *SettingsManager) SetBalancePollInterval(interval time.Duration) error {
	m.mu.Lock()
	next := m.snapshot()
	next.BalancePollInterval = interval
	return m.commit(next)
}

func (m *SettingsManager) SetAutoLogoutDuration(duration time.Duration) error {
	m.mu.Lock()
	next := m.snapshot()
	next.AutoLogoutDuration = duration
	return m.commit(next)
}

func (m *SettingsManager) SetTheme(theme string) error {
	m.mu.Lock()
	next := m.snapshot()
	next.Theme = theme
	return m.commit(next)
}

// commit persists next and installs it as current. Called with the lock held;
// releases it before firing the change callback.
func (m *SettingsManager) commit(next Settings) error {
	raw, err := json.Marshal(next)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.store.SetItem(storage.KeySettings, string(raw)); err != nil {
		m.mu.Unlock()
		return err
	}
	m.settings = next
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
	return nil
}
