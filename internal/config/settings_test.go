package config

import (
	"testing"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings() Settings {
	return Settings{
		RPCEndpoints:        []string{"https://api.mainnet-beta.solana.com"},
		BalancePollInterval: 10 * time.Second,
		AutoLogoutDuration:  15 * time.Minute,
		Theme:               "dark",
	}
}

func TestSettingsManagerRequiresEndpoint(t *testing.T) {
	_, err := NewSettingsManager(storage.NewMemoryStore(), Settings{})
	assert.ErrorIs(t, err, ErrLastEndpoint)
}

func TestEndpointMutations(t *testing.T) {
	store := storage.NewMemoryStore()
	m, err := NewSettingsManager(store, defaultSettings())
	require.NoError(t, err)

	assert.ErrorIs(t, m.AddRPCEndpoint("not a url"), ErrInvalidEndpoint)
	assert.ErrorIs(t, m.AddRPCEndpoint("ftp://example.com"), ErrInvalidEndpoint)
	assert.ErrorIs(t, m.AddRPCEndpoint("https://api.mainnet-beta.solana.com"), ErrDuplicateEndpoint)

	require.NoError(t, m.AddRPCEndpoint("https://rpc.backup.example"))
	assert.Len(t, m.Current().RPCEndpoints, 2)

	require.NoError(t, m.RemoveRPCEndpoint("https://api.mainnet-beta.solana.com"))
	assert.Equal(t, []string{"https://rpc.backup.example"}, m.Current().RPCEndpoints)

	assert.ErrorIs(t, m.RemoveRPCEndpoint("https://rpc.backup.example"), ErrLastEndpoint)
}

func TestSettingsPersistAcrossManagers(t *testing.T) {
	store := storage.NewMemoryStore()
	m, err := NewSettingsManager(store, defaultSettings())
	require.NoError(t, err)

	require.NoError(t, m.AddRPCEndpoint("https://rpc.backup.example"))
	require.NoError(t, m.SetTheme("light"))
	require.NoError(t, m.SetBalancePollInterval(30*time.Second))
	require.NoError(t, m.SetAutoLogoutDuration(5*time.Minute))

	reloaded, err := NewSettingsManager(store, defaultSettings())
	require.NoError(t, err)
	got := reloaded.Current()
	assert.Len(t, got.RPCEndpoints, 2)
	assert.Equal(t, "light", got.Theme)
	assert.Equal(t, 30*time.Second, got.BalancePollInterval)
	assert.Equal(t, 5*time.Minute, got.AutoLogoutDuration)
}

func TestOnChangeFiresAfterCommit(t *testing.T) {
	store := storage.NewMemoryStore()
	m, err := NewSettingsManager(store, defaultSettings())
	require.NoError(t, err)

	var seen []Settings
	m.OnChange(func(s Settings) { seen = append(seen, s) })

	require.NoError(t, m.AddRPCEndpoint("https://rpc.backup.example"))
	require.Len(t, seen, 1)
	assert.Len(t, seen[0].RPCEndpoints, 2)

	// rejected mutations do not fire the hook
	assert.Error(t, m.AddRPCEndpoint("https://rpc.backup.example"))
	assert.Len(t, seen, 1)
}
