package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/config"
	"github.com/adelekeogunsona/solana-web-wallet/internal/rpc"
	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*API, http.Handler) {
	t.Helper()

	store := storage.NewMemoryStore()
	sess := session.NewManager(store, session.Config{
		UnlockPolicy:  session.PolicyPIN,
		PINLength:     6,
		CheckInterval: time.Hour,
	})
	t.Cleanup(sess.Close)

	net := rpc.NewManager(rpc.Config{
		HealthCheckInterval: time.Hour,
		SlotPollInterval:    time.Hour,
	})
	t.Cleanup(net.Close)

	settings, err := config.NewSettingsManager(store, config.Settings{
		RPCEndpoints:        []string{"https://api.mainnet-beta.solana.com"},
		BalancePollInterval: 10 * time.Second,
		AutoLogoutDuration:  15 * time.Minute,
	})
	require.NoError(t, err)

	a, err := NewAPI(sess, net, transaction.NewBuilder(net, ""), settings, store)
	require.NoError(t, err)
	return a, a.Routes()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestStatusEndpoint(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.False(t, status.Initialized)
	assert.False(t, status.Authenticated)
}

func TestInitializeIssuesToken(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/initialize", "", initializeRequest{
		Secret:  "123456",
		Confirm: "123456",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decodeToken(t, rec)

	// the token opens the protected surface
	rec = doJSON(t, handler, http.MethodGet, "/api/wallets", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Wallets  []session.WalletInfo `json:"wallets"`
		ActiveID string               `json:"activeId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Wallets, 1)
	assert.Equal(t, payload.Wallets[0].ID, payload.ActiveID)
}

func TestInitializeRejectsMismatch(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/initialize", "", initializeRequest{
		Secret:  "123456",
		Confirm: "654321",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, session.ErrSecretMismatch.Error(), body.Error)
}

func TestLoginFlow(t *testing.T) {
	a, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/login", "", loginRequest{Secret: "123456"})
	assert.Equal(t, http.StatusNotFound, rec.Code, "login before initialize")

	rec = doJSON(t, handler, http.MethodPost, "/api/initialize", "", initializeRequest{
		Secret: "123456", Confirm: "123456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeToken(t, rec)

	rec = doJSON(t, handler, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, a.Session.IsAuthenticated())

	rec = doJSON(t, handler, http.MethodPost, "/api/login", "", loginRequest{Secret: "000000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/login", "", loginRequest{Secret: "123456"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, a.Session.IsAuthenticated())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/wallets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/wallets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWalletCRUDOverHTTP(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/initialize", "", initializeRequest{
		Secret: "123456", Confirm: "123456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeToken(t, rec)

	rec = doJSON(t, handler, http.MethodPost, "/api/wallets", token, addWalletRequest{Name: "savings"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added session.WalletInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &added))
	assert.Equal(t, "savings", added.Name)

	rec = doJSON(t, handler, http.MethodPut, "/api/wallets/"+added.ID+"/name", token, renameWalletRequest{Name: "cold"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/wallets/"+added.ID+"/favorite", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/wallets/"+added.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// removing the last remaining wallet is refused
	rec = doJSON(t, handler, http.MethodGet, "/api/wallets", token, nil)
	var payload struct {
		Wallets []session.WalletInfo `json:"wallets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Wallets, 1)
	rec = doJSON(t, handler, http.MethodDelete, "/api/wallets/"+payload.Wallets[0].ID, token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSettingsOverHTTP(t *testing.T) {
	_, handler := newTestAPI(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/initialize", "", initializeRequest{
		Secret: "123456", Confirm: "123456",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeToken(t, rec)

	rec = doJSON(t, handler, http.MethodPut, "/api/settings", token, settingsRequest{Theme: "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	var settings config.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "dark", settings.Theme)

	rec = doJSON(t, handler, http.MethodDelete, "/api/settings/endpoints", token, endpointRequest{
		Endpoint: "https://api.mainnet-beta.solana.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "cannot remove the last endpoint")
}
