package api

import (
	"net/http"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/spf13/viper"
)

func (a *API) tokenLifetime() time.Duration {
	lifetime := viper.GetDuration("auto_logout_duration")
	if lifetime <= 0 {
		lifetime = 15 * time.Minute
	}
	return lifetime
}

func (a *API) respondWithSession(w http.ResponseWriter, wallet *session.WalletInfo) {
	token, err := a.issueToken(a.tokenLifetime())
	if err != nil {
		writeError(w, err)
		return
	}
	payload := map[string]interface{}{"token": token}
	if wallet != nil {
		payload["wallet"] = wallet
	}
	writeJSON(w, http.StatusOK, payload)
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Initialized:   a.Session.IsInitialized(),
		Authenticated: a.Session.IsAuthenticated(),
		CurrentSlot:   a.Net.Health().CurrentSlot(),
	})
}

func (a *API) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req initializeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := a.Session.Initialize(req.Secret, req.Confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, &wallet)
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}

	wallet, err := a.Session.ImportFirst(session.ImportParams{
		Name:      req.Name,
		Mnemonic:  req.Mnemonic,
		SecretKey: req.SecretKey,
	}, req.Secret, req.Confirm)
	if err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, &wallet)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := a.Session.Login(req.Secret); err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, nil)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	a.Session.Logout()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := a.Session.ResetVault(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) handleChangeSecret(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPut) {
		return
	}
	var req changeSecretRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := a.Session.ChangeUnlockSecret(req.OldSecret, req.NewSecret); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleMnemonic serves the freshly generated phrase once and clears it on
// acknowledgement.
func (a *API) handleMnemonic(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		phrase, ok := a.Session.PendingMnemonic()
		if !ok {
			http.Error(w, "No pending recovery phrase", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"mnemonic": phrase})
	case http.MethodDelete:
		if err := a.Session.AcknowledgeMnemonic(); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}
