package api

import (
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
)

func (a *API) handleWallets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		wallets, err := a.Session.Wallets()
		if err != nil {
			writeError(w, err)
			return
		}
		active, err := a.Session.ActiveWallet()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"wallets":  wallets,
			"activeId": active.ID,
		})
	case http.MethodPost:
		var req addWalletRequest
		if !decodeBody(w, r, &req) {
			return
		}
		wallet, err := a.Session.AddWallet(session.ImportParams{
			Name:      req.Name,
			Mnemonic:  req.Mnemonic,
			SecretKey: req.SecretKey,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, wallet)
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}

// handleWalletByID covers /api/wallets/{id} and its sub-actions
// /switch, /favorite and /name.
func (a *API) handleWalletByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/wallets/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "Wallet id is required", http.StatusBadRequest)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		if err := a.Session.RemoveWallet(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case action == "switch" && r.Method == http.MethodPost:
		if err := a.Session.SwitchWallet(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case action == "favorite" && r.Method == http.MethodPost:
		if err := a.Session.ToggleFavorite(id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case action == "name" && r.Method == http.MethodPut:
		var req renameWalletRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := a.Session.RenameWallet(id, req.Name); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
	}
}

// handleBalance returns the active wallet's lamport balance, or any
// address's when ?address= is given.
func (a *API) handleBalance(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	address := r.URL.Query().Get("address")
	if address == "" {
		active, err := a.Session.ActiveWallet()
		if err != nil {
			writeError(w, err)
			return
		}
		address = active.PublicKey
	}

	lamports, err := a.Net.GetBalance(address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":  address,
		"lamports": lamports,
		"sol":      transaction.LamportsToSOL(lamports),
	})
}

func (a *API) handleTokens(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	active, err := a.Session.ActiveWallet()
	if err != nil {
		writeError(w, err)
		return
	}
	owner, err := solana.PublicKeyFromBase58(active.PublicKey)
	if err != nil {
		writeError(w, err)
		return
	}

	tokens, err := a.Net.ListTokens(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tokens": tokens})
}

func (a *API) handlePrice(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	price, err := a.Net.SolPrice()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"base":     "SOL",
		"currency": "USD",
		"price":    price,
	})
}
