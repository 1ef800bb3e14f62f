package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/config"
	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/adelekeogunsona/solana-web-wallet/internal/rpc"
	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/adelekeogunsona/solana-web-wallet/internal/vault"
	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
	"github.com/spf13/viper"
)

// API exposes the wallet core to the browser front-end.
type API struct {
	Session  *session.Manager
	Net      *rpc.Manager
	Builder  *transaction.Builder
	Settings *config.SettingsManager

	jwtKey []byte
	server *http.Server
}

func NewAPI(sess *session.Manager, net *rpc.Manager, builder *transaction.Builder, settings *config.SettingsManager, store storage.Store) (*API, error) {
	jwtKey, err := ensureJWTKey(store)
	if err != nil {
		return nil, err
	}
	return &API{
		Session:  sess,
		Net:      net,
		Builder:  builder,
		Settings: settings,
		jwtKey:   jwtKey,
	}, nil
}

// Routes builds the full handler tree. Session-scoped routes sit behind the
// JWT check; lifecycle routes do not, since their guards are the vault
// secret itself.
func (a *API) Routes() http.Handler {
	mux := http.NewServeMux()

	open := func(h http.HandlerFunc) http.HandlerFunc {
		return ApplyMiddleware(h, a.ErrorMiddleware, a.LoggingMiddleware, a.CORSMiddleware)
	}
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return ApplyMiddleware(h, a.JWTMiddleware, a.ErrorMiddleware, a.LoggingMiddleware, a.CORSMiddleware)
	}

	mux.HandleFunc("/api/status", open(a.handleStatus))
	mux.HandleFunc("/api/initialize", open(a.handleInitialize))
	mux.HandleFunc("/api/import", open(a.handleImport))
	mux.HandleFunc("/api/login", open(a.handleLogin))
	mux.HandleFunc("/api/logout", protected(a.handleLogout))
	mux.HandleFunc("/api/reset", protected(a.handleReset))
	mux.HandleFunc("/api/secret", protected(a.handleChangeSecret))
	mux.HandleFunc("/api/mnemonic", protected(a.handleMnemonic))

	mux.HandleFunc("/api/wallets", protected(a.handleWallets))
	mux.HandleFunc("/api/wallets/", protected(a.handleWalletByID))
	mux.HandleFunc("/api/balance", protected(a.handleBalance))
	mux.HandleFunc("/api/tokens", protected(a.handleTokens))
	mux.HandleFunc("/api/price", protected(a.handlePrice))

	mux.HandleFunc("/api/transfer/estimate", protected(a.handleTransferEstimate))
	mux.HandleFunc("/api/transfer/send", protected(a.handleTransferSend))

	mux.HandleFunc("/api/settings", protected(a.handleSettings))
	mux.HandleFunc("/api/settings/endpoints", protected(a.handleEndpoints))

	return mux
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *API) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", viper.GetInt("api_port"))
	a.server = &http.Server{
		Addr:         addr,
		Handler:      a.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on ", addr)
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response: ", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidSecret):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrNoActiveSession):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrNoVaultFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrAlreadyInitialized),
		errors.Is(err, session.ErrDuplicateWallet),
		errors.Is(err, session.ErrCannotRemoveLastWallet):
		status = http.StatusConflict
	case errors.Is(err, session.ErrSecretMismatch),
		errors.Is(err, session.ErrWeakSecret),
		errors.Is(err, vault.ErrInvalidMnemonic),
		errors.Is(err, vault.ErrInvalidKeyFormat),
		errors.Is(err, transaction.ErrInvalidAddress),
		errors.Is(err, transaction.ErrInsufficientBalance),
		errors.Is(err, transaction.ErrAmountOutOfRange),
		errors.Is(err, config.ErrInvalidEndpoint),
		errors.Is(err, config.ErrDuplicateEndpoint),
		errors.Is(err, config.ErrLastEndpoint):
		status = http.StatusBadRequest
	case errors.Is(err, rpc.ErrQueueFull):
		status = http.StatusTooManyRequests
	case errors.Is(err, rpc.ErrAllEndpointsFailed):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Invalid request method", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
