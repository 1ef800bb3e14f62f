package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/adelekeogunsona/solana-web-wallet/internal/config"
	"github.com/adelekeogunsona/solana-web-wallet/internal/rpc"
	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/internal/storage"
	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// app wires the wallet core together: the persistent store, the session
// manager, the request scheduler and the transfer builder.
type app struct {
	store    *storage.SQLiteStore
	session  *session.Manager
	net      *rpc.Manager
	settings *config.SettingsManager
	builder  *transaction.Builder
}

func openApp() (*app, error) {
	store, err := storage.OpenSQLiteStore(viper.GetString("wallet_db_path"))
	if err != nil {
		return nil, fmt.Errorf("failed to open wallet store: %w", err)
	}

	settings, err := config.NewSettingsManager(store, config.Settings{
		RPCEndpoints:        viper.GetStringSlice("rpc_endpoints"),
		BalancePollInterval: viper.GetDuration("balance_poll_interval"),
		AutoLogoutDuration:  viper.GetDuration("auto_logout_duration"),
		Theme:               viper.GetString("theme"),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	rpcCfg := rpc.ConfigFromViper()
	rpcCfg.Endpoints = settings.Current().RPCEndpoints
	net := rpc.NewManager(rpcCfg)
	settings.OnChange(func(s config.Settings) {
		net.Reconfigure(s.RPCEndpoints)
	})

	sess := session.NewManager(store, session.Config{
		UnlockPolicy:       viper.GetString("unlock_policy"),
		PINLength:          viper.GetInt("pin_length"),
		MinPasswordLength:  viper.GetInt("min_password_length"),
		AutoLogoutDuration: settings.Current().AutoLogoutDuration,
		CheckInterval:      viper.GetDuration("session_check_interval"),
	})

	return &app{
		store:    store,
		session:  sess,
		net:      net,
		settings: settings,
		builder:  transaction.NewBuilder(net, viper.GetString("explorer_url")),
	}, nil
}

func (a *app) Close() {
	a.session.Close()
	a.net.Close()
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing wallet store: %v\n", err)
	}
}

// ensureSession restores a persisted session or prompts for the secret.
func (a *app) ensureSession() error {
	if a.session.IsAuthenticated() {
		return nil
	}
	if a.session.Restore() {
		return nil
	}
	if !a.session.IsInitialized() {
		return fmt.Errorf("no wallet found, run create or import first")
	}

	secret, err := readSecret("Enter your unlock secret: ")
	if err != nil {
		return err
	}
	return a.session.Login(secret)
}

func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func readSecretWithConfirm() (string, error) {
	secret, err := readSecret("Choose an unlock secret: ")
	if err != nil {
		return "", err
	}
	confirm, err := readSecret("Confirm the unlock secret: ")
	if err != nil {
		return "", err
	}
	if secret != confirm {
		return "", session.ErrSecretMismatch
	}
	return secret, nil
}

func readLine(reader *bufio.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
