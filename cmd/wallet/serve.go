package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adelekeogunsona/solana-web-wallet/internal/api"
	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wallet HTTP API",
	Long:  `Run the HTTP API consumed by the browser front-end until interrupted. The session expiry watcher and endpoint health tracker run alongside it.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		// pick up a still-valid session from a previous run
		if app.session.Restore() {
			logger.Info("previous session restored")
		}

		server, err := api.NewAPI(app.session, app.net, app.builder, app.settings, app.store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := server.Serve(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		logger.Info("server stopped")
	},
}
