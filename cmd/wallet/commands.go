package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// withApp opens the wallet core for one CLI invocation and closes it after.
func withApp(run func(app *app, args []string) error) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		app, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		if err := run(app, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func printJSON(payload interface{}) error {
	return json.NewEncoder(os.Stdout).Encode(payload)
}

// pendingPhrase fetches the recovery phrase parked for confirmation. A vault
// created without one (or already acknowledged) is an error here, never a
// blank prompt.
func pendingPhrase(app *app) (string, error) {
	phrase, ok := app.session.PendingMnemonic()
	if !ok {
		return "", errors.New("no recovery phrase pending confirmation")
	}
	return phrase, nil
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new wallet vault",
	Long:  `Create a new wallet vault with a freshly generated recovery phrase, protected by an unlock secret.`,
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		secret, err := readSecretWithConfirm()
		if err != nil {
			return err
		}

		wallet, err := app.session.Initialize(secret, secret)
		if err != nil {
			return err
		}

		phrase, err := pendingPhrase(app)
		if err != nil {
			return err
		}
		fmt.Println("\nWrite down your recovery phrase and keep it safe:")
		fmt.Println("\n  " + phrase + "\n")
		if err := app.session.AcknowledgeMnemonic(); err != nil {
			return err
		}

		return printJSON(struct {
			PublicKey string `json:"publicKey"`
			Message   string `json:"message"`
		}{wallet.PublicKey, "Wallet created successfully"})
	}),
}

var importCmd = &cobra.Command{
	Use:   "import [mnemonic-or-secret-key]",
	Short: "Import an existing wallet",
	Long: `Import an existing wallet from a 12 or 24 word recovery phrase, or from
a raw secret key in base58 or hex.`,
	Args: cobra.ExactArgs(1),
	Run: withApp(func(app *app, args []string) error {
		secret, err := readSecretWithConfirm()
		if err != nil {
			return err
		}

		params := session.ImportParams{}
		if len(splitWords(args[0])) >= 12 {
			params.Mnemonic = args[0]
		} else {
			params.SecretKey = args[0]
		}

		wallet, err := app.session.ImportFirst(params, secret, secret)
		if err != nil {
			return err
		}

		return printJSON(struct {
			PublicKey string `json:"publicKey"`
			Message   string `json:"message"`
		}{wallet.PublicKey, "Wallet imported successfully"})
	}),
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the active wallet's balance",
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		if err := app.ensureSession(); err != nil {
			return err
		}
		return app.printBalance()
	}),
}

var sendCmd = &cobra.Command{
	Use:   "send [recipient] [amount]",
	Short: "Send SOL to an address",
	Long:  `Send the given amount of SOL to a recipient address. The fee estimate is shown before anything is submitted.`,
	Args:  cobra.ExactArgs(2),
	Run: withApp(func(app *app, args []string) error {
		if err := app.ensureSession(); err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid amount: %v", err)
		}
		return app.sendSOL(args[0], amount)
	}),
}

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Show the active wallet's receive address",
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		if err := app.ensureSession(); err != nil {
			return err
		}
		return app.printReceiveAddress(receiveCopyFlag)
	}),
}

var receiveCopyFlag bool

func init() {
	receiveCmd.Flags().BoolVar(&receiveCopyFlag, "copy", false, "copy the address to the clipboard")
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List the active wallet's token holdings",
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		if err := app.ensureSession(); err != nil {
			return err
		}
		return app.printTokens()
	}),
}

var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "Show RPC endpoint health",
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		app.net.Health().CheckNow()
		return app.printEndpoints()
	}),
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the wallet vault",
	Long:  `Irreversibly delete the encrypted vault and all session state. Funds are only recoverable with the backed-up phrase or secret key.`,
	Args:  cobra.NoArgs,
	Run: withApp(func(app *app, args []string) error {
		fmt.Print("Type DELETE to confirm the vault reset: ")
		var answer string
		fmt.Scanln(&answer)
		if answer != "DELETE" {
			return fmt.Errorf("reset aborted")
		}
		if err := app.session.ResetVault(); err != nil {
			return err
		}
		fmt.Println("Vault deleted.")
		return nil
	}),
}
