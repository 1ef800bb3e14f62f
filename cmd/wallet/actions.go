package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/adelekeogunsona/solana-web-wallet/internal/session"
	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
	"github.com/atotto/clipboard"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

func splitWords(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

func (a *app) interactiveCreate(reader *bufio.Reader) error {
	secret, err := readSecretWithConfirm()
	if err != nil {
		return err
	}

	wallet, err := a.session.Initialize(secret, secret)
	if err != nil {
		return err
	}
	fmt.Println("Wallet created:", wallet.PublicKey)

	phrase, ok := a.session.PendingMnemonic()
	if ok {
		fmt.Println("\nWrite down your recovery phrase and keep it safe:")
		fmt.Println("\n  " + phrase + "\n")
		answer, err := readLine(reader, "Type 'yes' once you have written it down: ")
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "yes") {
			return a.session.AcknowledgeMnemonic()
		}
		fmt.Println("The phrase stays available until you confirm it is saved.")
	}
	return nil
}

func (a *app) interactiveImport(reader *bufio.Reader) error {
	material, err := readLine(reader, "Enter your recovery phrase or secret key: ")
	if err != nil {
		return err
	}
	secret, err := readSecretWithConfirm()
	if err != nil {
		return err
	}

	params := session.ImportParams{}
	if len(splitWords(material)) >= 12 {
		params.Mnemonic = material
	} else {
		params.SecretKey = material
	}

	wallet, err := a.session.ImportFirst(params, secret, secret)
	if err != nil {
		return err
	}
	fmt.Println("Wallet imported:", wallet.PublicKey)
	return nil
}

func (a *app) interactiveLogin() error {
	if a.session.IsAuthenticated() {
		fmt.Println("Already logged in.")
		return nil
	}
	secret, err := readSecret("Enter your unlock secret: ")
	if err != nil {
		return err
	}
	if err := a.session.Login(secret); err != nil {
		return err
	}
	fmt.Println("Login successful.")
	return nil
}

func (a *app) interactiveSend(reader *bufio.Reader) error {
	if err := a.ensureSession(); err != nil {
		return err
	}

	destination, err := readLine(reader, "Recipient address: ")
	if err != nil {
		return err
	}
	rawAmount, err := readLine(reader, "Amount (SOL): ")
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return fmt.Errorf("invalid amount: %v", err)
	}
	return a.sendSOL(destination, amount)
}

// sendSOL prepares the transfer, shows the estimate, and submits after an
// explicit yes.
func (a *app) sendSOL(destination string, amount decimal.Decimal) error {
	active, err := a.session.ActiveWallet()
	if err != nil {
		return err
	}
	sender, err := solana.PublicKeyFromBase58(active.PublicKey)
	if err != nil {
		return err
	}

	transfer, err := a.builder.PrepareSOLTransfer(sender, destination, amount)
	if err != nil {
		return err
	}

	fmt.Printf("\nSending %s SOL from %s\n", amount.String(), active.PublicKey)
	fmt.Printf("Estimated fee: %s SOL (includes safety margin)\n",
		transaction.LamportsToSOL(transfer.Estimate.Total).String())
	answer, err := readLine(bufio.NewReader(os.Stdin), "Proceed? (yes/no): ")
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Println("Transfer aborted.")
		return nil
	}

	signer, err := a.session.Signer(active.ID)
	if err != nil {
		return err
	}
	result, err := a.builder.Send(transfer, signer)
	if err != nil {
		return err
	}

	fmt.Println("Transaction submitted:", result.Signature)
	if result.ExplorerURL != "" {
		fmt.Println("Explorer:", result.ExplorerURL)
	}
	if result.ConfirmationWarning != "" {
		fmt.Println("Warning:", result.ConfirmationWarning)
	}
	return nil
}

func (a *app) printBalance() error {
	if err := a.ensureSession(); err != nil {
		return err
	}
	active, err := a.session.ActiveWallet()
	if err != nil {
		return err
	}

	lamports, err := a.net.GetBalance(active.PublicKey)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s SOL\n", active.PublicKey, transaction.LamportsToSOL(lamports).String())

	if price, err := a.net.SolPrice(); err == nil {
		usd := transaction.LamportsToSOL(lamports).Mul(price)
		fmt.Printf("≈ %s USD\n", usd.StringFixed(2))
	}
	return nil
}

func (a *app) printReceiveAddress(copyToClipboard bool) error {
	active, err := a.session.ActiveWallet()
	if err != nil {
		return err
	}
	fmt.Println("Receive address:", active.PublicKey)

	if copyToClipboard {
		if err := clipboard.WriteAll(active.PublicKey); err != nil {
			return fmt.Errorf("failed to copy address: %w", err)
		}
		fmt.Println("Address copied to clipboard.")
	}
	return nil
}

func (a *app) printTokens() error {
	active, err := a.session.ActiveWallet()
	if err != nil {
		return err
	}
	owner, err := solana.PublicKeyFromBase58(active.PublicKey)
	if err != nil {
		return err
	}

	tokens, err := a.net.ListTokens(owner)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		fmt.Println("No token holdings.")
		return nil
	}
	for _, t := range tokens {
		fmt.Printf("%-10s %s (%s)\n", t.Symbol, transaction.FromBaseUnits(t.Amount, t.Decimals).String(), t.Name)
	}
	return nil
}

func (a *app) printEndpoints() error {
	for _, ep := range a.net.Health().Snapshot() {
		state := "unhealthy"
		latency := "-"
		if ep.Healthy {
			state = "healthy"
			latency = ep.Latency.String()
		}
		fmt.Printf("%-50s %-10s %s\n", ep.Endpoint, state, latency)
	}
	return nil
}

func (a *app) interactiveReset(reader *bufio.Reader) error {
	answer, err := readLine(reader, "Type DELETE to confirm the vault reset: ")
	if err != nil {
		return err
	}
	if answer != "DELETE" {
		fmt.Println("Reset aborted.")
		return nil
	}
	if err := a.session.ResetVault(); err != nil {
		return err
	}
	fmt.Println("Vault deleted.")
	return nil
}
