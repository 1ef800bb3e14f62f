package transaction

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/adelekeogunsona/solana-web-wallet/internal/rpc"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAddress is returned when the destination is not a
	// well-formed public key.
	ErrInvalidAddress = errors.New("invalid destination address")

	// ErrInsufficientBalance is returned when the amount plus the estimated
	// total cost exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// confirmTimeout bounds how long a submitted transfer is polled before its
// confirmation is downgraded to a warning.
const confirmTimeout = 60 * time.Second

// Estimate is the cost breakdown shown to the user before confirmation. Fee
// carries the safety margin; Rent is one-time account creation cost added
// verbatim.
type Estimate struct {
	BaseFee uint64 `json:"baseFee"`
	Fee     uint64 `json:"fee"`
	Rent    uint64 `json:"rent"`
	Total   uint64 `json:"total"`
}

// Transfer is a prepared, unsigned transfer awaiting explicit confirmation.
type Transfer struct {
	tx    *solana.Transaction
	payer solana.PublicKey

	Amount   uint64   `json:"amount"`
	Estimate Estimate `json:"estimate"`
}

// Result reports a submitted transfer. ConfirmationWarning is set when the
// submission went out but confirmation could not be observed; the transfer
// may still have succeeded on-chain.
type Result struct {
	Signature           string `json:"signature"`
	ExplorerURL         string `json:"explorerUrl,omitempty"`
	Confirmed           bool   `json:"confirmed"`
	ConfirmationWarning string `json:"confirmationWarning,omitempty"`
}

// Builder composes transfers and drives them through the request scheduler.
type Builder struct {
	net         *rpc.Manager
	explorerURL string
}

func NewBuilder(net *rpc.Manager, explorerURL string) *Builder {
	return &Builder{net: net, explorerURL: explorerURL}
}

// ValidateAddress checks that the destination parses as a base58 public key.
func ValidateAddress(address string) (solana.PublicKey, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidAddress
	}
	return pubkey, nil
}

// PrepareSOLTransfer validates, composes and prices a native transfer, and
// checks it against the sender's balance.
func (b *Builder) PrepareSOLTransfer(sender solana.PublicKey, destination string, amount decimal.Decimal) (*Transfer, error) {
	recipient, err := ValidateAddress(destination)
	if err != nil {
		return nil, err
	}
	lamports, err := SOLToLamports(amount)
	if err != nil {
		return nil, err
	}

	instructions := []solana.Instruction{
		system.NewTransferInstruction(lamports, sender, recipient).Build(),
	}

	tx, estimate, err := b.assemble(instructions, sender, 0)
	if err != nil {
		return nil, err
	}

	balance, err := b.net.GetBalance(sender.String())
	if err != nil {
		return nil, err
	}
	if lamports+estimate.Total > balance {
		return nil, ErrInsufficientBalance
	}

	return &Transfer{tx: tx, payer: sender, Amount: lamports, Estimate: estimate}, nil
}

// PrepareTokenTransfer composes a fungible-token transfer. When the
// destination's associated token account does not exist yet, its creation is
// prepended and its rent cost added to the estimate verbatim.
func (b *Builder) PrepareTokenTransfer(sender solana.PublicKey, destination, mintAddress string, amount decimal.Decimal, decimals int) (*Transfer, error) {
	recipient, err := ValidateAddress(destination)
	if err != nil {
		return nil, err
	}
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint: %w", err)
	}
	units, err := ToBaseUnits(amount, decimals)
	if err != nil {
		return nil, err
	}

	sourceATA, _, err := solana.FindAssociatedTokenAddress(sender, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive source token account: %w", err)
	}
	destATA, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	var instructions []solana.Instruction
	var rent uint64

	exists, err := b.net.AccountExists(destATA)
	if err != nil {
		return nil, err
	}
	if !exists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(sender, recipient, mint).Build(),
		)
		rent = b.tokenAccountRent()
	}
	instructions = append(instructions,
		token.NewTransferInstruction(units, sourceATA, destATA, sender, nil).Build(),
	)

	tx, estimate, err := b.assemble(instructions, sender, rent)
	if err != nil {
		return nil, err
	}

	if err := b.checkTokenBalance(sender, mintAddress, units); err != nil {
		return nil, err
	}
	balance, err := b.net.GetBalance(sender.String())
	if err != nil {
		return nil, err
	}
	if estimate.Total > balance {
		return nil, ErrInsufficientBalance
	}

	return &Transfer{tx: tx, payer: sender, Amount: units, Estimate: estimate}, nil
}

// Send signs a prepared transfer, submits it, and awaits confirmation. A
// confirmation failure is reported on the Result as a warning, not an error:
// the submission may still have landed.
func (b *Builder) Send(transfer *Transfer, signer solana.PrivateKey) (*Result, error) {
	_, err := transfer.tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(transfer.payer) {
			return &signer
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := b.net.SendTransaction(transfer.tx)
	if err != nil {
		return nil, err
	}
	logger.Info("transaction submitted: ", sig.String())

	result := &Result{Signature: sig.String(), Confirmed: true}
	if b.explorerURL != "" {
		result.ExplorerURL = fmt.Sprintf("%s/%s", b.explorerURL, sig.String())
	}

	if err := b.net.ConfirmTransaction(sig, confirmTimeout); err != nil {
		logger.Warn("confirmation not observed for ", sig.String(), ": ", err)
		result.Confirmed = false
		result.ConfirmationWarning = fmt.Sprintf("submission succeeded but confirmation was not observed: %v", err)
	}
	return result, nil
}

// assemble builds the transaction against a fresh blockhash and prices it.
// The network fee estimate carries the safety margin; rent is added as-is.
func (b *Builder) assemble(instructions []solana.Instruction, payer solana.PublicKey, rent uint64) (*solana.Transaction, Estimate, error) {
	blockhash, err := b.net.GetLatestBlockhash()
	if err != nil {
		return nil, Estimate{}, err
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, Estimate{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	baseFee := b.estimateBaseFee(tx)
	estimate := Estimate{
		BaseFee: baseFee,
		Fee:     baseFee * FeeSafetyMargin,
		Rent:    rent,
	}
	estimate.Total = estimate.Fee + estimate.Rent
	return tx, estimate, nil
}

func (b *Builder) estimateBaseFee(tx *solana.Transaction) uint64 {
	message, err := tx.Message.MarshalBinary()
	if err != nil {
		logger.Warn("failed to serialize message for fee estimate: ", err)
		return LamportsPerSignature
	}

	fee, ok, err := b.net.GetFeeForMessage(base64.StdEncoding.EncodeToString(message))
	if err != nil || !ok {
		if err != nil {
			logger.Warn("fee query failed, using flat fallback: ", err)
		}
		return LamportsPerSignature
	}
	return fee
}

func (b *Builder) tokenAccountRent() uint64 {
	rent, err := b.net.GetMinimumBalanceForRentExemption(tokenAccountDataSize)
	if err != nil {
		logger.Warn("rent query failed, using fallback: ", err)
		return TokenAccountRentFallback
	}
	return rent
}

func (b *Builder) checkTokenBalance(sender solana.PublicKey, mint string, units uint64) error {
	accounts, err := b.net.GetTokenAccounts(sender)
	if err != nil {
		return err
	}
	var held uint64
	for _, account := range accounts {
		if account.Mint == mint {
			held += account.Amount
		}
	}
	if units > held {
		return ErrInsufficientBalance
	}
	return nil
}
