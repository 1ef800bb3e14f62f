package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// GetLatestBlockhash fetches a recent blockhash for transaction construction.
func (m *Manager) GetLatestBlockhash() (solana.Hash, error) {
	out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		res, err := client.GetLatestBlockhash(ctx, m.cfg.Commitment)
		if err != nil {
			return nil, err
		}
		return res.Value.Blockhash, nil
	})
	if err != nil {
		return solana.Hash{}, err
	}
	return out.(solana.Hash), nil
}

// GetFeeForMessage asks the network what a serialized message costs. ok is
// false when the node cannot price the message (unknown blockhash); callers
// fall back to the flat per-signature fee.
func (m *Manager) GetFeeForMessage(messageBase64 string) (fee uint64, ok bool, err error) {
	out, execErr := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		res, err := client.GetFeeForMessage(ctx, messageBase64, m.cfg.Commitment)
		if err != nil {
			return nil, err
		}
		if res.Value == nil {
			return nil, nil
		}
		return *res.Value, nil
	})
	if execErr != nil {
		return 0, false, execErr
	}
	if out == nil {
		return 0, false, nil
	}
	return out.(uint64), true, nil
}

// AccountExists reports whether an account is present on chain. A not-found
// response is a definitive answer, not an endpoint failure.
func (m *Manager) AccountExists(account solana.PublicKey) (bool, error) {
	out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		res, err := client.GetAccountInfo(ctx, account)
		if errors.Is(err, solanarpc.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return nil, err
		}
		return res != nil && res.Value != nil, nil
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// GetMinimumBalanceForRentExemption queries the rent floor for an account of
// the given size.
func (m *Manager) GetMinimumBalanceForRentExemption(dataSize uint64) (uint64, error) {
	out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		return client.GetMinimumBalanceForRentExemption(ctx, dataSize, m.cfg.Commitment)
	})
	if err != nil {
		return 0, err
	}
	return out.(uint64), nil
}

// SendTransaction submits a signed transaction with preflight checks at the
// configured commitment.
func (m *Manager) SendTransaction(tx *solana.Transaction) (solana.Signature, error) {
	out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		return client.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
			PreflightCommitment: m.cfg.Commitment,
		})
	})
	if err != nil {
		return solana.Signature{}, err
	}
	return out.(solana.Signature), nil
}

// ConfirmTransaction polls the signature status until it reaches the
// configured commitment or the deadline expires. A transaction the chain
// reports as errored fails immediately.
func (m *Manager) ConfirmTransaction(sig solana.Signature, timeout time.Duration) error {
	deadline := m.cfg.Now().Add(timeout)
	for {
		out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
			res, err := client.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				return nil, err
			}
			if len(res.Value) == 0 {
				return nil, nil
			}
			return res.Value[0], nil
		})
		if err != nil {
			return err
		}

		if status, ok := out.(*solanarpc.SignatureStatusesResult); ok && status != nil {
			if status.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", status.Err)
			}
			switch status.ConfirmationStatus {
			case solanarpc.ConfirmationStatusConfirmed, solanarpc.ConfirmationStatusFinalized:
				return nil
			}
		}

		if m.cfg.Now().After(deadline) {
			return ErrConfirmationTimeout
		}
		time.Sleep(2 * time.Second)
	}
}

// TokenAccountBalance describes one token holding of an owner address.
type TokenAccountBalance struct {
	Pubkey   string
	Mint     string
	Amount   uint64
	Decimals int
	UIAmount float64
}

// parsedTokenAccount is the jsonParsed shape of an SPL token account.
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount   string  `json:"amount"`
				Decimals int     `json:"decimals"`
				UIAmount float64 `json:"uiAmount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// GetTokenAccounts lists every token account owned by owner, with raw and
// display amounts.
func (m *Manager) GetTokenAccounts(owner solana.PublicKey) ([]TokenAccountBalance, error) {
	out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
		programID := solana.TokenProgramID
		return client.GetTokenAccountsByOwner(ctx, owner,
			&solanarpc.GetTokenAccountsConfig{ProgramId: &programID},
			&solanarpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
		)
	})
	if err != nil {
		return nil, err
	}

	res := out.(*solanarpc.GetTokenAccountsResult)
	accounts := make([]TokenAccountBalance, 0, len(res.Value))
	for _, entry := range res.Value {
		raw := entry.Account.Data.GetRawJSON()
		var parsed parsedTokenAccount
		if err := json.Unmarshal(raw, &parsed); err != nil {
			continue
		}

		amount, _ := strconv.ParseUint(parsed.Parsed.Info.TokenAmount.Amount, 10, 64)
		accounts = append(accounts, TokenAccountBalance{
			Pubkey:   entry.Pubkey.String(),
			Mint:     parsed.Parsed.Info.Mint,
			Amount:   amount,
			Decimals: parsed.Parsed.Info.TokenAmount.Decimals,
			UIAmount: parsed.Parsed.Info.TokenAmount.UIAmount,
		})
	}
	return accounts, nil
}

// EndpointValidation is the result of an out-of-band endpoint check used by
// the settings flow before an endpoint is added.
type EndpointValidation struct {
	Healthy bool
	Latency time.Duration
	Err     string
}

// ValidateEndpoint dials the URL directly (outside the queue) and probes it
// once.
func (m *Manager) ValidateEndpoint(endpoint string) EndpointValidation {
	client := m.cfg.Dial(endpoint)

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	if _, err := client.GetVersion(ctx); err != nil {
		return EndpointValidation{Healthy: false, Latency: LatencyUnreachable, Err: err.Error()}
	}
	return EndpointValidation{Healthy: true, Latency: time.Since(start)}
}
