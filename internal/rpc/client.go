package rpc

import (
	"context"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// Client is the subset of the chain RPC surface the wallet uses. It is
// satisfied by *rpc.Client from gagliardetto/solana-go; tests substitute
// fakes.
type Client interface {
	GetVersion(ctx context.Context) (*solanarpc.GetVersionResult, error)
	GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	GetFeeForMessage(ctx context.Context, message string, commitment solanarpc.CommitmentType) (*solanarpc.GetFeeForMessageResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
	GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *solanarpc.GetTokenAccountsConfig, opts *solanarpc.GetTokenAccountsOpts) (*solanarpc.GetTokenAccountsResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment solanarpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
}

// DialFunc builds a Client for an endpoint URL.
type DialFunc func(endpoint string) Client

func defaultDial(endpoint string) Client {
	return solanarpc.New(endpoint)
}
