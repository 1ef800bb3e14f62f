package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/rpc"
	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainStub answers just enough of the RPC surface to drive a transfer end
// to end.
type chainStub struct {
	lamports      uint64
	fee           uint64
	feeUnpriced   bool
	rent          uint64
	accountExists bool
	tokenAccounts *solanarpc.GetTokenAccountsResult

	sentTxs int
}

func (s *chainStub) GetVersion(ctx context.Context) (*solanarpc.GetVersionResult, error) {
	return &solanarpc.GetVersionResult{}, nil
}

func (s *chainStub) GetSlot(ctx context.Context, commitment solanarpc.CommitmentType) (uint64, error) {
	return 1000, nil
}

func (s *chainStub) GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error) {
	return &solanarpc.GetBalanceResult{Value: s.lamports}, nil
}

func (s *chainStub) GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error) {
	return &solanarpc.GetLatestBlockhashResult{
		Value: &solanarpc.LatestBlockhashResult{
			Blockhash:            solana.Hash{1, 2, 3},
			LastValidBlockHeight: 1000,
		},
	}, nil
}

func (s *chainStub) GetFeeForMessage(ctx context.Context, message string, commitment solanarpc.CommitmentType) (*solanarpc.GetFeeForMessageResult, error) {
	if s.feeUnpriced {
		return &solanarpc.GetFeeForMessageResult{}, nil
	}
	fee := s.fee
	return &solanarpc.GetFeeForMessageResult{Value: &fee}, nil
}

func (s *chainStub) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error) {
	if !s.accountExists {
		return nil, solanarpc.ErrNotFound
	}
	return &solanarpc.GetAccountInfoResult{Value: &solanarpc.Account{}}, nil
}

func (s *chainStub) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey, conf *solanarpc.GetTokenAccountsConfig, opts *solanarpc.GetTokenAccountsOpts) (*solanarpc.GetTokenAccountsResult, error) {
	if s.tokenAccounts != nil {
		return s.tokenAccounts, nil
	}
	return &solanarpc.GetTokenAccountsResult{}, nil
}

func (s *chainStub) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment solanarpc.CommitmentType) (uint64, error) {
	return s.rent, nil
}

func (s *chainStub) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error) {
	s.sentTxs++
	return solana.Signature{9, 9, 9}, nil
}

func (s *chainStub) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error) {
	return &solanarpc.GetSignatureStatusesResult{
		Value: []*solanarpc.SignatureStatusesResult{
			{ConfirmationStatus: solanarpc.ConfirmationStatusConfirmed},
		},
	}, nil
}

func newStubBuilder(t *testing.T, stub *chainStub) *Builder {
	t.Helper()
	net := rpc.NewManager(rpc.Config{
		Endpoints:           []string{"http://stub"},
		MaxRetries:          0,
		HealthCheckInterval: time.Hour,
		SlotPollInterval:    time.Hour,
		Dial:                func(endpoint string) rpc.Client { return stub },
	})
	t.Cleanup(net.Close)
	net.Health().CheckNow()
	return NewBuilder(net, "https://solana.fm/tx")
}

func testSigner(t *testing.T) solana.PrivateKey {
	t.Helper()
	wallet := solana.NewWallet()
	return wallet.PrivateKey
}

func TestPrepareSOLTransfer(t *testing.T) {
	stub := &chainStub{lamports: 2_000_000_000, fee: 5_000}
	b := newStubBuilder(t, stub)
	signer := testSigner(t)
	dest := solana.NewWallet().PublicKey()

	transfer, err := b.PrepareSOLTransfer(signer.PublicKey(), dest.String(), decimal.RequireFromString("0.5"))
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), transfer.Amount)
	assert.Equal(t, uint64(5_000), transfer.Estimate.BaseFee)
	assert.Equal(t, uint64(10_000), transfer.Estimate.Fee, "safety margin doubles the base fee")
	assert.Zero(t, transfer.Estimate.Rent)
	assert.Equal(t, uint64(10_000), transfer.Estimate.Total)
}

func TestPrepareSOLTransferRejectsBadDestination(t *testing.T) {
	stub := &chainStub{lamports: 2_000_000_000}
	b := newStubBuilder(t, stub)

	_, err := b.PrepareSOLTransfer(testSigner(t).PublicKey(), "definitely-not-base58", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestPrepareSOLTransferChecksBalance(t *testing.T) {
	stub := &chainStub{lamports: 100_000, fee: 5_000}
	b := newStubBuilder(t, stub)
	dest := solana.NewWallet().PublicKey()

	_, err := b.PrepareSOLTransfer(testSigner(t).PublicKey(), dest.String(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	// amount alone fits, amount plus fees does not
	_, err = b.PrepareSOLTransfer(testSigner(t).PublicKey(), dest.String(), decimal.RequireFromString("0.0001"))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestPrepareSOLTransferFallsBackToFlatFee(t *testing.T) {
	stub := &chainStub{lamports: 2_000_000_000, feeUnpriced: true}
	b := newStubBuilder(t, stub)
	dest := solana.NewWallet().PublicKey()

	transfer, err := b.PrepareSOLTransfer(testSigner(t).PublicKey(), dest.String(), decimal.RequireFromString("0.1"))
	require.NoError(t, err)
	assert.Equal(t, uint64(LamportsPerSignature), transfer.Estimate.BaseFee)
	assert.Equal(t, uint64(LamportsPerSignature*FeeSafetyMargin), transfer.Estimate.Fee)
}

func TestPrepareTokenTransferValidatesInput(t *testing.T) {
	stub := &chainStub{lamports: 2_000_000_000, fee: 5_000, rent: 2_039_280}
	b := newStubBuilder(t, stub)
	sender := testSigner(t).PublicKey()
	mint := solana.NewWallet().PublicKey().String()

	_, err := b.PrepareTokenTransfer(sender, "bogus!!", mint, decimal.NewFromInt(1), 6)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	dest := solana.NewWallet().PublicKey().String()
	_, err = b.PrepareTokenTransfer(sender, dest, "bogus!!", decimal.NewFromInt(1), 6)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAddress)
}

func TestPrepareTokenTransferChecksTokenBalance(t *testing.T) {
	// destination token account absent, sender holds none of the token
	stub := &chainStub{lamports: 2_000_000_000, fee: 5_000, rent: 2_039_280}
	b := newStubBuilder(t, stub)
	sender := testSigner(t).PublicKey()
	dest := solana.NewWallet().PublicKey().String()
	mint := solana.NewWallet().PublicKey().String()

	_, err := b.PrepareTokenTransfer(sender, dest, mint, decimal.NewFromInt(5), 6)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestSendSignsSubmitsAndConfirms(t *testing.T) {
	stub := &chainStub{lamports: 2_000_000_000, fee: 5_000}
	b := newStubBuilder(t, stub)
	signer := testSigner(t)
	dest := solana.NewWallet().PublicKey()

	transfer, err := b.PrepareSOLTransfer(signer.PublicKey(), dest.String(), decimal.RequireFromString("0.25"))
	require.NoError(t, err)

	result, err := b.Send(transfer, signer)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.sentTxs)
	assert.True(t, result.Confirmed)
	assert.Empty(t, result.ConfirmationWarning)
	assert.NotEmpty(t, result.Signature)
	assert.Contains(t, result.ExplorerURL, result.Signature)
}
