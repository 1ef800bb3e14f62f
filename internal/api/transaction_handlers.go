package api

import (
	"net/http"

	"github.com/adelekeogunsona/solana-web-wallet/lib/transaction"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// prepareTransfer resolves the sending wallet and builds the transfer
// described by the request.
func (a *API) prepareTransfer(req transferRequest) (*transaction.Transfer, solana.PrivateKey, error) {
	signer, err := a.Session.Signer(req.WalletID)
	if err != nil {
		return nil, nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, nil, transaction.ErrAmountOutOfRange
	}

	var transfer *transaction.Transfer
	if req.Mint == "" {
		transfer, err = a.Builder.PrepareSOLTransfer(signer.PublicKey(), req.Destination, amount)
	} else {
		transfer, err = a.Builder.PrepareTokenTransfer(signer.PublicKey(), req.Destination, req.Mint, amount, req.Decimals)
	}
	if err != nil {
		return nil, nil, err
	}
	return transfer, signer, nil
}

// handleTransferEstimate prices a transfer without submitting it.
func (a *API) handleTransferEstimate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	transfer, _, err := a.prepareTransfer(req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transfer)
}

// handleTransferSend rebuilds the transfer against a fresh blockhash, signs
// it with the session's key and submits. A missed confirmation comes back as
// a warning on the result, not an error status.
func (a *API) handleTransferSend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	transfer, signer, err := a.prepareTransfer(req)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := a.Builder.Send(transfer, signer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
