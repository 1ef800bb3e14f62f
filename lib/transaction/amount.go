package transaction

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// LamportsPerSOL scales the native asset.
	LamportsPerSOL = 1_000_000_000

	// LamportsPerSignature is the flat fallback fee per signature when the
	// network fee query is unavailable.
	LamportsPerSignature = 5_000

	// FeeSafetyMargin is applied to the estimated network fee so a displayed
	// total is never an underestimate.
	FeeSafetyMargin = 2

	// TokenAccountRentFallback is the rent-exemption cost assumed for a new
	// token account when the network rent query is unavailable.
	TokenAccountRentFallback = 2_500_000

	// tokenAccountDataSize is the byte size of an SPL token account, used
	// for the rent-exemption query.
	tokenAccountDataSize = 165
)

// ErrAmountOutOfRange is returned when a decimal amount is negative or does
// not fit in 64 bits at the given scale.
var ErrAmountOutOfRange = errors.New("amount out of range")

// ToBaseUnits converts a user-facing decimal amount to integer base units at
// the asset's decimal count. Fractional dust beyond the asset's precision is
// floored, never rounded up, so the wire amount cannot exceed what the user
// authorized.
func ToBaseUnits(amount decimal.Decimal, decimals int) (uint64, error) {
	if amount.IsNegative() {
		return 0, ErrAmountOutOfRange
	}
	scaled := amount.Shift(int32(decimals)).Floor()
	if !scaled.BigInt().IsUint64() {
		return 0, ErrAmountOutOfRange
	}
	return scaled.BigInt().Uint64(), nil
}

// FromBaseUnits renders integer base units as the user-facing decimal. The
// value goes through big.Int so amounts above math.MaxInt64 survive intact.
func FromBaseUnits(units uint64, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), int32(-decimals))
}

// SOLToLamports floors a decimal SOL amount into lamports.
func SOLToLamports(amount decimal.Decimal) (uint64, error) {
	return ToBaseUnits(amount, 9)
}

// LamportsToSOL renders lamports as decimal SOL.
func LamportsToSOL(lamports uint64) decimal.Decimal {
	return FromBaseUnits(lamports, 9)
}
