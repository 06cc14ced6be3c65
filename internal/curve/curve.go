package curve

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// Errors reported by curve implementations. Any curve failure is fatal for
// the swap that requested the quote.
var (
	ErrInvalidCount      = errors.New("curve: item count must be greater than zero")
	ErrSpotPriceOverflow = errors.New("curve: price computation overflows")
	ErrDeltaTooSmall     = errors.New("curve: delta too small for this curve")
)

// Quote is the result of pricing a trade against a listing's current state.
// Amount is the total the trader pays (buys) or receives (sells), with the
// trade fee and protocol fee already applied.
type Quote struct {
	NewSpotPrice *uint256.Int
	Amount       *uint256.Int
	ProtocolFee  *uint256.Int
}

// Curve prices trades for a listing. Implementations are pure: they hold no
// state and never mutate their arguments. Fee multipliers are wad-scaled
// fractions (1e18 == 1.0).
type Curve interface {
	// ValidateDelta reports whether delta is usable with this curve.
	ValidateDelta(delta *uint256.Int) bool

	// BuyQuote prices the purchase of count items from the pool.
	BuyQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error)

	// SellQuote prices the sale of count items into the pool.
	SellQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error)
}

// ByName resolves a registered curve implementation.
func ByName(name string) (Curve, error) {
	switch name {
	case "linear":
		return Linear{}, nil
	case "exponential":
		return Exponential{}, nil
	default:
		return nil, fmt.Errorf("unknown curve %q", name)
	}
}

// applyBuyFees folds the trade fee and protocol fee into a raw buy-side total
// and returns (gross input, protocol fee).
func applyBuyFees(raw, feeMultiplier, protocolFeeMultiplier *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	protocolFee, ok := mulWad(raw, protocolFeeMultiplier)
	if !ok {
		return nil, nil, ErrSpotPriceOverflow
	}
	tradeFee, ok := mulWad(raw, feeMultiplier)
	if !ok {
		return nil, nil, ErrSpotPriceOverflow
	}
	input := new(uint256.Int)
	if _, overflow := input.AddOverflow(raw, tradeFee); overflow {
		return nil, nil, ErrSpotPriceOverflow
	}
	if _, overflow := input.AddOverflow(input, protocolFee); overflow {
		return nil, nil, ErrSpotPriceOverflow
	}
	return input, protocolFee, nil
}

// applySellFees deducts the trade fee and protocol fee from a raw sell-side
// total and returns (net output, protocol fee). Both fees are computed from
// the raw amount.
func applySellFees(raw, feeMultiplier, protocolFeeMultiplier *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	protocolFee, ok := mulWad(raw, protocolFeeMultiplier)
	if !ok {
		return nil, nil, ErrSpotPriceOverflow
	}
	tradeFee, ok := mulWad(raw, feeMultiplier)
	if !ok {
		return nil, nil, ErrSpotPriceOverflow
	}
	deduction := new(uint256.Int).Add(tradeFee, protocolFee)
	if raw.Lt(deduction) {
		return nil, nil, ErrSpotPriceOverflow
	}
	output := new(uint256.Int).Sub(raw, deduction)
	return output, protocolFee, nil
}
