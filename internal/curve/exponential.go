package curve

import "github.com/holiman/uint256"

// Exponential prices items along a multiplicative curve: every purchase
// multiplies the spot price by delta, every sale divides it. Delta is a
// wad-scaled factor and must be strictly greater than 1.0.
type Exponential struct{}

func (Exponential) ValidateDelta(delta *uint256.Int) bool {
	return delta.Gt(Wad)
}

func (Exponential) BuyQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error) {
	if count == 0 {
		return Quote{}, ErrInvalidCount
	}
	if !delta.Gt(Wad) {
		return Quote{}, ErrDeltaTooSmall
	}

	deltaPowN, ok := powWad(delta, count)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	newSpotPrice, ok := mulWad(spotPrice, deltaPowN)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}

	// Geometric series: the first item costs spot*delta, the k-th
	// spot*delta^k, so the raw total is spot*delta*(delta^n - 1)/(delta - 1).
	buySpot, ok := mulWad(spotPrice, delta)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	num := new(uint256.Int).Sub(deltaPowN, Wad)
	den := new(uint256.Int).Sub(delta, Wad)
	ratio, ok := divWad(num, den)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	raw, ok := mulWad(buySpot, ratio)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}

	input, protocolFee, err := applyBuyFees(raw, feeMultiplier, protocolFeeMultiplier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{NewSpotPrice: newSpotPrice, Amount: input, ProtocolFee: protocolFee}, nil
}

func (Exponential) SellQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error) {
	if count == 0 {
		return Quote{}, ErrInvalidCount
	}
	if !delta.Gt(Wad) {
		return Quote{}, ErrDeltaTooSmall
	}

	invDelta, ok := divWad(Wad, delta)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	invDeltaPowN, ok := powWad(invDelta, count)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	newSpotPrice, ok := mulWad(spotPrice, invDeltaPowN)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}

	// Geometric series sold downward: spot*(1 - (1/delta)^n)/(1 - 1/delta).
	num := new(uint256.Int).Sub(Wad, invDeltaPowN)
	den := new(uint256.Int).Sub(Wad, invDelta)
	ratio, ok := divWad(num, den)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}
	raw, ok := mulWad(spotPrice, ratio)
	if !ok {
		return Quote{}, ErrSpotPriceOverflow
	}

	output, protocolFee, err := applySellFees(raw, feeMultiplier, protocolFeeMultiplier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{NewSpotPrice: newSpotPrice, Amount: output, ProtocolFee: protocolFee}, nil
}
