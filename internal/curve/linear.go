package curve

import "github.com/holiman/uint256"

var two = uint256.NewInt(2)

// Linear prices items along an additive curve: every purchase raises the
// spot price by delta, every sale lowers it. A multi-item quote is the
// arithmetic series between the current price and the post-trade price.
type Linear struct{}

// ValidateDelta accepts any delta, including zero (a constant-price pool).
func (Linear) ValidateDelta(*uint256.Int) bool { return true }

func (Linear) BuyQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error) {
	if count == 0 {
		return Quote{}, ErrInvalidCount
	}
	n := uint256.NewInt(count)

	totalIncrease := new(uint256.Int)
	if _, overflow := totalIncrease.MulOverflow(delta, n); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	newSpotPrice := new(uint256.Int)
	if _, overflow := newSpotPrice.AddOverflow(spotPrice, totalIncrease); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}

	// The first item costs spot+delta and the last costs the new spot
	// price, so the raw total is count*(spot+delta) + delta*count*(count-1)/2.
	buySpot := new(uint256.Int)
	if _, overflow := buySpot.AddOverflow(spotPrice, delta); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	raw := new(uint256.Int)
	if _, overflow := raw.MulOverflow(buySpot, n); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	series := new(uint256.Int)
	if _, overflow := series.MulOverflow(n, uint256.NewInt(count-1)); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	if _, overflow := series.MulOverflow(series, delta); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	series.Div(series, two)
	if _, overflow := raw.AddOverflow(raw, series); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}

	input, protocolFee, err := applyBuyFees(raw, feeMultiplier, protocolFeeMultiplier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{NewSpotPrice: newSpotPrice, Amount: input, ProtocolFee: protocolFee}, nil
}

func (Linear) SellQuote(spotPrice, delta *uint256.Int, count uint64, feeMultiplier, protocolFeeMultiplier *uint256.Int) (Quote, error) {
	if count == 0 {
		return Quote{}, ErrInvalidCount
	}
	n := uint256.NewInt(count)

	// The spot price floors at zero. When the requested count would push it
	// below, only the items priced above zero contribute to the payout.
	totalDecrease := new(uint256.Int)
	if _, overflow := totalDecrease.MulOverflow(delta, n); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	newSpotPrice := new(uint256.Int)
	effective := count
	if spotPrice.Lt(totalDecrease) {
		if !delta.IsZero() {
			effective = new(uint256.Int).Div(spotPrice, delta).Uint64() + 1
		}
	} else {
		newSpotPrice.Sub(spotPrice, totalDecrease)
	}

	// First item sells at spot, each further item delta lower.
	en := uint256.NewInt(effective)
	raw := new(uint256.Int)
	if _, overflow := raw.MulOverflow(spotPrice, en); overflow {
		return Quote{}, ErrSpotPriceOverflow
	}
	series := new(uint256.Int).Mul(en, uint256.NewInt(effective-1))
	series.Mul(series, delta)
	series.Div(series, two)
	raw.Sub(raw, series)

	output, protocolFee, err := applySellFees(raw, feeMultiplier, protocolFeeMultiplier)
	if err != nil {
		return Quote{}, err
	}
	return Quote{NewSpotPrice: newSpotPrice, Amount: output, ProtocolFee: protocolFee}, nil
}
