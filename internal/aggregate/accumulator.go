package aggregate

import (
	"fmt"

	"github.com/holiman/uint256"

	"curvepool/internal/model"
)

// Accumulator holds running aggregate values for one listing.
type Accumulator struct {
	ListingIndex uint64
	BuyCount     uint64
	SellCount    uint64
	ItemsOut     uint64
	ItemsIn      uint64
	VolumeIn     *uint256.Int
	VolumeOut    *uint256.Int
	ProtocolFees *uint256.Int
	SpotMin      *uint256.Int
	SpotMax      *uint256.Int
	SpotLast     *uint256.Int
	FirstSeq     uint64
	LastSeq      uint64
}

func NewAccumulator(listingIndex uint64) *Accumulator {
	return &Accumulator{
		ListingIndex: listingIndex,
		VolumeIn:     uint256.NewInt(0),
		VolumeOut:    uint256.NewInt(0),
		ProtocolFees: uint256.NewInt(0),
	}
}

// AddTrade folds one settled trade into the accumulator. "buy" trades move
// payment into the pool and items out; "sell" trades the reverse.
func (a *Accumulator) AddTrade(trade model.TradeRecord) error {
	amount, err := parseAmount(trade.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	fee, err := parseAmount(trade.ProtocolFee)
	if err != nil {
		return fmt.Errorf("protocol fee: %w", err)
	}
	spotAfter, err := parseAmount(trade.SpotAfter)
	if err != nil {
		return fmt.Errorf("spot after: %w", err)
	}

	switch trade.Side {
	case "buy":
		a.BuyCount++
		a.ItemsOut += uint64(len(trade.ItemIDs))
		if _, overflow := a.VolumeIn.AddOverflow(a.VolumeIn, amount); overflow {
			return fmt.Errorf("volume in overflows")
		}
	case "sell":
		a.SellCount++
		a.ItemsIn += uint64(len(trade.ItemIDs))
		if _, overflow := a.VolumeOut.AddOverflow(a.VolumeOut, amount); overflow {
			return fmt.Errorf("volume out overflows")
		}
	default:
		return fmt.Errorf("unknown trade side %q", trade.Side)
	}

	if _, overflow := a.ProtocolFees.AddOverflow(a.ProtocolFees, fee); overflow {
		return fmt.Errorf("protocol fees overflow")
	}

	if a.SpotMin == nil || spotAfter.Lt(a.SpotMin) {
		a.SpotMin = spotAfter.Clone()
	}
	if a.SpotMax == nil || spotAfter.Gt(a.SpotMax) {
		a.SpotMax = spotAfter.Clone()
	}
	if a.FirstSeq == 0 || trade.Sequence < a.FirstSeq {
		a.FirstSeq = trade.Sequence
	}
	if trade.Sequence >= a.LastSeq {
		a.LastSeq = trade.Sequence
		a.SpotLast = spotAfter.Clone()
	}
	return nil
}

// Summary renders the accumulator as a storage record.
func (a *Accumulator) Summary() model.ListingSummary {
	return model.ListingSummary{
		ListingIndex: a.ListingIndex,
		BuyCount:     a.BuyCount,
		SellCount:    a.SellCount,
		ItemsOut:     a.ItemsOut,
		ItemsIn:      a.ItemsIn,
		VolumeIn:     a.VolumeIn.Dec(),
		VolumeOut:    a.VolumeOut.Dec(),
		ProtocolFees: a.ProtocolFees.Dec(),
		SpotMin:      decOrZero(a.SpotMin),
		SpotMax:      decOrZero(a.SpotMax),
		SpotLast:     decOrZero(a.SpotLast),
		FirstSeq:     a.FirstSeq,
		LastSeq:      a.LastSeq,
	}
}

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return uint256.NewInt(0), nil
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return parsed, nil
}

func decOrZero(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
