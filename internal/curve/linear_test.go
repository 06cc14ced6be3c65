package curve

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func wad(x uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(1e18))
}

// tenthWad returns x/10 scaled to wad.
func tenthWad(x uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(x), uint256.NewInt(1e17))
}

func TestLinearBuyQuote(t *testing.T) {
	// spot 1.0, delta 0.1, two items, no fees:
	// items cost 1.1 and 1.2, new spot 1.2.
	q, err := Linear{}.BuyQuote(wad(1), tenthWad(1), 2, uint256.NewInt(0), uint256.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := q.NewSpotPrice, tenthWad(12); !got.Eq(want) {
		t.Fatalf("new spot price mismatch: %s != %s", got.Dec(), want.Dec())
	}
	if got, want := q.Amount, tenthWad(23); !got.Eq(want) {
		t.Fatalf("input amount mismatch: %s != %s", got.Dec(), want.Dec())
	}
	if !q.ProtocolFee.IsZero() {
		t.Fatalf("expected zero protocol fee, got %s", q.ProtocolFee.Dec())
	}
}

func TestLinearBuyQuoteWithFees(t *testing.T) {
	// Raw input 2.3; trade fee 10% adds 0.23, protocol fee 5% adds 0.115.
	q, err := Linear{}.BuyQuote(wad(1), tenthWad(1), 2, tenthWad(1), new(uint256.Int).Div(tenthWad(1), two))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantFee := uint256.NewInt(115_000_000_000_000_000)
	if !q.ProtocolFee.Eq(wantFee) {
		t.Fatalf("protocol fee mismatch: %s != %s", q.ProtocolFee.Dec(), wantFee.Dec())
	}
	wantInput := uint256.NewInt(2_645_000_000_000_000_000)
	if !q.Amount.Eq(wantInput) {
		t.Fatalf("input amount mismatch: %s != %s", q.Amount.Dec(), wantInput.Dec())
	}
}

func TestLinearBuyQuoteZeroCount(t *testing.T) {
	_, err := Linear{}.BuyQuote(wad(1), tenthWad(1), 0, uint256.NewInt(0), uint256.NewInt(0))
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
}

func TestLinearBuyQuoteOverflow(t *testing.T) {
	huge := new(uint256.Int).SetAllOne()
	_, err := Linear{}.BuyQuote(huge, wad(1), 2, uint256.NewInt(0), uint256.NewInt(0))
	if !errors.Is(err, ErrSpotPriceOverflow) {
		t.Fatalf("expected ErrSpotPriceOverflow, got %v", err)
	}
}

func TestLinearSellQuote(t *testing.T) {
	// spot 1.0, delta 0.1, two items: paid 1.0 and 0.9, new spot 0.8.
	q, err := Linear{}.SellQuote(wad(1), tenthWad(1), 2, uint256.NewInt(0), uint256.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := q.NewSpotPrice, tenthWad(8); !got.Eq(want) {
		t.Fatalf("new spot price mismatch: %s != %s", got.Dec(), want.Dec())
	}
	if got, want := q.Amount, tenthWad(19); !got.Eq(want) {
		t.Fatalf("output amount mismatch: %s != %s", got.Dec(), want.Dec())
	}
}

func TestLinearSellQuoteFloorsAtZero(t *testing.T) {
	// spot 0.5, delta 0.2, five items requested. Only three trade above the
	// floor (0.5, 0.3, 0.1); the spot price pins to zero.
	q, err := Linear{}.SellQuote(tenthWad(5), tenthWad(2), 5, uint256.NewInt(0), uint256.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.NewSpotPrice.IsZero() {
		t.Fatalf("expected zero spot price, got %s", q.NewSpotPrice.Dec())
	}
	if got, want := q.Amount, tenthWad(9); !got.Eq(want) {
		t.Fatalf("output amount mismatch: %s != %s", got.Dec(), want.Dec())
	}
}

func TestLinearSellQuoteZeroDeltaFloor(t *testing.T) {
	// Zero delta never lowers the price, even below the requested total.
	q, err := Linear{}.SellQuote(wad(1), uint256.NewInt(0), 3, uint256.NewInt(0), uint256.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := q.NewSpotPrice, wad(1); !got.Eq(want) {
		t.Fatalf("new spot price mismatch: %s != %s", got.Dec(), want.Dec())
	}
	if got, want := q.Amount, wad(3); !got.Eq(want) {
		t.Fatalf("output amount mismatch: %s != %s", got.Dec(), want.Dec())
	}
}

func TestLinearValidateDelta(t *testing.T) {
	if !(Linear{}).ValidateDelta(uint256.NewInt(0)) {
		t.Fatalf("linear curve should accept zero delta")
	}
}
