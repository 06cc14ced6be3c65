package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"curvepool/internal/access"
	"curvepool/internal/custody"
	"curvepool/internal/fees"
	"curvepool/internal/ledger"
)

func TestBuyAnySettlement(t *testing.T) {
	f := newFixture(t)
	// Quote: new spot 120, input 210, protocol fee 5. Trader tenders 300.
	c := stubCurve{buy: quote(120, 210, 5)}
	index := f.register(t, PoolTypeTrade, c, 1, 2, 3)
	f.led.Mint(trader, uint256.NewInt(300))

	rcpt, err := f.eng.BuyAny(trader, index, 2, uint256.NewInt(300))
	if err != nil {
		t.Fatalf("buy any: %v", err)
	}

	// Items leave in inventory enumeration order.
	if !reflect.DeepEqual(rcpt.ItemIDs, []uint64{1, 2}) {
		t.Fatalf("item selection mismatch: %v", rcpt.ItemIDs)
	}
	for _, id := range rcpt.ItemIDs {
		if owner, _ := f.reg.OwnerOf(collection, id); owner != trader {
			t.Fatalf("item %d should belong to trader, owner %s", id, owner.Hex())
		}
	}
	if got := f.inventory(t, index); !reflect.DeepEqual(got, []uint64{3}) {
		t.Fatalf("inventory mismatch: %v", got)
	}

	// Refund is exactly tendered minus input; the fee recipient gets the
	// protocol fee; the pool keeps the rest.
	if got := f.led.BalanceOf(trader); !got.Eq(uint256.NewInt(90)) {
		t.Fatalf("trader balance mismatch: %s", got.Dec())
	}
	if got := f.led.BalanceOf(feeRecipient); !got.Eq(uint256.NewInt(5)) {
		t.Fatalf("fee recipient balance mismatch: %s", got.Dec())
	}
	view, _ := f.eng.Listing(index)
	if got := f.led.BalanceOf(view.Account); !got.Eq(uint256.NewInt(205)) {
		t.Fatalf("pool balance mismatch: %s", got.Dec())
	}

	// The spot price is exactly the curve's value, never derived.
	if !f.spot(t, index).Eq(uint256.NewInt(120)) {
		t.Fatalf("spot price mismatch: %s", f.spot(t, index).Dec())
	}
	if !rcpt.Refund.Eq(uint256.NewInt(90)) {
		t.Fatalf("receipt refund mismatch: %s", rcpt.Refund.Dec())
	}
}

func TestBuyAnyInsufficientPayment(t *testing.T) {
	f := newFixture(t)
	c := stubCurve{buy: quote(120, 210, 5)}
	index := f.register(t, PoolTypeTrade, c, 1, 2)
	f.led.Mint(trader, uint256.NewInt(100))

	_, err := f.eng.BuyAny(trader, index, 1, uint256.NewInt(100))
	if !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}
	if got := f.inventory(t, index); len(got) != 2 {
		t.Fatalf("inventory should be unchanged, got %v", got)
	}
	if !f.spot(t, index).Eq(uint256.NewInt(100)) {
		t.Fatalf("spot price should be unchanged, got %s", f.spot(t, index).Dec())
	}
}

func TestBuyAnyCountBounds(t *testing.T) {
	f := newFixture(t)
	index := f.register(t, PoolTypeTrade, stubCurve{buy: quote(120, 10, 0)}, 1, 2)

	if _, err := f.eng.BuyAny(trader, index, 0, uint256.NewInt(100)); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("count 0: expected ErrInvalidCount, got %v", err)
	}
	if _, err := f.eng.BuyAny(trader, index, 3, uint256.NewInt(100)); !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("count beyond inventory: expected ErrInvalidCount, got %v", err)
	}
}

func TestBuyExactAbsentItemAborts(t *testing.T) {
	f := newFixture(t)
	c := stubCurve{buy: quote(120, 10, 0)}
	index := f.register(t, PoolTypeTrade, c, 1, 2)
	f.led.Mint(trader, uint256.NewInt(100))

	_, err := f.eng.BuyExact(trader, index, []uint64{1, 99}, uint256.NewInt(100))
	if !errors.Is(err, ErrItemNotHeld) {
		t.Fatalf("expected ErrItemNotHeld, got %v", err)
	}

	// Nothing moved: item 1 is still pool custody, spot price untouched.
	if got := f.inventory(t, index); !reflect.DeepEqual(got, []uint64{1, 2}) {
		t.Fatalf("inventory should be unchanged, got %v", got)
	}
	view, _ := f.eng.Listing(index)
	if owner, _ := f.reg.OwnerOf(collection, 1); owner != view.Account {
		t.Fatalf("item 1 should remain in pool custody, owner %s", owner.Hex())
	}
	if !f.spot(t, index).Eq(uint256.NewInt(100)) {
		t.Fatalf("spot price should be unchanged, got %s", f.spot(t, index).Dec())
	}
	if got := f.led.BalanceOf(trader); !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("trader balance should be unchanged, got %s", got.Dec())
	}
}

func TestBuyExactSelectsRequestedItems(t *testing.T) {
	f := newFixture(t)
	c := stubCurve{buy: quote(130, 50, 0)}
	index := f.register(t, PoolTypeTrade, c, 5, 3, 8)
	f.led.Mint(trader, uint256.NewInt(50))

	rcpt, err := f.eng.BuyExact(trader, index, []uint64{8, 5}, uint256.NewInt(50))
	if err != nil {
		t.Fatalf("buy exact: %v", err)
	}
	if !reflect.DeepEqual(rcpt.ItemIDs, []uint64{8, 5}) {
		t.Fatalf("item ids mismatch: %v", rcpt.ItemIDs)
	}
	if got := f.inventory(t, index); !reflect.DeepEqual(got, []uint64{3}) {
		t.Fatalf("inventory mismatch: %v", got)
	}
}

func TestSellExactSettlement(t *testing.T) {
	f := newFixture(t)
	c := stubCurve{sell: quote(80, 40, 3)}
	index := f.register(t, PoolTypeTrade, c)
	view, _ := f.eng.Listing(index)
	f.led.Mint(view.Account, uint256.NewInt(100))
	f.reg.SetOwner(collection, 7, trader)
	f.reg.SetOwner(collection, 9, trader)

	rcpt, err := f.eng.SellExact(trader, index, []uint64{7, 9}, uint256.NewInt(40))
	if err != nil {
		t.Fatalf("sell exact: %v", err)
	}
	if !rcpt.Amount.Eq(uint256.NewInt(40)) {
		t.Fatalf("receipt amount mismatch: %s", rcpt.Amount.Dec())
	}
	if got := f.inventory(t, index); !reflect.DeepEqual(got, []uint64{7, 9}) {
		t.Fatalf("inventory mismatch: %v", got)
	}
	for _, id := range []uint64{7, 9} {
		if owner, _ := f.reg.OwnerOf(collection, id); owner != view.Account {
			t.Fatalf("item %d should be in pool custody, owner %s", id, owner.Hex())
		}
	}
	if got := f.led.BalanceOf(trader); !got.Eq(uint256.NewInt(40)) {
		t.Fatalf("trader balance mismatch: %s", got.Dec())
	}
	if got := f.led.BalanceOf(feeRecipient); !got.Eq(uint256.NewInt(3)) {
		t.Fatalf("fee recipient balance mismatch: %s", got.Dec())
	}
	if got := f.led.BalanceOf(view.Account); !got.Eq(uint256.NewInt(57)) {
		t.Fatalf("pool balance mismatch: %s", got.Dec())
	}
	if !f.spot(t, index).Eq(uint256.NewInt(80)) {
		t.Fatalf("spot price mismatch: %s", f.spot(t, index).Dec())
	}
}

func TestSellExactSlippageAborts(t *testing.T) {
	f := newFixture(t)
	// Curve pays 4, seller demands at least 5: the whole call aborts and
	// items 7 and 9 stay with the seller.
	c := stubCurve{sell: quote(80, 4, 0)}
	index := f.register(t, PoolTypeTrade, c)
	view, _ := f.eng.Listing(index)
	f.led.Mint(view.Account, uint256.NewInt(100))
	f.reg.SetOwner(collection, 7, trader)
	f.reg.SetOwner(collection, 9, trader)

	_, err := f.eng.SellExact(trader, index, []uint64{7, 9}, uint256.NewInt(5))
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}
	for _, id := range []uint64{7, 9} {
		if owner, _ := f.reg.OwnerOf(collection, id); owner != trader {
			t.Fatalf("item %d should stay with seller, owner %s", id, owner.Hex())
		}
	}
	if got := f.inventory(t, index); len(got) != 0 {
		t.Fatalf("inventory should be empty, got %v", got)
	}
	if got := f.led.BalanceOf(view.Account); !got.Eq(uint256.NewInt(100)) {
		t.Fatalf("pool balance should be unchanged, got %s", got.Dec())
	}
	if !f.spot(t, index).Eq(uint256.NewInt(100)) {
		t.Fatalf("spot price should be unchanged, got %s", f.spot(t, index).Dec())
	}
}

func TestSellExactRollsBackWhenPoolCannotPay(t *testing.T) {
	f := newFixture(t)
	c := stubCurve{sell: quote(80, 40, 0)}
	index := f.register(t, PoolTypeTrade, c)
	// Pool account is unfunded: payment fails after the items moved in,
	// and the rollback must hand them back.
	f.reg.SetOwner(collection, 7, trader)

	_, err := f.eng.SellExact(trader, index, []uint64{7}, nil)
	if err == nil {
		t.Fatalf("expected payment failure")
	}
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ledger.ErrInsufficientBalance, got %v", err)
	}
	if owner, _ := f.reg.OwnerOf(collection, 7); owner != trader {
		t.Fatalf("item 7 should be back with seller, owner %s", owner.Hex())
	}
	if got := f.inventory(t, index); len(got) != 0 {
		t.Fatalf("inventory should be empty, got %v", got)
	}
	if !f.spot(t, index).Eq(uint256.NewInt(100)) {
		t.Fatalf("spot price should be unchanged, got %s", f.spot(t, index).Dec())
	}
}

func TestPoolTypeGating(t *testing.T) {
	f := newFixture(t)
	buyIndex := f.register(t, PoolTypeBuy, stubCurve{buy: quote(1, 1, 0), sell: quote(1, 1, 0)})
	sellIndex := f.register(t, PoolTypeSell, stubCurve{buy: quote(1, 1, 0), sell: quote(1, 1, 0)}, 1)

	if _, err := f.eng.BuyAny(trader, buyIndex, 1, uint256.NewInt(1)); !errors.Is(err, ErrInvalidCount) {
		// A buy-only pool holds no items; the count check fires first.
		t.Fatalf("buy from empty buy pool: expected ErrInvalidCount, got %v", err)
	}
	if _, err := f.eng.BuyExact(trader, buyIndex, []uint64{1}, uint256.NewInt(1)); !errors.Is(err, ErrWrongPoolType) {
		t.Fatalf("buy from buy-only pool: expected ErrWrongPoolType, got %v", err)
	}
	if _, err := f.eng.SellExact(trader, sellIndex, []uint64{2}, nil); !errors.Is(err, ErrWrongPoolType) {
		t.Fatalf("sell to sell-only pool: expected ErrWrongPoolType, got %v", err)
	}
}

func TestCurveErrorAbortsSwap(t *testing.T) {
	f := newFixture(t)
	index := f.register(t, PoolTypeTrade, stubCurve{err: errors.New("boom")}, 1)
	f.led.Mint(trader, uint256.NewInt(100))

	if _, err := f.eng.BuyAny(trader, index, 1, uint256.NewInt(100)); !errors.Is(err, ErrCurve) {
		t.Fatalf("expected ErrCurve, got %v", err)
	}
	if !f.spot(t, index).Eq(uint256.NewInt(100)) {
		t.Fatalf("spot price should be unchanged, got %s", f.spot(t, index).Dec())
	}
}

func TestUnsolicitedTransferRejected(t *testing.T) {
	f := newFixture(t)
	index := f.register(t, PoolTypeTrade, stubCurve{})
	view, _ := f.eng.Listing(index)
	f.reg.SetOwner(collection, 7, trader)

	err := f.reg.Transfer(trader, view.Account, collection, 7)
	if !errors.Is(err, ErrUnsolicitedTransfer) {
		t.Fatalf("expected ErrUnsolicitedTransfer, got %v", err)
	}
	if owner, _ := f.reg.OwnerOf(collection, 7); owner != trader {
		t.Fatalf("item 7 should not have moved, owner %s", owner.Hex())
	}
}

// reentrantCustody re-enters the engine from inside a transfer, emulating a
// malicious transfer callback.
type reentrantCustody struct {
	inner    Custody
	eng      *Engine
	listing  uint64
	observed error
	armed    bool
}

func (c *reentrantCustody) Transfer(from, to common.Address, collection common.Address, itemID uint64) error {
	if c.armed {
		c.armed = false
		_, c.observed = c.eng.BuyAny(from, c.listing, 1, uint256.NewInt(1000))
	}
	return c.inner.Transfer(from, to, collection, itemID)
}

func (c *reentrantCustody) Guard(account common.Address, hook func(itemID uint64) error) {
	c.inner.Guard(account, hook)
}

func TestReentrantCallBlocked(t *testing.T) {
	reg := custody.New()
	led := ledger.New()
	feeAuth, err := fees.NewStatic(nil, feeRecipient)
	if err != nil {
		t.Fatalf("fee authority: %v", err)
	}
	wrapped := &reentrantCustody{inner: reg}
	eng := New(nil, wrapped, led, feeAuth, access.NewSingleController(controller))
	wrapped.eng = eng

	c := stubCurve{sell: quote(80, 1, 0), buy: quote(120, 1, 0)}
	index, err := eng.RegisterListing(controller, ListingParams{
		Collection: collection,
		Curve:      c,
		CurveName:  "stub",
		PoolType:   PoolTypeTrade,
		SpotPrice:  uint256.NewInt(100),
		Delta:      uint256.NewInt(10),
	})
	if err != nil {
		t.Fatalf("register listing: %v", err)
	}
	view, err := eng.Listing(index)
	if err != nil {
		t.Fatalf("listing view: %v", err)
	}
	led.Mint(view.Account, uint256.NewInt(100))
	reg.SetOwner(collection, 7, trader)

	wrapped.listing = index
	wrapped.armed = true
	if _, err := eng.SellExact(trader, index, []uint64{7}, nil); err != nil {
		t.Fatalf("sell exact: %v", err)
	}
	if !errors.Is(wrapped.observed, ErrReentrancy) {
		t.Fatalf("expected inner ErrReentrancy, got %v", wrapped.observed)
	}
}
