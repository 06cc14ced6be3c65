package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Side is the trade direction from the trader's perspective.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Receipt summarizes a settled swap.
type Receipt struct {
	TradeID     common.Hash
	Listing     uint64
	Side        Side
	Trader      common.Address
	ItemIDs     []uint64
	Amount      *uint256.Int
	Refund      *uint256.Int
	ProtocolFee *uint256.Int
	SpotBefore  *uint256.Int
	SpotAfter   *uint256.Int
	Sequence    uint64
}

// BuyAny buys count items from a listing, selected by the pool in inventory
// enumeration order. The caller tenders an amount; the difference above the
// quoted input is refunded.
func (e *Engine) BuyAny(caller common.Address, index uint64, count uint64, tendered *uint256.Int) (*Receipt, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.endCall()

	l, err := e.listing(index)
	if err != nil {
		return nil, err
	}
	if count == 0 || count > uint64(l.inventory.Len()) {
		return nil, fmt.Errorf("requested %d of %d held: %w", count, l.inventory.Len(), ErrInvalidCount)
	}
	return e.settleBuy(l, index, caller, l.inventory.First(int(count)), tendered)
}

// BuyExact buys the listed item IDs from a listing. Absence of any one ID
// aborts the entire call with no partial transfer.
func (e *Engine) BuyExact(caller common.Address, index uint64, itemIDs []uint64, tendered *uint256.Int) (*Receipt, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.endCall()

	l, err := e.listing(index)
	if err != nil {
		return nil, err
	}
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("no items requested: %w", ErrInvalidCount)
	}
	return e.settleBuy(l, index, caller, itemIDs, tendered)
}

// settleBuy executes the shared buy path. Settlement order is fixed:
// price update, inventory mutation, payment and refund, protocol fee. A
// failure at any step rolls back everything before it.
func (e *Engine) settleBuy(l *listingState, index uint64, caller common.Address, itemIDs []uint64, tendered *uint256.Int) (*Receipt, error) {
	if l.poolType == PoolTypeBuy {
		return nil, fmt.Errorf("listing %d is buy-only: %w", index, ErrWrongPoolType)
	}
	tendered = orZero(tendered)

	q, err := l.curve.BuyQuote(l.spotPrice, l.delta, uint64(len(itemIDs)), l.fee, e.fees.ProtocolFeeMultiplier())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCurve, err)
	}
	if tendered.Lt(q.Amount) {
		return nil, fmt.Errorf("tendered %s below quote %s: %w", tendered.Dec(), q.Amount.Dec(), ErrInsufficientPayment)
	}

	j := &journal{}
	spotBefore := l.spotPrice
	l.spotPrice = q.NewSpotPrice.Clone()
	j.record(func() { l.spotPrice = spotBefore })

	if err := e.pushItems(j, l, caller, itemIDs); err != nil {
		e.rollback(j)
		return nil, err
	}

	refund := new(uint256.Int).Sub(tendered, q.Amount)
	if err := e.pay(j, caller, l.account, tendered); err != nil {
		e.rollback(j)
		return nil, err
	}
	if err := e.pay(j, l.account, caller, refund); err != nil {
		e.rollback(j)
		return nil, err
	}
	if err := e.pay(j, l.account, e.fees.ProtocolFeeRecipient(), q.ProtocolFee); err != nil {
		e.rollback(j)
		return nil, err
	}
	j.commit()

	e.seq++
	rcpt := &Receipt{
		TradeID:     tradeID(index, e.seq, SideBuy, itemIDs),
		Listing:     index,
		Side:        SideBuy,
		Trader:      caller,
		ItemIDs:     append([]uint64(nil), itemIDs...),
		Amount:      q.Amount,
		Refund:      refund,
		ProtocolFee: q.ProtocolFee,
		SpotBefore:  spotBefore.Clone(),
		SpotAfter:   l.spotPrice.Clone(),
		Sequence:    e.seq,
	}
	e.log.Info("buy settled",
		zap.Uint64("listing", index),
		zap.String("trader", caller.Hex()),
		zap.Int("items", len(itemIDs)),
		zap.String("input", q.Amount.Dec()),
		zap.String("refund", refund.Dec()),
		zap.String("protocol_fee", q.ProtocolFee.Dec()),
	)
	return rcpt, nil
}

// SellExact sells the listed item IDs into a listing. The call aborts with
// ErrSlippageExceeded when the quoted output is below minOutput.
func (e *Engine) SellExact(caller common.Address, index uint64, itemIDs []uint64, minOutput *uint256.Int) (*Receipt, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.endCall()

	l, err := e.listing(index)
	if err != nil {
		return nil, err
	}
	if l.poolType == PoolTypeSell {
		return nil, fmt.Errorf("listing %d is sell-only: %w", index, ErrWrongPoolType)
	}
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("no items offered: %w", ErrInvalidCount)
	}
	minOutput = orZero(minOutput)

	q, err := l.curve.SellQuote(l.spotPrice, l.delta, uint64(len(itemIDs)), l.fee, e.fees.ProtocolFeeMultiplier())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCurve, err)
	}
	if q.Amount.Lt(minOutput) {
		return nil, fmt.Errorf("output %s below minimum %s: %w", q.Amount.Dec(), minOutput.Dec(), ErrSlippageExceeded)
	}

	j := &journal{}
	spotBefore := l.spotPrice
	l.spotPrice = q.NewSpotPrice.Clone()
	j.record(func() { l.spotPrice = spotBefore })

	if err := e.pullItems(j, l, caller, itemIDs, receiveActive); err != nil {
		e.rollback(j)
		return nil, err
	}
	if err := e.pay(j, l.account, caller, q.Amount); err != nil {
		e.rollback(j)
		return nil, err
	}
	if err := e.pay(j, l.account, e.fees.ProtocolFeeRecipient(), q.ProtocolFee); err != nil {
		e.rollback(j)
		return nil, err
	}
	j.commit()

	e.seq++
	rcpt := &Receipt{
		TradeID:     tradeID(index, e.seq, SideSell, itemIDs),
		Listing:     index,
		Side:        SideSell,
		Trader:      caller,
		ItemIDs:     append([]uint64(nil), itemIDs...),
		Amount:      q.Amount,
		Refund:      uint256.NewInt(0),
		ProtocolFee: q.ProtocolFee,
		SpotBefore:  spotBefore.Clone(),
		SpotAfter:   l.spotPrice.Clone(),
		Sequence:    e.seq,
	}
	e.log.Info("sell settled",
		zap.Uint64("listing", index),
		zap.String("trader", caller.Hex()),
		zap.Int("items", len(itemIDs)),
		zap.String("output", q.Amount.Dec()),
		zap.String("protocol_fee", q.ProtocolFee.Dec()),
	)
	return rcpt, nil
}

// tradeID derives a deterministic identifier for a settled swap.
func tradeID(index, seq uint64, side Side, itemIDs []uint64) common.Hash {
	buf := make([]byte, 0, 17+8*len(itemIDs))
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], index)
	buf = append(buf, scratch[:]...)
	binary.BigEndian.PutUint64(scratch[:], seq)
	buf = append(buf, scratch[:]...)
	buf = append(buf, byte(side))
	for _, id := range itemIDs {
		binary.BigEndian.PutUint64(scratch[:], id)
		buf = append(buf, scratch[:]...)
	}
	return crypto.Keccak256Hash(buf)
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return uint256.NewInt(0)
	}
	return x
}
