package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"curvepool/internal/curve"
)

// ListingParams carries the full parameter set for registering or updating
// a listing.
type ListingParams struct {
	Collection common.Address
	Curve      curve.Curve
	CurveName  string
	PoolType   PoolType
	SpotPrice  *uint256.Int
	Delta      *uint256.Int
	Fee        *uint256.Int
}

func (e *Engine) requireController(caller common.Address) error {
	if !e.access.IsController(caller) {
		return fmt.Errorf("caller %s: %w", caller.Hex(), ErrNotController)
	}
	return nil
}

// validateParams enforces the pool-type/fee constraint and asks the curve
// to accept the delta.
func validateParams(p ListingParams) error {
	if p.Curve == nil {
		return fmt.Errorf("%w: no curve supplied", ErrCurve)
	}
	fee := orZero(p.Fee)
	switch p.PoolType {
	case PoolTypeBuy, PoolTypeSell:
		if !fee.IsZero() {
			return fmt.Errorf("%s listings must not charge a fee: %w", p.PoolType, ErrFeeConstraint)
		}
	case PoolTypeTrade:
		if !fee.Lt(MaxFee) {
			return fmt.Errorf("fee %s must be below %s: %w", fee.Dec(), MaxFee.Dec(), ErrFeeConstraint)
		}
	default:
		return fmt.Errorf("unknown pool type %d", int(p.PoolType))
	}
	if !p.Curve.ValidateDelta(orZero(p.Delta)) {
		return fmt.Errorf("%w: curve rejected delta %s", ErrCurve, orZero(p.Delta).Dec())
	}
	return nil
}

// RegisterListing creates a listing and returns its stable index. The
// listing's settlement account is derived from the index and guarded
// against unsolicited inbound item transfers.
func (e *Engine) RegisterListing(caller common.Address, p ListingParams) (uint64, error) {
	if err := e.begin(); err != nil {
		return 0, err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return 0, err
	}
	if err := validateParams(p); err != nil {
		return 0, err
	}

	index := e.next
	e.next++
	account := listingAccount(index)
	e.listings[index] = &listingState{
		collection: p.Collection,
		curve:      p.Curve,
		curveName:  p.CurveName,
		poolType:   p.PoolType,
		spotPrice:  orZero(p.SpotPrice).Clone(),
		delta:      orZero(p.Delta).Clone(),
		fee:        orZero(p.Fee).Clone(),
		account:    account,
		inventory:  newInventory(),
	}
	e.custody.Guard(account, func(uint64) error { return e.guard.observe() })

	e.log.Info("listing registered",
		zap.Uint64("index", index),
		zap.String("collection", p.Collection.Hex()),
		zap.String("curve", p.CurveName),
		zap.String("pool_type", p.PoolType.String()),
	)
	return index, nil
}

// UpdateListing replaces a listing's parameters in place. The index, the
// settlement account and the held inventory are retained.
func (e *Engine) UpdateListing(caller common.Address, index uint64, p ListingParams) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}
	if err := validateParams(p); err != nil {
		return err
	}

	l.collection = p.Collection
	l.curve = p.Curve
	l.curveName = p.CurveName
	l.poolType = p.PoolType
	l.spotPrice = orZero(p.SpotPrice).Clone()
	l.delta = orZero(p.Delta).Clone()
	l.fee = orZero(p.Fee).Clone()
	return nil
}

// ChangeSpotPrice sets the spot price directly, bypassing the curve.
func (e *Engine) ChangeSpotPrice(caller common.Address, index uint64, price *uint256.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}
	l.spotPrice = orZero(price).Clone()
	return nil
}

// ChangeDelta sets the step parameter, re-validated against the curve.
func (e *Engine) ChangeDelta(caller common.Address, index uint64, delta *uint256.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}
	delta = orZero(delta)
	if !l.curve.ValidateDelta(delta) {
		return fmt.Errorf("%w: curve rejected delta %s", ErrCurve, delta.Dec())
	}
	l.delta = delta.Clone()
	return nil
}

// ChangeFee sets the trade fee. Only Trade listings carry a fee, and it
// must stay below MaxFee.
func (e *Engine) ChangeFee(caller common.Address, index uint64, fee *uint256.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}
	fee = orZero(fee)
	if l.poolType != PoolTypeTrade {
		return fmt.Errorf("%s listings must not charge a fee: %w", l.poolType, ErrFeeConstraint)
	}
	if !fee.Lt(MaxFee) {
		return fmt.Errorf("fee %s must be below %s: %w", fee.Dec(), MaxFee.Dec(), ErrFeeConstraint)
	}
	l.fee = fee.Clone()
	return nil
}

// DepositItems transfers items from the controller into pool custody and
// inserts them into the listing's inventory.
func (e *Engine) DepositItems(caller common.Address, index uint64, itemIDs []uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}

	j := &journal{}
	if err := e.pullItems(j, l, caller, itemIDs, receiveActive); err != nil {
		e.rollback(j)
		return err
	}
	j.commit()
	return nil
}

// WithdrawItems transfers items out of pool custody to the controller,
// failing with ErrItemNotHeld if any ID is absent from the inventory.
func (e *Engine) WithdrawItems(caller common.Address, index uint64, itemIDs []uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.endCall()

	if err := e.requireController(caller); err != nil {
		return err
	}
	l, err := e.listing(index)
	if err != nil {
		return err
	}

	j := &journal{}
	if err := e.pushItems(j, l, caller, itemIDs); err != nil {
		e.rollback(j)
		return err
	}
	j.commit()
	return nil
}
