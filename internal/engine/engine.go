// Package engine implements the swap and admin surface of the pool: per
// listing price state, the inventory of held items, and the atomic swap
// operations that consult the bonding curve, update the price, move items
// and settle payment with fee skimming.
package engine

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"curvepool/internal/curve"
	"curvepool/internal/model"
)

// MaxFee caps the trade fee of Trade listings at 90% (wad-scaled).
var MaxFee = uint256.NewInt(900_000_000_000_000_000)

// Custody settles item transfers. Transfers revert on ownership mismatch;
// Guard registers the engine's inbound observer on a pool account.
type Custody interface {
	Transfer(from, to common.Address, collection common.Address, itemID uint64) error
	Guard(account common.Address, hook func(itemID uint64) error)
}

// Ledger settles the payment asset. Transfers fail on insufficient balance.
type Ledger interface {
	Transfer(from, to common.Address, amount *uint256.Int) error
}

// FeeAuthority supplies the protocol-wide fee rate and payout destination.
type FeeAuthority interface {
	ProtocolFeeMultiplier() *uint256.Int
	ProtocolFeeRecipient() common.Address
}

// AccessPolicy gates admin entry points.
type AccessPolicy interface {
	IsController(who common.Address) bool
}

type listingState struct {
	collection common.Address
	curve      curve.Curve
	curveName  string
	poolType   PoolType
	spotPrice  *uint256.Int
	delta      *uint256.Int
	fee        *uint256.Int
	account    common.Address
	inventory  *inventory
}

// Engine orchestrates swaps and admin mutations over the registered
// listings. Execution is sequential and call-atomic: every public operation
// either completes in full or leaves no observable state change.
type Engine struct {
	log     *zap.Logger
	custody Custody
	ledger  Ledger
	fees    FeeAuthority
	access  AccessPolicy

	listings map[uint64]*listingState
	next     uint64
	guard    receiveGuard
	busy     bool
	seq      uint64
}

func New(log *zap.Logger, custody Custody, ledger Ledger, fees FeeAuthority, access AccessPolicy) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:      log,
		custody:  custody,
		ledger:   ledger,
		fees:     fees,
		access:   access,
		listings: make(map[uint64]*listingState),
	}
}

// begin takes the call-scoped mutual-exclusion guard. Transfer callbacks
// that try to re-enter the engine observe ErrReentrancy.
func (e *Engine) begin() error {
	if e.busy {
		return ErrReentrancy
	}
	e.busy = true
	return nil
}

func (e *Engine) endCall() {
	e.busy = false
}

func (e *Engine) listing(index uint64) (*listingState, error) {
	l, ok := e.listings[index]
	if !ok {
		return nil, fmt.Errorf("listing %d: %w", index, ErrUnknownListing)
	}
	return l, nil
}

// rollback reverts a journal. The receive window stays open while undo
// actions run so that returning items to pool custody is not rejected as
// unsolicited.
func (e *Engine) rollback(j *journal) {
	e.guard.begin()
	defer e.guard.end()
	j.revert()
}

// pullItems moves items from a trader into pool custody and inventory,
// journaling an undo per item. The receive mode is explicit: only
// receiveActive opens the guard window for the inbound transfers.
func (e *Engine) pullItems(j *journal, l *listingState, from common.Address, ids []uint64, mode receiveMode) error {
	if mode == receiveActive {
		e.guard.begin()
		defer e.guard.end()
	}
	for _, id := range ids {
		if err := e.custody.Transfer(from, l.account, l.collection, id); err != nil {
			return err
		}
		id := id
		j.record(func() { _ = e.custody.Transfer(l.account, from, l.collection, id) })
		l.inventory.Add(id)
		j.record(func() { l.inventory.Remove(id) })
	}
	return nil
}

// pushItems moves items out of inventory and pool custody to a recipient,
// journaling an undo per item. Any absent ID aborts with ErrItemNotHeld.
func (e *Engine) pushItems(j *journal, l *listingState, to common.Address, ids []uint64) error {
	for _, id := range ids {
		pos, ok := l.inventory.Remove(id)
		if !ok {
			return fmt.Errorf("item %d: %w", id, ErrItemNotHeld)
		}
		pos, id := pos, id
		j.record(func() { l.inventory.Insert(pos, id) })
		if err := e.custody.Transfer(l.account, to, l.collection, id); err != nil {
			return err
		}
		j.record(func() { _ = e.custody.Transfer(to, l.account, l.collection, id) })
	}
	return nil
}

// pay journals a ledger transfer.
func (e *Engine) pay(j *journal, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if err := e.ledger.Transfer(from, to, amount); err != nil {
		return err
	}
	amount = amount.Clone()
	j.record(func() { _ = e.ledger.Transfer(to, from, amount) })
	return nil
}

// listingAccount derives the deterministic settlement account for a listing.
func listingAccount(index uint64) common.Address {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], index)
	hash := crypto.Keccak256([]byte("curvepool/listing"), buf[:])
	return common.BytesToAddress(hash[12:])
}

// ListingView is a read-only copy of one listing's durable state.
type ListingView struct {
	Index      uint64
	Collection common.Address
	CurveName  string
	PoolType   PoolType
	SpotPrice  *uint256.Int
	Delta      *uint256.Int
	Fee        *uint256.Int
	Account    common.Address
	Inventory  []uint64
}

// Listing returns the current state of one listing.
func (e *Engine) Listing(index uint64) (ListingView, error) {
	l, err := e.listing(index)
	if err != nil {
		return ListingView{}, err
	}
	return ListingView{
		Index:      index,
		Collection: l.collection,
		CurveName:  l.curveName,
		PoolType:   l.poolType,
		SpotPrice:  l.spotPrice.Clone(),
		Delta:      l.delta.Clone(),
		Fee:        l.fee.Clone(),
		Account:    l.account,
		Inventory:  l.inventory.Items(),
	}, nil
}

// Snapshot returns storage records for every listing, ordered by index.
func (e *Engine) Snapshot() []model.ListingRecord {
	indexes := make([]uint64, 0, len(e.listings))
	for index := range e.listings {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	records := make([]model.ListingRecord, 0, len(indexes))
	for _, index := range indexes {
		l := e.listings[index]
		records = append(records, model.ListingRecord{
			Index:      index,
			Collection: l.collection.Hex(),
			Curve:      l.curveName,
			PoolType:   l.poolType.String(),
			SpotPrice:  l.spotPrice.Dec(),
			Delta:      l.delta.Dec(),
			Fee:        l.fee.Dec(),
			Account:    l.account.Hex(),
			Inventory:  l.inventory.Items(),
		})
	}
	return records
}
