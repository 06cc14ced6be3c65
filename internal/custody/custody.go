// Package custody tracks ownership of uniquely-identified items and settles
// transfers between accounts. Accounts may be guarded: inbound transfers to
// a guarded account are offered to its hook first, and the whole transfer
// aborts when the hook rejects.
package custody

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var ErrNotOwner = errors.New("custody: transferor does not own item")

// Registry is an in-memory ownership registry keyed by collection and item ID.
type Registry struct {
	mu     sync.Mutex
	owners map[common.Address]map[uint64]common.Address
	hooks  map[common.Address]func(itemID uint64) error
}

func New() *Registry {
	return &Registry{
		owners: make(map[common.Address]map[uint64]common.Address),
		hooks:  make(map[common.Address]func(itemID uint64) error),
	}
}

// SetOwner records ownership without a transfer. Used to seed initial state.
func (r *Registry) SetOwner(collection common.Address, itemID uint64, owner common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.owners[collection]
	if !ok {
		items = make(map[uint64]common.Address)
		r.owners[collection] = items
	}
	items[itemID] = owner
}

// OwnerOf returns the current owner of an item.
func (r *Registry) OwnerOf(collection common.Address, itemID uint64) (common.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.owners[collection]
	if !ok {
		return common.Address{}, false
	}
	owner, ok := items[itemID]
	return owner, ok
}

// Guard registers hook to observe inbound transfers settling on account.
// A non-nil return from the hook aborts the transfer.
func (r *Registry) Guard(account common.Address, hook func(itemID uint64) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[account] = hook
}

// Transfer moves an item between accounts. It fails when from does not own
// the item or when the receiving account's hook rejects the transfer.
func (r *Registry) Transfer(from, to common.Address, collection common.Address, itemID uint64) error {
	r.mu.Lock()
	items, ok := r.owners[collection]
	var owner common.Address
	if ok {
		owner, ok = items[itemID]
	}
	hook := r.hooks[to]
	r.mu.Unlock()

	if !ok || owner != from {
		return fmt.Errorf("item %d in collection %s: %w", itemID, collection.Hex(), ErrNotOwner)
	}
	if hook != nil {
		if err := hook(itemID); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[collection][itemID] = to
	return nil
}
