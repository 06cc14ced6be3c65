package engine

// inventory is an insertion-ordered set of item IDs. Enumeration follows
// insertion order; no price ordering is implied or promised.
type inventory struct {
	order []uint64
	index map[uint64]struct{}
}

func newInventory() *inventory {
	return &inventory{index: make(map[uint64]struct{})}
}

func (inv *inventory) Len() int {
	return len(inv.order)
}

func (inv *inventory) Has(id uint64) bool {
	_, ok := inv.index[id]
	return ok
}

// Add inserts an ID. Inserting an ID already present is a no-op.
func (inv *inventory) Add(id uint64) {
	if inv.Has(id) {
		return
	}
	inv.index[id] = struct{}{}
	inv.order = append(inv.order, id)
}

// Remove deletes an ID and returns the position it held, so that an undo
// can reinstate it without disturbing the enumeration order. It reports
// false when the ID is absent.
func (inv *inventory) Remove(id uint64) (int, bool) {
	if !inv.Has(id) {
		return -1, false
	}
	delete(inv.index, id)
	for i, held := range inv.order {
		if held == id {
			inv.order = append(inv.order[:i], inv.order[i+1:]...)
			return i, true
		}
	}
	return -1, false
}

// Insert places an ID at a given position, clamped to the current bounds.
// Inserting an ID already present is a no-op.
func (inv *inventory) Insert(pos int, id uint64) {
	if inv.Has(id) {
		return
	}
	if pos < 0 {
		pos = 0
	}
	if pos > len(inv.order) {
		pos = len(inv.order)
	}
	inv.index[id] = struct{}{}
	inv.order = append(inv.order, 0)
	copy(inv.order[pos+1:], inv.order[pos:])
	inv.order[pos] = id
}

// First returns the first n IDs in insertion order.
func (inv *inventory) First(n int) []uint64 {
	if n > len(inv.order) {
		n = len(inv.order)
	}
	out := make([]uint64, n)
	copy(out, inv.order[:n])
	return out
}

// Items returns a copy of all held IDs in insertion order.
func (inv *inventory) Items() []uint64 {
	out := make([]uint64, len(inv.order))
	copy(out, inv.order)
	return out
}
