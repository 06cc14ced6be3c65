package model

// ListingRecord is the durable view of one listing for storage: curve and
// price parameters plus the item IDs currently held by the pool.
type ListingRecord struct {
	Index      uint64   `json:"index"`
	Collection string   `json:"collection"`
	Curve      string   `json:"curve"`
	PoolType   string   `json:"pool_type"`
	SpotPrice  string   `json:"spot_price"`
	Delta      string   `json:"delta"`
	Fee        string   `json:"fee"`
	Account    string   `json:"account"`
	Inventory  []uint64 `json:"inventory"`
}
