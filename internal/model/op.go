package model

// Op is one entry of the operation log consumed by replay. Fields beyond
// Seq, Kind and Caller are populated per kind; amounts are decimal strings.
type Op struct {
	Seq        uint64   `json:"seq"`
	Kind       string   `json:"kind"`
	Caller     string   `json:"caller"`
	Listing    uint64   `json:"listing,omitempty"`
	Collection string   `json:"collection,omitempty"`
	Curve      string   `json:"curve,omitempty"`
	PoolType   string   `json:"pool_type,omitempty"`
	SpotPrice  string   `json:"spot_price,omitempty"`
	Delta      string   `json:"delta,omitempty"`
	Fee        string   `json:"fee,omitempty"`
	ItemIDs    []uint64 `json:"item_ids,omitempty"`
	Count      uint64   `json:"count,omitempty"`
	Amount     string   `json:"amount,omitempty"`
	MinOut     string   `json:"min_out,omitempty"`
}

// OpError records an operation that aborted during replay.
type OpError struct {
	Seq   uint64 `json:"seq"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}
