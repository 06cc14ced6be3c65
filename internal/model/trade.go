package model

// TradeRecord is one settled swap for storage. Side is from the trader's
// perspective: "buy" means items left the pool, "sell" means items entered.
type TradeRecord struct {
	TradeID      string   `json:"trade_id"`
	ListingIndex uint64   `json:"listing_index"`
	Side         string   `json:"side"`
	Trader       string   `json:"trader"`
	ItemIDs      []uint64 `json:"item_ids"`
	Amount       string   `json:"amount"`
	Refund       string   `json:"refund,omitempty"`
	ProtocolFee  string   `json:"protocol_fee"`
	SpotBefore   string   `json:"spot_before"`
	SpotAfter    string   `json:"spot_after"`
	Sequence     uint64   `json:"sequence"`
	ExecutedAt   string   `json:"executed_at"`
}
