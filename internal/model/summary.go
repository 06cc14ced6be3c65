package model

// ListingSummary aggregates the settled trades of one listing: swap counts
// per side, payment volume in each direction, protocol fees skimmed, and
// the spot price range the listing traded through.
type ListingSummary struct {
	ListingIndex uint64 `json:"listing_index"`
	BuyCount     uint64 `json:"buy_count"`
	SellCount    uint64 `json:"sell_count"`
	ItemsOut     uint64 `json:"items_out"`
	ItemsIn      uint64 `json:"items_in"`
	VolumeIn     string `json:"volume_in"`
	VolumeOut    string `json:"volume_out"`
	ProtocolFees string `json:"protocol_fees"`
	SpotMin      string `json:"spot_min"`
	SpotMax      string `json:"spot_max"`
	SpotLast     string `json:"spot_last"`
	FirstSeq     uint64 `json:"first_seq"`
	LastSeq      uint64 `json:"last_seq"`
}
