package protocol

// Listing is a market board entry replicated between nodes. It carries the
// stamp metadata buyers browse without pulling the full grid definition.
type Listing struct {
	ListingID   string  `json:"listing_id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Seller      string  `json:"seller"`
	SellerID    uint64  `json:"seller_id"`
	Price       int64   `json:"price"`
	MarketValue float64 `json:"market_value,omitempty"`

	SellerFaction string  `json:"seller_faction,omitempty"`
	GridMass      float64 `json:"grid_mass,omitempty"`
	SmallGrids    int     `json:"small_grids,omitempty"`
	LargeGrids    int     `json:"large_grids,omitempty"`
	StaticGrids   int     `json:"static_grids,omitempty"`
	NumberOfGrids int     `json:"number_of_grids,omitempty"`
	NumberOfBlocks int    `json:"number_of_blocks,omitempty"`
	MaxPowerOutput float64 `json:"max_power_output,omitempty"`
	BuiltPercent   float64 `json:"built_percent,omitempty"`
	JumpDistance   float64 `json:"jump_distance,omitempty"`
	PCU            int     `json:"pcu,omitempty"`

	BlockTypeCounts map[string]int     `json:"block_type_counts,omitempty"`
	StoredResources map[string]float64 `json:"stored_resources,omitempty"`
}

// GridForSale carries the full serialized grid definition, exchanged only
// on SEND_DEFINITION / PURCHASED_GRID to keep the listing traffic light.
type GridForSale struct {
	Name       string `json:"name"`
	Definition []byte `json:"definition"`
	SellerID   uint64 `json:"seller_id"`
	BuyerID    uint64 `json:"buyer_id,omitempty"`
}

// BalanceUpdate is an account balance change. Adjustment=true pushes an
// authoritative absolute balance and is idempotent; a delta is relative and
// must be applied at most once, keyed by (account, seq).
type BalanceUpdate struct {
	Name       string `json:"name,omitempty"`
	PlatformID uint64 `json:"platform_id"`
	Amount     int64  `json:"amount"`
	Adjustment bool   `json:"adjustment,omitempty"`
	Seq        uint64 `json:"seq,omitempty"`
}

// REQUEST_ALL_ITEMS (node -> node): ask a peer to stream its board as one
// ADD_ONE per listing. Carries no payload by construction.
type RequestAllItemsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	MsgID           string `json:"msg_id"`
	Node            string `json:"node,omitempty"`
}

// ADD_ONE (node -> node): one new or refreshed listing.
type AddOneMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	MsgID           string  `json:"msg_id"`
	Node            string  `json:"node,omitempty"`
	Listing         Listing `json:"listing"`
}

// REMOVE_ONE (node -> node): a listing was withdrawn or sold out.
type RemoveOneMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	MsgID           string `json:"msg_id"`
	Node            string `json:"node,omitempty"`
	ListingID       string `json:"listing_id"`
}

// SEND_DEFINITION (node -> node): full grid data for a previewed listing,
// keyed by the listing id the data belongs to.
type SendDefinitionMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	MsgID           string      `json:"msg_id"`
	Node            string      `json:"node,omitempty"`
	ListingID       string      `json:"listing_id"`
	Grid            GridForSale `json:"grid"`
}

// PURCHASED_GRID (node -> node): a completed sale. Carries the grid for the
// buyer's node plus the balance movements of both parties.
type PurchasedGridMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	MsgID           string          `json:"msg_id"`
	Node            string          `json:"node,omitempty"`
	ListingID       string          `json:"listing_id"`
	Grid            GridForSale     `json:"grid"`
	Balances        []BalanceUpdate `json:"balances,omitempty"`
}
