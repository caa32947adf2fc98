package model

// Event names carried in EventRecord.EventName.
const (
	EventLiquidityAdded   = "liquidity_added"
	EventLiquidityRemoved = "liquidity_removed"
	EventSwap             = "swap"
)

// LiquidityAddedData is the payload of a liquidity_added event. Amounts are
// decimal strings.
type LiquidityAddedData struct {
	Provider     string `json:"provider"`
	Recipient    string `json:"recipient"`
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
	SharesMinted string `json:"shares_minted"`
}

// LiquidityRemovedData is the payload of a liquidity_removed event.
type LiquidityRemovedData struct {
	Withdrawer   string `json:"withdrawer"`
	Recipient    string `json:"recipient"`
	SharesBurned string `json:"shares_burned"`
	AmountA      string `json:"amount_a"`
	AmountB      string `json:"amount_b"`
}

// SwapData is the payload of a swap event.
type SwapData struct {
	Trader    string `json:"trader"`
	Recipient string `json:"recipient"`
	TokenIn   string `json:"token_in"`
	AmountIn  string `json:"amount_in"`
	TokenOut  string `json:"token_out"`
	AmountOut string `json:"amount_out"`
}
