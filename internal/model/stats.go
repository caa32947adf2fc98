package model

// PoolStats is the cumulative statistics row derived from the event stream.
// Amounts are decimal strings.
type PoolStats struct {
	Pool          string `json:"pool"`
	SwapCount     uint64 `json:"swap_count"`
	AddCount      uint64 `json:"add_count"`
	RemoveCount   uint64 `json:"remove_count"`
	VolumeA       string `json:"volume_a"`
	VolumeB       string `json:"volume_b"`
	NetLiquidityA string `json:"net_liquidity_a"`
	NetLiquidityB string `json:"net_liquidity_b"`
	LastSequence  uint64 `json:"last_sequence"`
	LastTimestamp uint64 `json:"last_timestamp"`
}
