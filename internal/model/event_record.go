package model

import "encoding/json"

// EventRecord is the normalized representation of a pool event for storage
// and aggregation.
type EventRecord struct {
	Pool      string          `json:"pool"`
	EventName string          `json:"event_name"`
	Sequence  uint64          `json:"sequence"`
	Timestamp uint64          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}
