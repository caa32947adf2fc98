package storage

import "github.com/pgianferro/swap-dapp/internal/model"

// Storage defines a sink for pool event records.
type Storage interface {
	PutEventBatch(events []model.EventRecord) error
}
