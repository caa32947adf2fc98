package storage

import (
	"go.uber.org/zap"

	"github.com/pgianferro/swap-dapp/internal/model"
)

// SinkEmitter adapts a Storage into the engine's best-effort emitter: write
// failures are logged and dropped, never surfaced to the engine.
type SinkEmitter struct {
	sink   Storage
	logger *zap.Logger
}

func NewSinkEmitter(sink Storage, logger *zap.Logger) *SinkEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SinkEmitter{sink: sink, logger: logger}
}

func (e *SinkEmitter) Emit(record model.EventRecord) {
	if err := e.sink.PutEventBatch([]model.EventRecord{record}); err != nil {
		e.logger.Warn("store pool event",
			zap.Error(err),
			zap.String("event", record.EventName),
			zap.Uint64("sequence", record.Sequence),
		)
	}
}
