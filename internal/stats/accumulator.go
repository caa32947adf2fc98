// Package stats aggregates the pool's event stream into cumulative
// statistics for observers. It consumes the same records the storage sinks
// persist and never feeds back into the engine.
package stats

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/pgianferro/swap-dapp/internal/model"
)

// Accumulator holds cumulative values for one pool. It implements the
// engine's Emitter and is safe for concurrent use.
type Accumulator struct {
	mu            sync.Mutex
	pool          string
	assetA        string
	assetB        string
	swapCount     uint64
	addCount      uint64
	removeCount   uint64
	volumeA       *big.Int
	volumeB       *big.Int
	netLiquidityA *big.Int
	netLiquidityB *big.Int
	lastSequence  uint64
	lastTimestamp uint64
}

func NewAccumulator(pool, assetA, assetB string) *Accumulator {
	return &Accumulator{
		pool:          pool,
		assetA:        assetA,
		assetB:        assetB,
		volumeA:       big.NewInt(0),
		volumeB:       big.NewInt(0),
		netLiquidityA: big.NewInt(0),
		netLiquidityB: big.NewInt(0),
	}
}

// Emit applies a record, dropping it silently on decode failure so a bad
// record never disturbs serving.
func (a *Accumulator) Emit(record model.EventRecord) {
	_ = a.AddEvent(record)
}

// AddEvent applies one event record to the running totals.
func (a *Accumulator) AddEvent(record model.EventRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if record.Sequence > a.lastSequence {
		a.lastSequence = record.Sequence
	}
	if record.Timestamp > a.lastTimestamp {
		a.lastTimestamp = record.Timestamp
	}

	switch record.EventName {
	case model.EventSwap:
		var swap model.SwapData
		if err := json.Unmarshal(record.Data, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		return a.applySwap(swap)
	case model.EventLiquidityAdded:
		var added model.LiquidityAddedData
		if err := json.Unmarshal(record.Data, &added); err != nil {
			return fmt.Errorf("decode liquidity_added: %w", err)
		}
		return a.applyAdded(added)
	case model.EventLiquidityRemoved:
		var removed model.LiquidityRemovedData
		if err := json.Unmarshal(record.Data, &removed); err != nil {
			return fmt.Errorf("decode liquidity_removed: %w", err)
		}
		return a.applyRemoved(removed)
	default:
		return nil
	}
}

// applySwap books both legs of the trade to the asset they moved on, so each
// volume column is the total amount of that asset that crossed the pool.
func (a *Accumulator) applySwap(swap model.SwapData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}
	a.swapCount++
	if swap.TokenIn == a.assetA {
		a.volumeA.Add(a.volumeA, amountIn)
		a.volumeB.Add(a.volumeB, amountOut)
	} else {
		a.volumeB.Add(a.volumeB, amountIn)
		a.volumeA.Add(a.volumeA, amountOut)
	}
	return nil
}

func (a *Accumulator) applyAdded(added model.LiquidityAddedData) error {
	amountA, err := parseBigInt(added.AmountA)
	if err != nil {
		return err
	}
	amountB, err := parseBigInt(added.AmountB)
	if err != nil {
		return err
	}
	a.addCount++
	a.netLiquidityA.Add(a.netLiquidityA, amountA)
	a.netLiquidityB.Add(a.netLiquidityB, amountB)
	return nil
}

func (a *Accumulator) applyRemoved(removed model.LiquidityRemovedData) error {
	amountA, err := parseBigInt(removed.AmountA)
	if err != nil {
		return err
	}
	amountB, err := parseBigInt(removed.AmountB)
	if err != nil {
		return err
	}
	a.removeCount++
	a.netLiquidityA.Sub(a.netLiquidityA, amountA)
	a.netLiquidityB.Sub(a.netLiquidityB, amountB)
	return nil
}

// Snapshot returns the current totals as a storage row.
func (a *Accumulator) Snapshot() model.PoolStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return model.PoolStats{
		Pool:          a.pool,
		SwapCount:     a.swapCount,
		AddCount:      a.addCount,
		RemoveCount:   a.removeCount,
		VolumeA:       a.volumeA.String(),
		VolumeB:       a.volumeB.String(),
		NetLiquidityA: a.netLiquidityA.String(),
		NetLiquidityB: a.netLiquidityB.String(),
		LastSequence:  a.lastSequence,
		LastTimestamp: a.lastTimestamp,
	}
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("parse amount %q", value)
	}
	return parsed, nil
}
