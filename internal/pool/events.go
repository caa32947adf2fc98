package pool

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pgianferro/swap-dapp/internal/model"
)

// Emitter receives one record per successful mutating operation. Emission is
// best-effort: the engine never fails an operation over it.
type Emitter interface {
	Emit(record model.EventRecord)
}

func (p *Pool) emitLiquidityAdded(provider, recipient common.Address, takenA, takenB, minted *uint256.Int) {
	p.emit(model.EventLiquidityAdded, model.LiquidityAddedData{
		Provider:     provider.Hex(),
		Recipient:    recipient.Hex(),
		AmountA:      takenA.Dec(),
		AmountB:      takenB.Dec(),
		SharesMinted: minted.Dec(),
	})
}

func (p *Pool) emitLiquidityRemoved(withdrawer, recipient common.Address, burned, outA, outB *uint256.Int) {
	p.emit(model.EventLiquidityRemoved, model.LiquidityRemovedData{
		Withdrawer:   withdrawer.Hex(),
		Recipient:    recipient.Hex(),
		SharesBurned: burned.Dec(),
		AmountA:      outA.Dec(),
		AmountB:      outB.Dec(),
	})
}

func (p *Pool) emitSwap(trader, recipient, tokenIn common.Address, amountIn *uint256.Int, tokenOut common.Address, amountOut *uint256.Int) {
	p.emit(model.EventSwap, model.SwapData{
		Trader:    trader.Hex(),
		Recipient: recipient.Hex(),
		TokenIn:   tokenIn.Hex(),
		AmountIn:  amountIn.Dec(),
		TokenOut:  tokenOut.Hex(),
		AmountOut: amountOut.Dec(),
	})
}

// emit runs with the operation lock held, so the sequence counter needs no
// extra synchronization.
func (p *Pool) emit(name string, data any) {
	if p.emitter == nil {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	p.seq++
	p.emitter.Emit(model.EventRecord{
		Pool:      p.addr.Hex(),
		EventName: name,
		Sequence:  p.seq,
		Timestamp: uint64(p.now().Unix()),
		Data:      payload,
	})
}
