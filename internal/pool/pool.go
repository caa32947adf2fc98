// Package pool implements a two-asset constant-product market maker. The pool
// owns the reserve bookkeeping for its fixed asset pair and delegates value
// movement to an asset ledger per asset and share accounting to a share
// ledger. All amount math is 256-bit with explicit overflow detection and
// floor division; rounding loss always favors the pool.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/pgianferro/swap-dapp/internal/ledger"
)

// Config carries the collaborators and identity of a pool.
type Config struct {
	// Address is the pool's own account on the asset ledgers.
	Address common.Address
	AssetA  common.Address
	AssetB  common.Address
	// TokenA and TokenB are asset-ledger handles bound to Address.
	TokenA ledger.AssetLedger
	TokenB ledger.AssetLedger
	Shares ledger.ShareLedger
	// Emitter receives one record per successful mutating operation. Optional.
	Emitter Emitter
	// Now is the clock used for deadline checks. Defaults to time.Now.
	Now func() time.Time
}

// Pool is the engine state. The pair is fixed for the pool's lifetime; the
// reserves are mutated only by ProvideLiquidity, WithdrawLiquidity and
// SwapExact. Share balances live exclusively in the share ledger.
type Pool struct {
	addr   common.Address
	assetA common.Address
	assetB common.Address
	tokenA ledger.AssetLedger
	tokenB ledger.AssetLedger
	shares ledger.ShareLedger

	emitter Emitter
	now     func() time.Time

	// op admits one mutating operation at a time; a second concurrent or
	// re-entrant call is rejected, not queued.
	op sync.Mutex

	// mu guards the reserves so readers observe both updated together.
	mu       sync.RWMutex
	reserveA uint256.Int
	reserveB uint256.Int

	seq uint64
}

func New(cfg Config) (*Pool, error) {
	if cfg.AssetA == cfg.AssetB {
		return nil, fmt.Errorf("pool assets must differ")
	}
	if cfg.TokenA == nil || cfg.TokenB == nil || cfg.Shares == nil {
		return nil, fmt.Errorf("asset and share ledgers are required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pool{
		addr:    cfg.Address,
		assetA:  cfg.AssetA,
		assetB:  cfg.AssetB,
		tokenA:  cfg.TokenA,
		tokenB:  cfg.TokenB,
		shares:  cfg.Shares,
		emitter: cfg.Emitter,
		now:     now,
	}, nil
}

// Address returns the pool's account on the asset ledgers.
func (p *Pool) Address() common.Address { return p.addr }

// Assets returns the fixed pair in pool order.
func (p *Pool) Assets() (common.Address, common.Address) { return p.assetA, p.assetB }

// ReserveA returns the current holding of asset A.
func (p *Pool) ReserveA() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone()
}

// ReserveB returns the current holding of asset B.
func (p *Pool) ReserveB() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveB.Clone()
}

// Reserves returns both reserves from a single snapshot.
func (p *Pool) Reserves() (*uint256.Int, *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserveA.Clone(), p.reserveB.Clone()
}

// TotalShares returns the LP shares outstanding, as reported by the share
// ledger.
func (p *Pool) TotalShares(ctx context.Context) (*uint256.Int, error) {
	supply, err := p.shares.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: total supply: %v", ErrTransferFailed, err)
	}
	return supply, nil
}

// GetPrice returns reserveB * PriceScale / reserveA, the fixed-point price of
// asset A in units of asset B. The pair is validated as a set: either order
// is accepted and the orientation of the result does not change.
func (p *Pool) GetPrice(assetX, assetY common.Address) (*uint256.Int, error) {
	if !(assetX == p.assetA && assetY == p.assetB) && !(assetX == p.assetB && assetY == p.assetA) {
		return nil, ErrInvalidPair
	}
	reserveA, reserveB := p.Reserves()
	if reserveA.IsZero() {
		return nil, ErrNoReserve
	}
	return mulDiv(reserveB, PriceScale, reserveA)
}

// ProvideParams are the inputs to ProvideLiquidity. AssetX and AssetY must
// name the pool pair in its fixed order. Nil amounts are treated as zero.
type ProvideParams struct {
	AssetX    common.Address
	AssetY    common.Address
	DesiredA  *uint256.Int
	DesiredB  *uint256.Int
	MinA      *uint256.Int
	MinB      *uint256.Int
	Recipient common.Address
	Deadline  time.Time
}

// ProvideResult reports what a deposit actually took and minted.
type ProvideResult struct {
	TakenA *uint256.Int
	TakenB *uint256.Int
	Minted *uint256.Int
}

// ProvideLiquidity deposits up to the desired amounts at the pool's current
// ratio and mints shares to the recipient. On an empty pool any ratio is
// accepted and the deposit bootstraps the pool.
func (p *Pool) ProvideLiquidity(ctx context.Context, caller common.Address, params ProvideParams) (ProvideResult, error) {
	if !p.op.TryLock() {
		return ProvideResult{}, ErrReentrancy
	}
	defer p.op.Unlock()

	if !params.Deadline.After(p.now()) {
		return ProvideResult{}, ErrDeadlineExpired
	}
	if params.AssetX != p.assetA || params.AssetY != p.assetB {
		return ProvideResult{}, ErrBadPair
	}

	desiredA := orZero(params.DesiredA)
	desiredB := orZero(params.DesiredB)
	minA := orZero(params.MinA)
	minB := orZero(params.MinB)

	reserveA, reserveB := p.Reserves()
	totalShares, err := p.TotalShares(ctx)
	if err != nil {
		return ProvideResult{}, err
	}

	takenA, takenB, err := matchDeposit(desiredA, desiredB, minA, minB, reserveA, reserveB)
	if err != nil {
		return ProvideResult{}, err
	}

	minted, err := sharesToMint(takenA, takenB, reserveA, reserveB, totalShares)
	if err != nil {
		return ProvideResult{}, err
	}
	if minted.IsZero() {
		return ProvideResult{}, ErrZeroLiquidity
	}

	newReserveA, err := checkedAdd(reserveA, takenA)
	if err != nil {
		return ProvideResult{}, err
	}
	newReserveB, err := checkedAdd(reserveB, takenB)
	if err != nil {
		return ProvideResult{}, err
	}

	if err := p.tokenA.TransferFrom(ctx, caller, p.addr, takenA); err != nil {
		return ProvideResult{}, fmt.Errorf("%w: pull asset a: %v", ErrTransferFailed, err)
	}
	if err := p.tokenB.TransferFrom(ctx, caller, p.addr, takenB); err != nil {
		// Return the first leg so no partial deposit persists.
		_ = p.tokenA.Transfer(ctx, caller, takenA)
		return ProvideResult{}, fmt.Errorf("%w: pull asset b: %v", ErrTransferFailed, err)
	}

	p.setReserves(newReserveA, newReserveB)

	if err := p.shares.Mint(ctx, params.Recipient, minted); err != nil {
		p.setReserves(reserveA, reserveB)
		_ = p.tokenA.Transfer(ctx, caller, takenA)
		_ = p.tokenB.Transfer(ctx, caller, takenB)
		return ProvideResult{}, fmt.Errorf("%w: mint shares: %v", ErrTransferFailed, err)
	}

	p.emitLiquidityAdded(caller, params.Recipient, takenA, takenB, minted)

	return ProvideResult{TakenA: takenA, TakenB: takenB, Minted: minted}, nil
}

// matchDeposit resolves the amounts actually taken from the desired amounts
// at the current reserve ratio. On an empty pool the desired amounts are
// taken as-is.
func matchDeposit(desiredA, desiredB, minA, minB, reserveA, reserveB *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if reserveA.IsZero() && reserveB.IsZero() {
		return desiredA.Clone(), desiredB.Clone(), nil
	}

	optimalB, err := mulDiv(desiredA, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if !optimalB.Gt(desiredB) {
		if optimalB.Lt(minB) {
			return nil, nil, ErrSlippageB
		}
		return desiredA.Clone(), optimalB, nil
	}

	optimalA, err := mulDiv(desiredB, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	// Unreachable given the branch above; kept as an invariant check.
	if optimalA.Gt(desiredA) {
		return nil, nil, ErrRatioExceeded
	}
	if optimalA.Lt(minA) {
		return nil, nil, ErrSlippageA
	}
	return optimalA, desiredB.Clone(), nil
}

// sharesToMint computes floor(sqrt(takenA*takenB)) for the first deposit, and
// otherwise the smaller of the two proportional share amounts so a deposit
// never over-mints relative to either asset.
func sharesToMint(takenA, takenB, reserveA, reserveB, totalShares *uint256.Int) (*uint256.Int, error) {
	if totalShares.IsZero() {
		return sqrtProduct(takenA, takenB)
	}
	byA, err := mulDiv(takenA, totalShares, reserveA)
	if err != nil {
		return nil, err
	}
	byB, err := mulDiv(takenB, totalShares, reserveB)
	if err != nil {
		return nil, err
	}
	return minInt(byA, byB), nil
}

// WithdrawParams are the inputs to WithdrawLiquidity.
type WithdrawParams struct {
	AssetX    common.Address
	AssetY    common.Address
	Shares    *uint256.Int
	MinA      *uint256.Int
	MinB      *uint256.Int
	Recipient common.Address
	Deadline  time.Time
}

// WithdrawResult reports the amounts paid out for the burned shares.
type WithdrawResult struct {
	OutA *uint256.Int
	OutB *uint256.Int
}

// WithdrawLiquidity burns the caller's shares and pays out the proportional
// slice of both reserves to the recipient. Floor division means the rounding
// loss stays with the remaining holders' reserves, never the withdrawer's
// gain. Shares are burned before anything leaves the pool.
func (p *Pool) WithdrawLiquidity(ctx context.Context, caller common.Address, params WithdrawParams) (WithdrawResult, error) {
	if !p.op.TryLock() {
		return WithdrawResult{}, ErrReentrancy
	}
	defer p.op.Unlock()

	if !params.Deadline.After(p.now()) {
		return WithdrawResult{}, ErrDeadlineExpired
	}
	if params.AssetX != p.assetA || params.AssetY != p.assetB {
		return WithdrawResult{}, ErrBadPair
	}

	shareAmount := orZero(params.Shares)
	if shareAmount.IsZero() {
		return WithdrawResult{}, ErrZeroAmountIn
	}
	minA := orZero(params.MinA)
	minB := orZero(params.MinB)

	reserveA, reserveB := p.Reserves()
	totalShares, err := p.TotalShares(ctx)
	if err != nil {
		return WithdrawResult{}, err
	}
	if totalShares.IsZero() {
		return WithdrawResult{}, ErrInsufficientShares
	}
	balance, err := p.shares.BalanceOf(ctx, caller)
	if err != nil {
		return WithdrawResult{}, fmt.Errorf("%w: share balance: %v", ErrTransferFailed, err)
	}

	outA, err := mulDiv(shareAmount, reserveA, totalShares)
	if err != nil {
		return WithdrawResult{}, err
	}
	outB, err := mulDiv(shareAmount, reserveB, totalShares)
	if err != nil {
		return WithdrawResult{}, err
	}

	if outA.Lt(minA) {
		return WithdrawResult{}, ErrSlippageA
	}
	if outB.Lt(minB) {
		return WithdrawResult{}, ErrSlippageB
	}
	if balance.Lt(shareAmount) {
		return WithdrawResult{}, ErrInsufficientShares
	}
	// Unreachable given correct accounting; kept as an invariant check.
	if reserveA.Lt(outA) || reserveB.Lt(outB) {
		return WithdrawResult{}, ErrInsufficientReserves
	}

	if err := p.shares.Burn(ctx, caller, shareAmount); err != nil {
		return WithdrawResult{}, fmt.Errorf("%w: burn shares: %v", ErrTransferFailed, err)
	}

	if err := p.tokenA.Transfer(ctx, params.Recipient, outA); err != nil {
		_ = p.shares.Mint(ctx, caller, shareAmount)
		return WithdrawResult{}, fmt.Errorf("%w: pay asset a: %v", ErrTransferFailed, err)
	}
	if err := p.tokenB.Transfer(ctx, params.Recipient, outB); err != nil {
		// The asset A payout already left the pool. Try to claw it back and
		// restore the burned shares. If the clawback also fails the burn
		// stands and the A reserve drops, so the shortfall lands on the
		// exiting caller, never on the remaining holders.
		if pullback := p.tokenA.TransferFrom(ctx, params.Recipient, p.addr, outA); pullback == nil {
			_ = p.shares.Mint(ctx, caller, shareAmount)
		} else {
			p.setReserves(new(uint256.Int).Sub(reserveA, outA), reserveB)
		}
		return WithdrawResult{}, fmt.Errorf("%w: pay asset b: %v", ErrTransferFailed, err)
	}

	p.setReserves(new(uint256.Int).Sub(reserveA, outA), new(uint256.Int).Sub(reserveB, outB))

	p.emitLiquidityRemoved(caller, params.Recipient, shareAmount, outA, outB)

	return WithdrawResult{OutA: outA, OutB: outB}, nil
}

// SwapParams are the inputs to SwapExact. Path must be the pool pair in
// either order.
type SwapParams struct {
	AmountIn     *uint256.Int
	AmountOutMin *uint256.Int
	Path         [2]common.Address
	Recipient    common.Address
	Deadline     time.Time
}

// SwapResult echoes the input amount and the realized output amount.
type SwapResult struct {
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

// SwapExact trades an exact input amount of one pool asset for the other at
// the constant-product price. The output is priced by GetAmountOut against
// the reserves as of the start of the operation.
func (p *Pool) SwapExact(ctx context.Context, caller common.Address, params SwapParams) (SwapResult, error) {
	if !p.op.TryLock() {
		return SwapResult{}, ErrReentrancy
	}
	defer p.op.Unlock()

	if !params.Deadline.After(p.now()) {
		return SwapResult{}, ErrDeadlineExpired
	}

	var tokenIn, tokenOut ledger.AssetLedger
	reserveA, reserveB := p.Reserves()
	var reserveIn, reserveOut *uint256.Int
	aToB := false
	switch {
	case params.Path[0] == p.assetA && params.Path[1] == p.assetB:
		tokenIn, tokenOut = p.tokenA, p.tokenB
		reserveIn, reserveOut = reserveA, reserveB
		aToB = true
	case params.Path[0] == p.assetB && params.Path[1] == p.assetA:
		tokenIn, tokenOut = p.tokenB, p.tokenA
		reserveIn, reserveOut = reserveB, reserveA
	default:
		return SwapResult{}, ErrInvalidPath
	}

	amountIn := orZero(params.AmountIn)
	if amountIn.IsZero() {
		return SwapResult{}, ErrZeroAmountIn
	}

	amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut)
	if err != nil {
		return SwapResult{}, err
	}
	if amountOut.Lt(orZero(params.AmountOutMin)) {
		return SwapResult{}, ErrSlippageOut
	}

	newReserveIn, err := checkedAdd(reserveIn, amountIn)
	if err != nil {
		return SwapResult{}, err
	}
	newReserveOut := new(uint256.Int).Sub(reserveOut, amountOut)

	if err := tokenIn.TransferFrom(ctx, caller, p.addr, amountIn); err != nil {
		return SwapResult{}, fmt.Errorf("%w: pull input: %v", ErrTransferFailed, err)
	}
	if err := tokenOut.Transfer(ctx, params.Recipient, amountOut); err != nil {
		_ = tokenIn.Transfer(ctx, caller, amountIn)
		return SwapResult{}, fmt.Errorf("%w: pay output: %v", ErrTransferFailed, err)
	}

	if aToB {
		p.setReserves(newReserveIn, newReserveOut)
	} else {
		p.setReserves(newReserveOut, newReserveIn)
	}

	p.emitSwap(caller, params.Recipient, params.Path[0], amountIn, params.Path[1], amountOut)

	return SwapResult{AmountIn: amountIn, AmountOut: amountOut}, nil
}

// setReserves writes both reserves under one lock so readers never observe a
// half-applied update.
func (p *Pool) setReserves(reserveA, reserveB *uint256.Int) {
	p.mu.Lock()
	p.reserveA.Set(reserveA)
	p.reserveB.Set(reserveB)
	p.mu.Unlock()
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return uint256.NewInt(0)
	}
	return x
}
