package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrSupplyOverflow        = errors.New("total supply overflow")
)

// Token is an in-memory fungible token with balances and allowances. All
// methods are safe for concurrent use.
type Token struct {
	mu          sync.RWMutex
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	totalSupply uint256.Int
}

func NewToken() *Token {
	return &Token{
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Mint credits amount to account and grows total supply.
func (t *Token) Mint(account common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	supply, overflow := new(uint256.Int).AddOverflow(&t.totalSupply, amount)
	if overflow {
		return ErrSupplyOverflow
	}
	t.totalSupply.Set(supply)
	t.credit(account, amount)
	return nil
}

// Burn debits amount from account and shrinks total supply.
func (t *Token) Burn(account common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.debit(account, amount); err != nil {
		return err
	}
	t.totalSupply.Sub(&t.totalSupply, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *uint256.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	spenders, ok := t.allowances[owner]
	if !ok {
		spenders = make(map[common.Address]*uint256.Int)
		t.allowances[owner] = spenders
	}
	spenders[spender] = amount.Clone()
}

// Allowance reports what spender may pull from owner.
func (t *Token) Allowance(owner, spender common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if a, ok := t.allowances[owner][spender]; ok {
		return a.Clone()
	}
	return uint256.NewInt(0)
}

func (t *Token) BalanceOf(account common.Address) *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if b, ok := t.balances[account]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

func (t *Token) TotalSupply() *uint256.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply.Clone()
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom moves amount from owner to recipient, consuming spender's
// allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed, ok := t.allowances[from][spender]
	if !ok || allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

func (t *Token) move(from, to common.Address, amount *uint256.Int) error {
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

func (t *Token) credit(account common.Address, amount *uint256.Int) {
	b, ok := t.balances[account]
	if !ok {
		b = uint256.NewInt(0)
		t.balances[account] = b
	}
	b.Add(b, amount)
}

func (t *Token) debit(account common.Address, amount *uint256.Int) error {
	b, ok := t.balances[account]
	if !ok || b.Lt(amount) {
		return ErrInsufficientBalance
	}
	b.Sub(b, amount)
	return nil
}

// HandleFor returns an AssetLedger view over the token bound to owner.
func (t *Token) HandleFor(owner common.Address) AssetLedger {
	return &assetHandle{token: t, owner: owner}
}

// ShareHandle returns a ShareLedger view over the token.
func (t *Token) ShareHandle() ShareLedger {
	return &shareHandle{token: t}
}

type assetHandle struct {
	token *Token
	owner common.Address
}

func (h *assetHandle) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	return h.token.BalanceOf(account), nil
}

func (h *assetHandle) TransferFrom(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	return h.token.TransferFrom(h.owner, from, to, amount)
}

func (h *assetHandle) Transfer(_ context.Context, to common.Address, amount *uint256.Int) error {
	return h.token.Transfer(h.owner, to, amount)
}

type shareHandle struct {
	token *Token
}

func (h *shareHandle) Mint(_ context.Context, to common.Address, amount *uint256.Int) error {
	return h.token.Mint(to, amount)
}

func (h *shareHandle) Burn(_ context.Context, from common.Address, amount *uint256.Int) error {
	return h.token.Burn(from, amount)
}

func (h *shareHandle) TotalSupply(_ context.Context) (*uint256.Int, error) {
	return h.token.TotalSupply(), nil
}

func (h *shareHandle) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	return h.token.BalanceOf(account), nil
}
