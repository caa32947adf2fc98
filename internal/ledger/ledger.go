// Package ledger defines the capability interfaces the pool engine uses to
// move asset value and to mint/burn ownership shares, plus an in-memory
// fungible token that implements both for local serving and tests.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AssetLedger is the handle the pool holds for one tradable asset. A handle is
// bound to the account it acts for: Transfer debits that account, and
// TransferFrom spends an allowance previously granted to it.
type AssetLedger interface {
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
	TransferFrom(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	Transfer(ctx context.Context, to common.Address, amount *uint256.Int) error
}

// ShareLedger tracks LP share balances. Mint and Burn are restricted by
// reference: only the pool engine is handed a ShareLedger.
type ShareLedger interface {
	Mint(ctx context.Context, to common.Address, amount *uint256.Int) error
	Burn(ctx context.Context, from common.Address, amount *uint256.Int) error
	TotalSupply(ctx context.Context) (*uint256.Int, error)
	BalanceOf(ctx context.Context, account common.Address) (*uint256.Int, error)
}
