package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner   = common.HexToAddress("0x0000000000000000000000000000000000000011")
	spender = common.HexToAddress("0x0000000000000000000000000000000000000022")
	other   = common.HexToAddress("0x0000000000000000000000000000000000000033")
)

func TestMintAndBurn(t *testing.T) {
	token := NewToken()

	require.NoError(t, token.Mint(owner, uint256.NewInt(500)))
	assert.Equal(t, "500", token.BalanceOf(owner).Dec())
	assert.Equal(t, "500", token.TotalSupply().Dec())

	require.NoError(t, token.Burn(owner, uint256.NewInt(200)))
	assert.Equal(t, "300", token.BalanceOf(owner).Dec())
	assert.Equal(t, "300", token.TotalSupply().Dec())

	err := token.Burn(owner, uint256.NewInt(1000))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransfer(t *testing.T) {
	token := NewToken()
	require.NoError(t, token.Mint(owner, uint256.NewInt(100)))

	require.NoError(t, token.Transfer(owner, other, uint256.NewInt(60)))
	assert.Equal(t, "40", token.BalanceOf(owner).Dec())
	assert.Equal(t, "60", token.BalanceOf(other).Dec())

	err := token.Transfer(owner, other, uint256.NewInt(41))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	token := NewToken()
	require.NoError(t, token.Mint(owner, uint256.NewInt(100)))
	token.Approve(owner, spender, uint256.NewInt(70))

	require.NoError(t, token.TransferFrom(spender, owner, other, uint256.NewInt(50)))
	assert.Equal(t, "20", token.Allowance(owner, spender).Dec())
	assert.Equal(t, "50", token.BalanceOf(other).Dec())

	err := token.TransferFrom(spender, owner, other, uint256.NewInt(30))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestTransferFromWithoutApproval(t *testing.T) {
	token := NewToken()
	require.NoError(t, token.Mint(owner, uint256.NewInt(100)))

	err := token.TransferFrom(spender, owner, other, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestAssetHandleBinding(t *testing.T) {
	token := NewToken()
	require.NoError(t, token.Mint(owner, uint256.NewInt(100)))
	require.NoError(t, token.Mint(spender, uint256.NewInt(10)))
	token.Approve(owner, spender, uint256.NewInt(100))

	handle := token.HandleFor(spender)
	ctx := context.Background()

	balance, err := handle.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "100", balance.Dec())

	// TransferFrom spends the allowance granted to the bound account.
	require.NoError(t, handle.TransferFrom(ctx, owner, spender, uint256.NewInt(40)))
	assert.Equal(t, "50", token.BalanceOf(spender).Dec())

	// Transfer debits the bound account itself.
	require.NoError(t, handle.Transfer(ctx, other, uint256.NewInt(50)))
	assert.Equal(t, "0", token.BalanceOf(spender).Dec())
	assert.Equal(t, "50", token.BalanceOf(other).Dec())
}

func TestShareHandle(t *testing.T) {
	token := NewToken()
	shares := token.ShareHandle()
	ctx := context.Background()

	require.NoError(t, shares.Mint(ctx, owner, uint256.NewInt(1000)))
	total, err := shares.TotalSupply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", total.Dec())

	require.NoError(t, shares.Burn(ctx, owner, uint256.NewInt(400)))
	balance, err := shares.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, "600", balance.Dec())
}
