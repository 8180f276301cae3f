package token

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

const (
	alice = domain.Address("0xa11c")
	bob   = domain.Address("0xb0b0")
	carol = domain.Address("0xca01")
)

func TestToken721Transfers(t *testing.T) {
	ctx := context.Background()
	nft := NewToken721("Test", "TST")

	id, err := nft.MintTo(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	t.Run("owner transfers directly", func(t *testing.T) {
		require.NoError(t, nft.TransferFrom(ctx, alice, alice, bob, id))
		owner, err := nft.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, bob, owner)
	})

	t.Run("wrong from address", func(t *testing.T) {
		err := nft.TransferFrom(ctx, bob, alice, carol, id)
		assert.ErrorIs(t, err, ErrIncorrectOwner)
	})

	t.Run("unapproved operator", func(t *testing.T) {
		err := nft.TransferFrom(ctx, carol, bob, carol, id)
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("operator approval enables transfer", func(t *testing.T) {
		require.NoError(t, nft.SetApprovalForAll(ctx, bob, carol, true))
		require.NoError(t, nft.TransferFrom(ctx, carol, bob, carol, id))
		owner, err := nft.OwnerOf(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, carol, owner)
	})

	t.Run("per-token approval is cleared on transfer", func(t *testing.T) {
		id2, err := nft.MintTo(ctx, alice)
		require.NoError(t, err)
		require.NoError(t, nft.Approve(ctx, alice, bob, id2))
		require.NoError(t, nft.TransferFrom(ctx, bob, alice, bob, id2))
		// bob now owns it; the old approval must not survive a round trip
		require.NoError(t, nft.TransferFrom(ctx, bob, bob, alice, id2))
		err = nft.TransferFrom(ctx, bob, alice, bob, id2)
		assert.ErrorIs(t, err, ErrNotApproved)
	})

	t.Run("unknown token id", func(t *testing.T) {
		_, err := nft.OwnerOf(ctx, 999)
		assert.ErrorIs(t, err, ErrInvalidTokenID)
	})
}

func TestToken1155Transfers(t *testing.T) {
	ctx := context.Background()
	multi := NewToken1155()

	require.NoError(t, multi.MintTo(ctx, alice, 1, uint256.NewInt(10)))

	t.Run("sequential ids skip minted ones", func(t *testing.T) {
		next, err := multi.NextID(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), next)
	})

	t.Run("owner moves own units", func(t *testing.T) {
		require.NoError(t, multi.SafeTransferFrom(ctx, alice, alice, bob, 1, uint256.NewInt(4)))
		bal, err := multi.BalanceOf(ctx, bob, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(4), bal.Uint64())
	})

	t.Run("unapproved operator", func(t *testing.T) {
		err := multi.SafeTransferFrom(ctx, carol, alice, carol, 1, uint256.NewInt(1))
		assert.ErrorIs(t, err, ErrNotOwnerOrApproved)
	})

	t.Run("insufficient units", func(t *testing.T) {
		err := multi.SafeTransferFrom(ctx, alice, alice, bob, 1, uint256.NewInt(100))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
	})

	t.Run("approved operator moves units", func(t *testing.T) {
		require.NoError(t, multi.SetApprovalForAll(ctx, alice, carol, true))
		require.NoError(t, multi.SafeTransferFrom(ctx, carol, alice, carol, 1, uint256.NewInt(2)))
		bal, err := multi.BalanceOf(ctx, carol, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), bal.Uint64())
	})
}

func TestToken20Allowances(t *testing.T) {
	ctx := context.Background()
	pay := NewToken20("Gold", "GLD")

	require.NoError(t, pay.Mint(ctx, alice, uint256.NewInt(100)))

	t.Run("transfer from without allowance", func(t *testing.T) {
		err := pay.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(10))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)
	})

	t.Run("allowance decrements as it is spent", func(t *testing.T) {
		require.NoError(t, pay.Approve(ctx, alice, bob, uint256.NewInt(50)))
		require.NoError(t, pay.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(30)))

		err := pay.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(30))
		assert.ErrorIs(t, err, ErrInsufficientAllowance)

		require.NoError(t, pay.TransferFrom(ctx, bob, alice, bob, uint256.NewInt(20)))
		bal, err := pay.BalanceOf(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), bal.Uint64())
	})

	t.Run("plain transfer spends own balance only", func(t *testing.T) {
		err := pay.Transfer(ctx, carol, alice, uint256.NewInt(1))
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		require.NoError(t, pay.Transfer(ctx, bob, carol, uint256.NewInt(5)))
	})

	t.Run("balances never alias internal state", func(t *testing.T) {
		bal, err := pay.BalanceOf(ctx, alice)
		require.NoError(t, err)
		bal.SetUint64(0)
		again, err := pay.BalanceOf(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), again.Uint64())
	})
}

func TestBank(t *testing.T) {
	ctx := context.Background()
	bank := NewBank()

	require.NoError(t, bank.Deposit(ctx, alice, uint256.NewInt(100)))

	err := bank.Transfer(ctx, alice, bob, uint256.NewInt(101))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, bank.Transfer(ctx, alice, bob, uint256.NewInt(40)))
	aliceBal, err := bank.BalanceOf(ctx, alice)
	require.NoError(t, err)
	bobBal, err := bank.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), aliceBal.Uint64())
	assert.Equal(t, uint64(40), bobBal.Uint64())
}

func TestDirectory(t *testing.T) {
	dir := NewDirectory()

	nftAddr, nft := dir.DeployNFT("A", "A")
	multiAddr, _ := dir.DeployMultiToken()
	payAddr, _ := dir.DeployPayment("B", "B")

	assert.NotEqual(t, nftAddr, multiAddr)
	assert.NotEqual(t, multiAddr, payAddr)

	assert.Equal(t, domain.KindNFT, dir.Kind(nftAddr))
	assert.Equal(t, domain.KindMultiToken, dir.Kind(multiAddr))
	assert.Equal(t, domain.KindUnknown, dir.Kind(payAddr), "payment tokens are not collections")
	assert.Equal(t, domain.KindUnknown, dir.Kind("0xdead"))

	resolved, err := dir.NFT(nftAddr)
	require.NoError(t, err)
	assert.Equal(t, nft, resolved)

	_, err = dir.NFT(multiAddr)
	assert.ErrorIs(t, err, ErrUnknownToken)
	_, err = dir.Payment("0xdead")
	assert.ErrorIs(t, err, ErrUnknownToken)
}
