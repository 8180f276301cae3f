package memory

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/port/repository"
)

func TestItemRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()

	key := domain.ItemKey{Collection: "0x01", TokenID: 1}
	item := &domain.Item{
		Key:   key,
		Owner: "0xa11c",
		Sale:  domain.SaleFixedPrice,
		Listing: domain.ListingRecord{
			TokenToBuy: "0x03",
			Price:      uint256.NewInt(100),
			Amount:     uint256.NewInt(1),
		},
	}

	t.Run("get before save", func(t *testing.T) {
		_, err := repo.Get(ctx, key)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("save and get round trip", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, item))
		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, item.Owner, got.Owner)
		assert.Equal(t, uint64(100), got.Listing.Price.Uint64())
	})

	t.Run("stored state is not aliased", func(t *testing.T) {
		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		got.Owner = "0xdead"
		got.Listing.Price.SetUint64(0)

		fresh, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.Address("0xa11c"), fresh.Owner)
		assert.Equal(t, uint64(100), fresh.Listing.Price.Uint64())
	})

	t.Run("save after mutation overwrites", func(t *testing.T) {
		item.Owner = "0xb0b0"
		item.ClearSale()
		require.NoError(t, repo.Save(ctx, item))

		got, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.Address("0xb0b0"), got.Owner)
		assert.False(t, got.Listed())
	})

	t.Run("list returns every item", func(t *testing.T) {
		other := &domain.Item{Key: domain.ItemKey{Collection: "0x02", TokenID: 7}, Owner: "0xca01"}
		require.NoError(t, repo.Save(ctx, other))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, key))
		_, err := repo.Get(ctx, key)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, key), repository.ErrNotFound)
	})
}
