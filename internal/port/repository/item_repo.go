package repository

import (
	"context"
	"errors"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

var ErrNotFound = errors.New("item not found in repository")

// ItemRepository is the ledger store keyed by (collection, token id). Save
// overwrites the full record; Get must return a copy the caller may mutate.
type ItemRepository interface {
	Get(ctx context.Context, key domain.ItemKey) (*domain.Item, error)
	Save(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, key domain.ItemKey) error
	List(ctx context.Context) ([]*domain.Item, error)
}
