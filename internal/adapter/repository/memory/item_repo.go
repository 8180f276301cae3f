package memory

import (
	"context"
	"sync"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
	"github.com/NiceArti/Marketplace/internal/port/repository"
)

// ItemRepository is the authoritative in-memory ledger store. Items are
// deep-copied on the way in and out so callers never alias stored state.
type ItemRepository struct {
	mu    sync.RWMutex
	items map[domain.ItemKey]*domain.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domain.ItemKey]*domain.Item)}
}

func (r *ItemRepository) Get(_ context.Context, key domain.ItemKey) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *ItemRepository) Save(_ context.Context, item *domain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.Key] = item.Clone()
	return nil
}

func (r *ItemRepository) Delete(_ context.Context, key domain.ItemKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, key)
	return nil
}

func (r *ItemRepository) List(_ context.Context) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Item, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Clone())
	}
	return out, nil
}
