package token

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

// Token1155 is an in-process multi-unit collection.
type Token1155 struct {
	mu     sync.Mutex
	nextID uint64
	// balances: token id -> owner -> units
	balances  map[uint64]map[domain.Address]*uint256.Int
	operators map[domain.Address]map[domain.Address]bool
}

func NewToken1155() *Token1155 {
	return &Token1155{
		nextID:    1,
		balances:  make(map[uint64]map[domain.Address]*uint256.Int),
		operators: make(map[domain.Address]map[domain.Address]bool),
	}
}

// NextID hands out the sequential id for an internal mint.
func (t *Token1155) NextID(_ context.Context) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	return id, nil
}

func (t *Token1155) MintTo(_ context.Context, owner domain.Address, id uint64, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(owner, id, amount)
	if id >= t.nextID {
		t.nextID = id + 1
	}
	return nil
}

func (t *Token1155) SetApprovalForAll(_ context.Context, caller, operator domain.Address, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.operators[caller] == nil {
		t.operators[caller] = make(map[domain.Address]bool)
	}
	t.operators[caller][operator] = on
	return nil
}

func (t *Token1155) BalanceOf(_ context.Context, owner domain.Address, id uint64) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bal, ok := t.balances[id][owner]; ok {
		return new(uint256.Int).Set(bal), nil
	}
	return uint256.NewInt(0), nil
}

func (t *Token1155) SafeTransferFrom(_ context.Context, operator, from, to domain.Address, id uint64, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if operator != from && !t.operators[from][operator] {
		return ErrNotOwnerOrApproved
	}
	bal := t.balances[id][from]
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	t.credit(to, id, amount)
	return nil
}

func (t *Token1155) credit(owner domain.Address, id uint64, amount *uint256.Int) {
	if t.balances[id] == nil {
		t.balances[id] = make(map[domain.Address]*uint256.Int)
	}
	if t.balances[id][owner] == nil {
		t.balances[id][owner] = uint256.NewInt(0)
	}
	t.balances[id][owner].Add(t.balances[id][owner], amount)
}
