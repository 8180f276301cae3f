package token

import (
	"context"
	"sync"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

// Token721 is an in-process single-owner collection. Ownership and approval
// are enforced here, exactly as the marketplace core expects from the real
// collection contract.
type Token721 struct {
	mu       sync.Mutex
	name     string
	symbol   string
	nextID   uint64
	owners   map[uint64]domain.Address
	approved map[uint64]domain.Address
	// operator approvals: owner -> operator -> approved
	operators map[domain.Address]map[domain.Address]bool
}

func NewToken721(name, symbol string) *Token721 {
	return &Token721{
		name:      name,
		symbol:    symbol,
		nextID:    1,
		owners:    make(map[uint64]domain.Address),
		approved:  make(map[uint64]domain.Address),
		operators: make(map[domain.Address]map[domain.Address]bool),
	}
}

func (t *Token721) Name() string   { return t.name }
func (t *Token721) Symbol() string { return t.symbol }

func (t *Token721) MintTo(_ context.Context, owner domain.Address) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.owners[id] = owner
	return id, nil
}

func (t *Token721) OwnerOf(_ context.Context, id uint64) (domain.Address, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owners[id]
	if !ok {
		return domain.ZeroAddress, ErrInvalidTokenID
	}
	return owner, nil
}

// Approve lets the token owner authorize a single-token transfer agent.
func (t *Token721) Approve(_ context.Context, caller, spender domain.Address, id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owners[id]
	if !ok {
		return ErrInvalidTokenID
	}
	if caller != owner && !t.operators[owner][caller] {
		return ErrNotApproved
	}
	t.approved[id] = spender
	return nil
}

func (t *Token721) SetApprovalForAll(_ context.Context, caller, operator domain.Address, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.operators[caller] == nil {
		t.operators[caller] = make(map[domain.Address]bool)
	}
	t.operators[caller][operator] = on
	return nil
}

func (t *Token721) TransferFrom(_ context.Context, operator, from, to domain.Address, id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	owner, ok := t.owners[id]
	if !ok {
		return ErrInvalidTokenID
	}
	if owner != from {
		return ErrIncorrectOwner
	}
	if operator != owner && t.approved[id] != operator && !t.operators[owner][operator] {
		return ErrNotApproved
	}
	delete(t.approved, id)
	t.owners[id] = to
	return nil
}
