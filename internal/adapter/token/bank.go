package token

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

// Bank tracks native-currency balances. It stands in for the chain's value
// transfer when a listing sells for native currency.
type Bank struct {
	mu       sync.Mutex
	balances map[domain.Address]*uint256.Int
}

func NewBank() *Bank {
	return &Bank{balances: make(map[domain.Address]*uint256.Int)}
}

func (b *Bank) Deposit(_ context.Context, to domain.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(to, amount)
	return nil
}

func (b *Bank) BalanceOf(_ context.Context, owner domain.Address) (*uint256.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[owner]; ok {
		return new(uint256.Int).Set(bal), nil
	}
	return uint256.NewInt(0), nil
}

func (b *Bank) Transfer(_ context.Context, from, to domain.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal := b.balances[from]
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	b.credit(to, amount)
	return nil
}

func (b *Bank) credit(to domain.Address, amount *uint256.Int) {
	if b.balances[to] == nil {
		b.balances[to] = uint256.NewInt(0)
	}
	b.balances[to].Add(b.balances[to], amount)
}
