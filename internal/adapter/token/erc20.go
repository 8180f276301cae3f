package token

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

// Token20 is an in-process payment token with the allowance mechanics the
// marketplace settlement path relies on.
type Token20 struct {
	mu       sync.Mutex
	name     string
	symbol   string
	balances map[domain.Address]*uint256.Int
	// allowances: owner -> spender -> remaining
	allowances map[domain.Address]map[domain.Address]*uint256.Int
}

func NewToken20(name, symbol string) *Token20 {
	return &Token20{
		name:       name,
		symbol:     symbol,
		balances:   make(map[domain.Address]*uint256.Int),
		allowances: make(map[domain.Address]map[domain.Address]*uint256.Int),
	}
}

func (t *Token20) Name() string   { return t.name }
func (t *Token20) Symbol() string { return t.symbol }

func (t *Token20) Mint(_ context.Context, to domain.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(to, amount)
	return nil
}

func (t *Token20) Approve(_ context.Context, owner, spender domain.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[domain.Address]*uint256.Int)
	}
	t.allowances[owner][spender] = new(uint256.Int).Set(amount)
	return nil
}

func (t *Token20) BalanceOf(_ context.Context, owner domain.Address) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bal, ok := t.balances[owner]; ok {
		return new(uint256.Int).Set(bal), nil
	}
	return uint256.NewInt(0), nil
}

// Transfer moves the sender's own funds, no allowance involved.
func (t *Token20) Transfer(_ context.Context, from, to domain.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFrom spends the spender's allowance granted by from.
func (t *Token20) TransferFrom(_ context.Context, spender, from, to domain.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowance := t.allowances[from][spender]
	if allowance == nil || allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return nil
}

func (t *Token20) move(from, to domain.Address, amount *uint256.Int) error {
	bal := t.balances[from]
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	t.credit(to, amount)
	return nil
}

func (t *Token20) credit(to domain.Address, amount *uint256.Int) {
	if t.balances[to] == nil {
		t.balances[to] = uint256.NewInt(0)
	}
	t.balances[to].Add(t.balances[to], amount)
}
