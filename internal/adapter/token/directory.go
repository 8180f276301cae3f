package token

import (
	"fmt"
	"sync"

	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

// Directory registers deployed token contracts under deterministic sequential
// addresses and resolves them for the marketplace core.
type Directory struct {
	mu       sync.RWMutex
	next     uint64
	kinds    map[domain.Address]domain.TokenKind
	nfts     map[domain.Address]*Token721
	multis   map[domain.Address]*Token1155
	payments map[domain.Address]*Token20
}

func NewDirectory() *Directory {
	return &Directory{
		next:     1,
		kinds:    make(map[domain.Address]domain.TokenKind),
		nfts:     make(map[domain.Address]*Token721),
		multis:   make(map[domain.Address]*Token1155),
		payments: make(map[domain.Address]*Token20),
	}
}

func (d *Directory) nextAddress() domain.Address {
	addr := domain.Address(fmt.Sprintf("0x%040x", d.next))
	d.next++
	return addr
}

func (d *Directory) DeployNFT(name, symbol string) (domain.Address, *Token721) {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := d.nextAddress()
	t := NewToken721(name, symbol)
	d.kinds[addr] = domain.KindNFT
	d.nfts[addr] = t
	return addr, t
}

func (d *Directory) DeployMultiToken() (domain.Address, *Token1155) {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := d.nextAddress()
	t := NewToken1155()
	d.kinds[addr] = domain.KindMultiToken
	d.multis[addr] = t
	return addr, t
}

func (d *Directory) DeployPayment(name, symbol string) (domain.Address, *Token20) {
	d.mu.Lock()
	defer d.mu.Unlock()
	addr := d.nextAddress()
	t := NewToken20(name, symbol)
	d.payments[addr] = t
	return addr, t
}

func (d *Directory) Kind(collection domain.Address) domain.TokenKind {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.kinds[collection]
}

func (d *Directory) NFT(collection domain.Address) (domain.NFTCollection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.nfts[collection]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}

func (d *Directory) MultiToken(collection domain.Address) (domain.MultiTokenCollection, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.multis[collection]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}

func (d *Directory) Payment(token domain.Address) (domain.PaymentToken, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.payments[token]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}
