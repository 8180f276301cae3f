package domain

import (
	"context"

	"github.com/holiman/uint256"
)

// TokenKind discriminates the two collection flavors the marketplace trades.
type TokenKind int

const (
	KindUnknown TokenKind = iota
	KindNFT               // single-owner collection (ERC721-like)
	KindMultiToken        // multi-unit collection (ERC1155-like)
)

// NFTCollection is the single-owner collection surface the core consumes.
// TransferFrom enforces real ownership and approval on the collection side;
// the marketplace passes itself as operator.
type NFTCollection interface {
	MintTo(ctx context.Context, owner Address) (uint64, error)
	OwnerOf(ctx context.Context, id uint64) (Address, error)
	TransferFrom(ctx context.Context, operator, from, to Address, id uint64) error
}

// MultiTokenCollection is the multi-unit collection surface the core consumes.
type MultiTokenCollection interface {
	MintTo(ctx context.Context, owner Address, id uint64, amount *uint256.Int) error
	NextID(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, owner Address, id uint64) (*uint256.Int, error)
	SafeTransferFrom(ctx context.Context, operator, from, to Address, id uint64, amount *uint256.Int) error
}

// PaymentToken is the settlement-token surface. TransferFrom spends the
// spender's allowance; Transfer moves the caller's own funds.
type PaymentToken interface {
	TransferFrom(ctx context.Context, spender, from, to Address, amount *uint256.Int) error
	Transfer(ctx context.Context, from, to Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, owner Address) (*uint256.Int, error)
}

// NativeLedger moves native currency between accounts in place of a token
// transfer when a listing sells for the chain's own currency.
type NativeLedger interface {
	Transfer(ctx context.Context, from, to Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, owner Address) (*uint256.Int, error)
}

// TokenDirectory resolves deployed token addresses to their typed handles.
type TokenDirectory interface {
	Kind(collection Address) TokenKind
	NFT(collection Address) (NFTCollection, error)
	MultiToken(collection Address) (MultiTokenCollection, error)
	Payment(token Address) (PaymentToken, error)
}
