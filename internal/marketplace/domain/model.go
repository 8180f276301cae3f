package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Address identifies an account or a deployed token contract, 0x-hex encoded.
type Address string

const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ItemKey is the storage key for all per-item marketplace state.
type ItemKey struct {
	Collection Address
	TokenID    uint64
}

// SaleState tags the sale variant of an item. An item is either idle, on a
// fixed-price listing, or on auction - never more than one at a time.
type SaleState int

const (
	SaleNone SaleState = iota
	SaleFixedPrice
	SaleAuction
)

// ListingRecord holds the fixed-price terms of a listed item. For auctions it
// doubles as the anchor record carrying the payment token and quantity.
// Price is the total for the full Amount, pre-multiplied at list time.
type ListingRecord struct {
	TokenToBuy    Address
	Price         *uint256.Int
	Amount        *uint256.Int
	SellForNative bool
}

// AuctionRecord holds the auction terms of an item. The record is seeded with
// the seller as LastBidder and the start price as LastBid; HasBids reports
// whether a real bid replaced the seed, i.e. whether funds are escrowed.
type AuctionRecord struct {
	Seller         Address
	LastBidder     Address
	LastBid        *uint256.Int
	EndTime        time.Time
	BidMinStandard *uint256.Int
	HasBids        bool
}

// Item is the per-key ledger entry: ownership of record plus the sale variant.
type Item struct {
	Key        ItemKey
	Owner      Address
	IsInternal bool
	Sale       SaleState
	Listing    ListingRecord
	Auction    AuctionRecord
}

func (i *Item) Listed() bool { return i.Sale != SaleNone }

// ClearSale zeroes both sale records and returns the item to the idle state.
func (i *Item) ClearSale() {
	i.Sale = SaleNone
	i.Listing = ListingRecord{}
	i.Auction = AuctionRecord{}
}

// Clone deep-copies the item so stored ledger state cannot be aliased.
func (i *Item) Clone() *Item {
	c := *i
	c.Listing.Price = cloneU256(i.Listing.Price)
	c.Listing.Amount = cloneU256(i.Listing.Amount)
	c.Auction.LastBid = cloneU256(i.Auction.LastBid)
	c.Auction.BidMinStandard = cloneU256(i.Auction.BidMinStandard)
	return &c
}

func cloneU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return nil
	}
	return new(uint256.Int).Set(v)
}

// GeneralInfo is the observable read surface of an item. Unknown keys yield a
// zero-valued record rather than an error.
type GeneralInfo struct {
	Owner         Address
	IsInternal    bool
	Listed        bool
	TokenToBuy    Address
	Price         *uint256.Int
	Amount        *uint256.Int
	SellForNative bool
}

// AuctionInfo is the observable read surface of an auction.
type AuctionInfo struct {
	LastBidder     Address
	LastBid        *uint256.Int
	EndTime        time.Time
	BidMinStandard *uint256.Int
}
