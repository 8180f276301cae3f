package domain

import "errors"

var (
	ErrNotOwner            = errors.New("marketplace: not owner")
	ErrAlreadyListed       = errors.New("marketplace: item has already been listed")
	ErrNotListed           = errors.New("marketplace: item is not listed")
	ErrInsufficientPayment = errors.New("marketplace: insufficient payment")
	ErrBidTooLow           = errors.New("marketplace: min bid must be higher")
	ErrAuctionEnded        = errors.New("marketplace: auction is ended")
	ErrAuctionNotEnded     = errors.New("marketplace: auction is not ended yet")
	ErrNotAuctionWinner    = errors.New("marketplace: not auction winner")
	ErrItemNotFound        = errors.New("marketplace: item not found")
	ErrUnknownCollection   = errors.New("marketplace: unknown collection")
	ErrUnknownPaymentToken = errors.New("marketplace: unknown payment token")
	ErrInvalidAmount       = errors.New("marketplace: amount must be positive")
)
