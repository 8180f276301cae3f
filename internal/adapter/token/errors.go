package token

import "errors"

// Collaborator-side failures surface to marketplace callers unchanged, so the
// messages follow the contract revert reasons.
var (
	ErrInvalidTokenID        = errors.New("erc721: invalid token id")
	ErrIncorrectOwner        = errors.New("erc721: transfer from incorrect owner")
	ErrNotApproved           = errors.New("erc721: caller is not token owner nor approved")
	ErrNotOwnerOrApproved    = errors.New("erc1155: caller is not owner nor approved")
	ErrInsufficientBalance   = errors.New("token: transfer amount exceeds balance")
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")
	ErrUnknownToken          = errors.New("token: no contract deployed at address")
)
