package service

import "errors"

// Rejections surfaced to callers. Every one aborts the whole call with no state change.
var (
	ErrNotFound          = errors.New("bet does not exist")
	ErrUnauthorized      = errors.New("caller is not an admin")
	ErrInvalidDeposit    = errors.New("attached value does not match wager")
	ErrNotApproved       = errors.New("bet is not approved")
	ErrAlreadyApproved   = errors.New("bet is already approved")
	ErrNotClosed         = errors.New("bet is not closed, cannot settle")
	ErrInvalidGroup      = errors.New("group must be 1 or 2")
	ErrInvalidDirection  = errors.New("direction must be 1 (above) or 2 (below)")
	ErrInvalidDuration   = errors.New("duration cannot be negative")
	ErrInvalidValue      = errors.New("value must be a non-negative whole number")
	ErrInsufficientFunds = errors.New("insufficient balance")
)
