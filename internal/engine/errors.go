package engine

import "errors"

// Every failure is a hard abort: the call that observes one of these leaves
// no state change behind. Nothing is retried internally.
var (
	ErrUnknownListing      = errors.New("pool: unknown listing")
	ErrInvalidCount        = errors.New("pool: item count out of range")
	ErrCurve               = errors.New("pool: curve rejected quote")
	ErrInsufficientPayment = errors.New("pool: tendered amount below quoted input")
	ErrSlippageExceeded    = errors.New("pool: output below requested minimum")
	ErrItemNotHeld         = errors.New("pool: item not held by listing")
	ErrUnsolicitedTransfer = errors.New("pool: unsolicited inbound transfer")
	ErrNotController       = errors.New("pool: caller is not the controller")
	ErrFeeConstraint       = errors.New("pool: fee outside allowed range")
	ErrWrongPoolType       = errors.New("pool: listing does not trade in this direction")
	ErrReentrancy          = errors.New("pool: reentrant call")
)
