package engine

import "errors"

// Rejections are local to a single request and recoverable; none of them
// terminates a session or the simulation clock.
var (
	// ErrUnknownSymbol is returned when an order or query references a symbol
	// that is not in the registry.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInsufficientFunds rejects a buy whose cost exceeds the session's cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings rejects a sell of more shares than the session holds.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrInvalidQuantity is returned in strict mode for quantities outside
	// [1, MaxOrderQty]. In lenient mode they are clamped instead.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrUnknownSession is returned for session ids the manager has never issued.
	ErrUnknownSession = errors.New("unknown session")
)
