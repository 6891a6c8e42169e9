package match

import "errors"

var (
	ErrMatchFull          = errors.New("match is full")
	ErrMatchNotFound      = errors.New("match not found")
	ErrServerAtCapacity   = errors.New("server at capacity")
	ErrNotAcceptingOrders = errors.New("match is not accepting orders")
	ErrMatchStarted       = errors.New("match has already started")
	ErrUnknownSession     = errors.New("unknown session")
	ErrSpectator          = errors.New("spectators cannot act in a match")
	ErrMatchClosed        = errors.New("match is closed")
)
