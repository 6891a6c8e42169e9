package core

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds          = errors.New("coordinates out of bounds")
	ErrNotAdjacent          = errors.New("tiles are not adjacent")
	ErrNotOwned             = errors.New("tile not owned by player")
	ErrInsufficientSoldiers = errors.New("not enough soldiers on tile")
	ErrInvalidAmount        = errors.New("soldier amount must not be negative")
	ErrImpassable           = errors.New("destination is impassable")
	ErrInvalidDirection     = errors.New("invalid direction")
	ErrInvalidPlayer        = errors.New("invalid player ID")
	ErrPlayerEliminated     = errors.New("player is eliminated")
	ErrMatchOver            = errors.New("match is over")
	ErrTickInProgress       = errors.New("tick already in progress")
	ErrInvariantViolation   = errors.New("engine invariant violated")
)

// OrderError reports why a submitted order was rejected.
type OrderError struct {
	Order Order
	Err   error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order from player %d at %s %s rejected: %v",
		e.Order.PlayerID, e.Order.Origin, e.Order.Direction, e.Err)
}

func (e *OrderError) Unwrap() error { return e.Err }

// TickError wraps a failure inside a tick phase with the tick number and phase name.
type TickError struct {
	Tick  int
	Phase string
	Err   error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d: %s: %v", e.Tick, e.Phase, e.Err)
}

func (e *TickError) Unwrap() error { return e.Err }

// WrapTickError attaches tick context to err; nil stays nil.
func WrapTickError(tick int, phase string, err error) error {
	if err == nil {
		return nil
	}
	return &TickError{Tick: tick, Phase: phase, Err: err}
}
