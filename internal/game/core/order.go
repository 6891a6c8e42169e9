package core

import "fmt"

// Order moves soldiers from Origin to the adjacent tile in Direction.
// Amount 0 moves every soldier on the tile; a positive Amount is absolute.
type Order struct {
	PlayerID  int        `json:"player_id"`
	Origin    Coordinate `json:"origin"`
	Direction Direction  `json:"direction"`
	Amount    int        `json:"amount,omitempty"`
}

// Destination is the tile the order's soldiers step onto
func (o Order) Destination() Coordinate {
	return o.Origin.Move(o.Direction)
}

// Validate checks the order against the grid as it stands right now. It
// does not know whether the player is alive; the queue checks that.
func (o Order) Validate(g *Grid) error {
	if !o.Direction.Valid() {
		return ErrInvalidDirection
	}
	origin := g.At(o.Origin)
	if origin == nil {
		return fmt.Errorf("origin %s: %w", o.Origin, ErrOutOfBounds)
	}
	if origin.Owner != o.PlayerID {
		return ErrNotOwned
	}
	dest := g.At(o.Destination())
	if dest == nil {
		return fmt.Errorf("destination %s: %w", o.Destination(), ErrOutOfBounds)
	}
	if !dest.Behavior().Passable {
		return ErrImpassable
	}
	if o.Amount < 0 {
		return ErrInvalidAmount
	}
	if o.Amount > origin.Soldiers {
		return fmt.Errorf("%w: requested %d, tile holds %d", ErrInsufficientSoldiers, o.Amount, origin.Soldiers)
	}
	return nil
}

// Quantity is how many soldiers the order moves off a tile holding available.
func (o Order) Quantity(available int) int {
	if o.Amount == 0 || o.Amount > available {
		return available
	}
	return o.Amount
}
