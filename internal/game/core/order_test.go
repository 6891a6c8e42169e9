package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func orderTestGrid() *Grid {
	// 3x3: player 0 owns (1,1) with 5 soldiers, mountain at (1,0),
	// intact wall at (2,1), player 1 owns (0,1).
	g := NewGrid(3, 3)
	*g.At(Coordinate{1, 1}) = Tile{Kind: KindBase, Owner: 0, Soldiers: 5}
	*g.At(Coordinate{1, 0}) = Tile{Kind: KindMountain, Owner: NeutralID}
	g.SetFortified(Coordinate{2, 1}, KindWall, 3)
	*g.At(Coordinate{0, 1}) = Tile{Kind: KindPlain, Owner: 1, Soldiers: 2}
	return g
}

func TestOrder_Validate(t *testing.T) {
	g := orderTestGrid()
	center := Coordinate{1, 1}

	tests := []struct {
		name  string
		order Order
		want  error
	}{
		{"MoveAllSouth", Order{PlayerID: 0, Origin: center, Direction: South}, nil},
		{"PartialExact", Order{PlayerID: 0, Origin: center, Direction: South, Amount: 5}, nil},
		{"AttackWall", Order{PlayerID: 0, Origin: center, Direction: East}, nil},
		{"AttackEnemy", Order{PlayerID: 0, Origin: center, Direction: West}, nil},
		{"IntoMountain", Order{PlayerID: 0, Origin: center, Direction: North}, ErrImpassable},
		{"NotOwned", Order{PlayerID: 1, Origin: center, Direction: South}, ErrNotOwned},
		{"OriginOutOfBounds", Order{PlayerID: 0, Origin: Coordinate{5, 5}, Direction: South}, ErrOutOfBounds},
		{"DestinationOutOfBounds", Order{PlayerID: 1, Origin: Coordinate{0, 1}, Direction: West}, ErrOutOfBounds},
		{"TooMany", Order{PlayerID: 0, Origin: center, Direction: South, Amount: 6}, ErrInsufficientSoldiers},
		{"NegativeAmount", Order{PlayerID: 0, Origin: center, Direction: South, Amount: -1}, ErrInvalidAmount},
		{"BadDirection", Order{PlayerID: 0, Origin: center, Direction: Direction(7)}, ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate(g)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestOrder_Quantity(t *testing.T) {
	all := Order{}
	assert.Equal(t, 8, all.Quantity(8))
	assert.Equal(t, 0, all.Quantity(0))

	partial := Order{Amount: 3}
	assert.Equal(t, 3, partial.Quantity(8))
	assert.Equal(t, 2, partial.Quantity(2), "clamped to what is left on the tile")
}

func TestOrderError_Unwraps(t *testing.T) {
	err := error(&OrderError{Order: Order{PlayerID: 2, Origin: Coordinate{1, 1}, Direction: East}, Err: ErrNotOwned})
	assert.ErrorIs(t, err, ErrNotOwned)
	assert.Contains(t, err.Error(), "player 2")

	var oe *OrderError
	assert.True(t, errors.As(err, &oe))
	assert.Equal(t, 2, oe.Order.PlayerID)

	assert.NoError(t, WrapTickError(3, "movement", nil))
	wrapped := WrapTickError(3, "movement", ErrInvariantViolation)
	assert.ErrorIs(t, wrapped, ErrInvariantViolation)
	assert.Equal(t, "tick 3: movement: engine invariant violated", wrapped.Error())
}
