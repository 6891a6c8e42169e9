package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/processor"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

func arrivals(pairs ...int) []processor.Group {
	var out []processor.Group
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, processor.Group{PlayerID: pairs[i], Soldiers: pairs[i+1]})
	}
	return out
}

func TestArrivalResolver_Cancellation(t *testing.T) {
	tests := []struct {
		name         string
		cell         string
		arrivals     []processor.Group
		wantOwner    int
		wantSoldiers int
		contested    bool
	}{
		{"EmptyPlainIsClaimed", ".", arrivals(0, 5), 0, 5, false},
		{"Reinforcement", "P0:3", arrivals(0, 4), 0, 7, false},
		{"DefenderHolds", "P0:5", arrivals(1, 3), 0, 2, true},
		{"AttackerTakes", "P0:3", arrivals(1, 5), 1, 2, true},
		{"EqualStrengthLeavesNothing", "P0:5", arrivals(1, 5), core.NeutralID, 0, true},
		{"EmptiedTileFalls", "P0:0", arrivals(1, 1), 1, 1, true},
		{"DefenderJoinsItsArrivals", "P0:2", arrivals(0, 2, 1, 5), 1, 1, true},
		{"TwoAttackersOnEmpty", ".", arrivals(0, 6, 1, 4), 0, 2, true},
		{"NeutralGarrisonDefends", ".:4", arrivals(1, 3), core.NeutralID, 1, true},
		{"NeutralGarrisonFalls", ".:4", arrivals(1, 6), 1, 2, true},
		{"SameBaseEnemyTakeover", "B0:3", arrivals(1, 9), 1, 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.MustParseGrid(tt.cell)
			ar := NewArrivalResolver(testutil.NopLogger())

			r, err := ar.Resolve(g, 0, tt.arrivals)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, g.T[0].Owner)
			assert.Equal(t, tt.wantSoldiers, g.T[0].Soldiers)
			assert.Equal(t, tt.wantOwner, r.Owner)
			assert.Equal(t, tt.contested, r.Contenders != nil)
		})
	}
}

// Three or more sides on one tile: the two strongest cancel, the leader keeps
// the difference and everyone else is destroyed. Equal leaders leave the tile
// empty whatever the weaker sides sent. This tie-break is an assumption; the
// rules do not say more about it.
func TestArrivalResolver_ThreeWayTieBreakAssumption(t *testing.T) {
	tests := []struct {
		name         string
		arrivals     []processor.Group
		wantOwner    int
		wantSoldiers int
	}{
		{"ClearLeader", arrivals(0, 6, 1, 4, 2, 3), 0, 2},
		{"TopTwoTied", arrivals(0, 5, 1, 5, 2, 3), core.NeutralID, 0},
		{"AllTied", arrivals(0, 4, 1, 4, 2, 4), core.NeutralID, 0},
		{"ThirdPlaceCannotWin", arrivals(0, 5, 1, 5, 2, 4), core.NeutralID, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testutil.MustParseGrid(".")
			ar := NewArrivalResolver(testutil.NopLogger())

			r, err := ar.Resolve(g, 0, tt.arrivals)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, g.T[0].Owner)
			assert.Equal(t, tt.wantSoldiers, g.T[0].Soldiers)
			assert.Len(t, r.Contenders, 3)
		})
	}
}

func TestArrivalResolver_Fortifications(t *testing.T) {
	t.Run("PartialDamage", func(t *testing.T) {
		g := testutil.MustParseGrid("T/10")
		ar := NewArrivalResolver(testutil.NopLogger())

		r, err := ar.Resolve(g, 0, arrivals(0, 4))
		require.NoError(t, err)
		assert.Equal(t, 4, r.Damage)
		assert.Equal(t, 6, r.Remaining)
		assert.False(t, r.Captured())
		assert.Equal(t, core.Tile{Kind: core.KindTower, Owner: core.NeutralID, CaptureRemaining: 6}, g.T[0])
	})

	t.Run("BreachWithSurplus", func(t *testing.T) {
		g := testutil.MustParseGrid("W/3")
		ar := NewArrivalResolver(testutil.NopLogger())

		r, err := ar.Resolve(g, 0, arrivals(1, 8))
		require.NoError(t, err)
		assert.True(t, r.Captured())
		assert.Equal(t, core.Tile{Kind: core.KindWall, Owner: 1, Soldiers: 5}, g.T[0])
	})

	t.Run("ExactBreachHoldsWithNoSoldiers", func(t *testing.T) {
		g := testutil.MustParseGrid("T/5")
		ar := NewArrivalResolver(testutil.NopLogger())

		_, err := ar.Resolve(g, 0, arrivals(0, 5))
		require.NoError(t, err)
		assert.Equal(t, 0, g.T[0].Owner)
		assert.Zero(t, g.T[0].Soldiers)
	})

	t.Run("AttackersCancelBeforeChipping", func(t *testing.T) {
		g := testutil.MustParseGrid("W/10")
		ar := NewArrivalResolver(testutil.NopLogger())

		r, err := ar.Resolve(g, 0, arrivals(0, 7, 1, 4))
		require.NoError(t, err)
		assert.Equal(t, 0, r.Attacker)
		assert.Equal(t, 3, r.Damage)
		assert.Equal(t, 7, g.T[0].CaptureRemaining)
		assert.Equal(t, []events.Contender{{PlayerID: 0, Soldiers: 7}, {PlayerID: 1, Soldiers: 4}}, r.Contenders)
	})

	t.Run("TiedAttackersDoNothing", func(t *testing.T) {
		g := testutil.MustParseGrid("W/10")
		ar := NewArrivalResolver(testutil.NopLogger())

		r, err := ar.Resolve(g, 0, arrivals(0, 4, 1, 4))
		require.NoError(t, err)
		assert.Zero(t, r.Damage)
		assert.Equal(t, 10, g.T[0].CaptureRemaining)
	})
}

func TestArrivalResolver_MountainIsADefect(t *testing.T) {
	g := testutil.MustParseGrid("M")
	ar := NewArrivalResolver(testutil.NopLogger())

	_, err := ar.Resolve(g, 0, arrivals(0, 2))
	assert.ErrorIs(t, err, core.ErrInvariantViolation)
	assert.Equal(t, core.NeutralID, g.T[0].Owner)
}
