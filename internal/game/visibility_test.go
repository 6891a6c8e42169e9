package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

func foggedEngine(t *testing.T, rows ...string) *Engine {
	t.Helper()
	e := newTestEngine(t, rows...)
	e.settings.FogOfWar = true
	e.settings.VisionRadius = 2
	return e
}

func count(mask []bool) int {
	n := 0
	for _, v := range mask {
		if v {
			n++
		}
	}
	return n
}

func TestComputeVisibility_ManhattanDiamond(t *testing.T) {
	g := testutil.MustParseGrid(
		". . . . .",
		". . . . .",
		". . B0 . .",
		". . . . .",
		". . . . .",
	)
	mask := ComputeVisibility(g, 0, 2)
	assert.Equal(t, 13, count(mask))
	assert.True(t, mask[g.Idx(2, 0)])
	assert.True(t, mask[g.Idx(1, 1)])
	assert.False(t, mask[g.Idx(0, 0)], "corner is 4 steps away")
	assert.False(t, mask[g.Idx(4, 1)])

	assert.Zero(t, count(ComputeVisibility(g, 1, 2)), "player 1 owns nothing")
}

func TestComputeVisibility_ClipsAtEdges(t *testing.T) {
	g := testutil.MustParseGrid("B0 . . . .")
	mask := ComputeVisibility(g, 0, 2)
	assert.Equal(t, []bool{true, true, true, false, false}, mask)
}

func TestEngine_ViewHidesFoggedTiles(t *testing.T) {
	e := foggedEngine(t, "B0:3 . . . P1:2 . B1:3")

	view := e.View(0)
	require.Len(t, view, 7)
	assert.Equal(t, TileView{X: 0, Y: 0, Kind: core.KindBase, Owner: 0, Soldiers: 3}, view[0])
	assert.False(t, view[2].Fogged)
	assert.Equal(t, TileView{X: 4, Y: 0, Kind: core.KindPlain, Owner: core.NeutralID, Fogged: true}, view[4])
	assert.True(t, view[6].Fogged)

	other := e.View(1)
	assert.False(t, other[2].Fogged, "plain at x=4 extends player 1's sight")
	assert.True(t, other[1].Fogged)
}

func TestEngine_FoggedFortificationsKeepThreshold(t *testing.T) {
	e := foggedEngine(t, "B0:3 . . . W/10 T/20 B1:3")

	view := e.View(0)
	require.Len(t, view, 7)
	assert.Equal(t, TileView{X: 4, Y: 0, Kind: core.KindWall, Owner: core.NeutralID, CaptureRemaining: 10, Fogged: true}, view[4])
	assert.Equal(t, TileView{X: 5, Y: 0, Kind: core.KindTower, Owner: core.NeutralID, CaptureRemaining: 20, Fogged: true}, view[5])
	assert.Equal(t, TileView{X: 6, Y: 0, Kind: core.KindBase, Owner: core.NeutralID, Fogged: true}, view[6])
}

func TestEngine_VisibleMaskWithoutFog(t *testing.T) {
	tests := []struct {
		name   string
		fog    bool
		viewer int
	}{
		{"FogDisabled", false, 0},
		{"Spectator", true, -1},
		{"UnknownPlayer", true, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := foggedEngine(t, "B0:3 . . . . . B1:3")
			e.settings.FogOfWar = tt.fog
			assert.Equal(t, 7, count(e.VisibleMask(tt.viewer)))
		})
	}
}

func TestEngine_EliminatedPlayerSeesEverything(t *testing.T) {
	e := foggedEngine(t, "B0:3 . . . . . B1:3", "B2:3 . . . . . .")
	assert.Less(t, count(e.VisibleMask(1)), 14)

	_, err := e.Eliminate(1, "left")
	require.NoError(t, err)
	assert.Equal(t, 14, count(e.VisibleMask(1)))
}
