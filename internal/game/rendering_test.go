package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBoard_Cells(t *testing.T) {
	e := newTestEngine(t, "B0:12 W/7 M S:2 . B1:3")

	lines := strings.Split(e.Board(-1, false), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	row := lines[1]
	assert.True(t, strings.HasPrefix(row, "  0"))
	assert.Contains(t, row, " ♔ 12")
	assert.Contains(t, row, " ▦/ 7")
	assert.Contains(t, row, " ▲   ")
	assert.Contains(t, row, " ≈  2")
	assert.Contains(t, row, " ♔  3")
	assert.NotContains(t, row, "\033[")
}

func TestRenderBoard_FogAndColor(t *testing.T) {
	e := foggedEngine(t, "B0:1 . . . . B1:1")

	board := e.Board(0, true)
	assert.Contains(t, board, ColorRed+" ♔  1"+ColorReset)
	assert.Contains(t, board, " ♔  ?", "the enemy base is fogged")
	assert.NotContains(t, board, ColorBlue)
	assert.Contains(t, board, "? fog")
}

func TestRenderBoard_BreachedWallDrawsAsPlain(t *testing.T) {
	e := newTestEngine(t, "B0:1 W0:4 B1:1")

	row := strings.Split(e.Board(-1, false), "\n")[1]
	assert.Contains(t, row, " ·  4")
	assert.NotContains(t, row, "▦")
}
