package common

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerColors(t *testing.T) {
	want := []string{"#FF0000", "#0000FF", "#00FF00", "#FFFF00", "#FF00FF", "#00FFFF", "#FFA500", "#800080"}
	require.Len(t, PlayerColors, len(want))

	for i, hex := range want {
		t.Run(hex, func(t *testing.T) {
			c := PlayerColor(i)
			assert.Equal(t, hex, Hex(c))
			assert.Equal(t, uint8(255), c.A, "palette colors are opaque")
		})
	}
}

func TestPlayerColor_Wraps(t *testing.T) {
	assert.Equal(t, PlayerColor(0), PlayerColor(8))
	assert.Equal(t, PlayerColor(3), PlayerColor(11))
	assert.Equal(t, NeutralColor, PlayerColor(-1))
}

func TestColorConsistency(t *testing.T) {
	seen := make(map[color.RGBA]int)
	for id, c := range PlayerColors {
		if prev, ok := seen[c]; ok {
			t.Errorf("players %d and %d have the same color", prev, id)
		}
		seen[c] = id
	}
	assert.NotContains(t, PlayerColors, NeutralColor)
}
