package common

import (
	"fmt"
	"image/color"
)

// PlayerColors is the palette handed out to base slots in join order
var PlayerColors = []color.RGBA{
	{255, 0, 0, 255},   // Red
	{0, 0, 255, 255},   // Blue
	{0, 255, 0, 255},   // Green
	{255, 255, 0, 255}, // Yellow
	{255, 0, 255, 255}, // Magenta
	{0, 255, 255, 255}, // Cyan
	{255, 165, 0, 255}, // Orange
	{128, 0, 128, 255}, // Purple
}

// NeutralColor is used for ownerless tiles
var NeutralColor = color.RGBA{120, 120, 120, 255}

// PlayerColor returns the palette entry for a player, wrapping past the
// end of the palette. Negative IDs get NeutralColor.
func PlayerColor(playerID int) color.RGBA {
	if playerID < 0 {
		return NeutralColor
	}
	return PlayerColors[playerID%len(PlayerColors)]
}

// Hex formats c as "#RRGGBB"
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
