package game

import (
	"fmt"
	"strings"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// ANSI color codes for terminal rendering
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
	ColorGray   = "\033[90m"
)

// playerColors follows the order of the player palette
var playerColors = []string{ColorRed, ColorBlue, ColorGreen, ColorYellow, ColorPurple, ColorCyan, ColorWhite, ColorGray}

var kindSymbols = map[core.Kind]string{
	core.KindPlain:    "·",
	core.KindBase:     "♔",
	core.KindTower:    "⬢",
	core.KindWall:     "▦",
	core.KindMountain: "▲",
	core.KindSwamp:    "≈",
}

// Board returns a text rendering of the grid as viewer sees it. Each cell
// is a terrain symbol followed by its soldier count; fogged cells show only
// the symbol. Pass -1 to render the full board.
func (e *Engine) Board(viewer int, color bool) string {
	return RenderBoard(e.View(viewer), e.ms.Grid.W, e.ms.Grid.H, color)
}

// RenderBoard draws row-major tile views
func RenderBoard(views []TileView, width, height int, color bool) string {
	var sb strings.Builder
	sb.Grow((width*6 + 4) * (height + 3))

	sb.WriteString("   ")
	for x := 0; x < width; x++ {
		fmt.Fprintf(&sb, "%5d", x)
	}
	sb.WriteString("\n")

	for y := 0; y < height; y++ {
		fmt.Fprintf(&sb, "%3d", y)
		for x := 0; x < width; x++ {
			writeCell(&sb, views[y*width+x], color)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n· plain  ♔ base  ⬢ tower  ▦ wall  ▲ mountain  ≈ swamp  ? fog\n")
	return sb.String()
}

func writeCell(sb *strings.Builder, v TileView, color bool) {
	symbol := kindSymbols[v.Kind]
	if v.Kind == core.KindWall && v.CaptureRemaining == 0 && !v.Fogged {
		symbol = kindSymbols[core.KindPlain]
	}

	var body string
	switch {
	case v.Fogged:
		body = fmt.Sprintf(" %s  ?", symbol)
	case v.CaptureRemaining > 0:
		body = fmt.Sprintf(" %s/%2d", symbol, v.CaptureRemaining)
	case v.Owner == core.NeutralID && v.Soldiers == 0:
		body = fmt.Sprintf(" %s   ", symbol)
	default:
		body = fmt.Sprintf(" %s%3d", symbol, v.Soldiers)
	}

	if color && v.Owner != core.NeutralID {
		sb.WriteString(playerColors[v.Owner%len(playerColors)])
		sb.WriteString(body)
		sb.WriteString(ColorReset)
		return
	}
	sb.WriteString(body)
}
