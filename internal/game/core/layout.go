package core

import (
	"fmt"
	"strconv"
	"strings"
)

var kindLetters = map[byte]Kind{
	'.': KindPlain,
	'P': KindPlain,
	'B': KindBase,
	'T': KindTower,
	'W': KindWall,
	'M': KindMountain,
	'S': KindSwamp,
}

// ParseLayout builds a grid from whitespace separated cell tokens, one
// string per row. A token is a kind letter, an optional owner digit, an
// optional ":soldiers" and an optional "/capture_remaining":
//
//	B0:10  owned base with 10 soldiers
//	W/10   intact wall, 10 soldiers needed to breach
//	P1:4   plain owned by player 1 holding 4
//	.      empty plain
//	M      mountain
func ParseLayout(rows ...string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	var cells [][]Tile
	for y, row := range rows {
		fields := strings.Fields(row)
		if y > 0 && len(fields) != len(cells[0]) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", y, len(fields), len(cells[0]))
		}
		line := make([]Tile, 0, len(fields))
		for x, tok := range fields {
			tile, err := parseCell(tok)
			if err != nil {
				return nil, fmt.Errorf("cell (%d,%d) %q: %w", x, y, tok, err)
			}
			line = append(line, tile)
		}
		cells = append(cells, line)
	}
	if len(cells[0]) == 0 {
		return nil, fmt.Errorf("empty row")
	}

	g := NewGrid(len(cells[0]), len(cells))
	for y, line := range cells {
		for x, tile := range line {
			g.T[g.Idx(x, y)] = tile
		}
	}
	return g, nil
}

func parseCell(tok string) (Tile, error) {
	kind, ok := kindLetters[tok[0]]
	if !ok {
		return Tile{}, fmt.Errorf("unknown kind letter %q", tok[0])
	}
	tile := Tile{Kind: kind, Owner: NeutralID}
	rest := tok[1:]

	if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
		tile.Owner = int(rest[0] - '0')
		rest = rest[1:]
	}
	if capIdx := strings.IndexByte(rest, '/'); capIdx >= 0 {
		n, err := strconv.Atoi(rest[capIdx+1:])
		if err != nil || n < 0 {
			return Tile{}, fmt.Errorf("bad capture threshold")
		}
		tile.CaptureRemaining = n
		rest = rest[:capIdx]
	}
	if rest != "" {
		if rest[0] != ':' {
			return Tile{}, fmt.Errorf("unexpected %q", rest)
		}
		n, err := strconv.Atoi(rest[1:])
		if err != nil || n < 0 {
			return Tile{}, fmt.Errorf("bad soldier count")
		}
		tile.Soldiers = n
	}
	return tile, nil
}
