package testutil

import "github.com/mitchelldurbincs/FlagWars/internal/game/core"

// ParseGrid builds a fixture grid; see core.ParseLayout for the cell syntax.
func ParseGrid(rows ...string) (*core.Grid, error) {
	return core.ParseLayout(rows...)
}

// MustParseGrid is ParseGrid for fixtures known to be well formed.
func MustParseGrid(rows ...string) *core.Grid {
	g, err := ParseGrid(rows...)
	if err != nil {
		panic(err)
	}
	return g
}
