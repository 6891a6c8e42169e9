package main

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/config"
	"github.com/mitchelldurbincs/FlagWars/internal/game/scenario"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

func TestBots_OneLegalOrderPerPlayer(t *testing.T) {
	s, err := scenario.Parse([]byte(`
name: bots
grid:
  - "B0:6 . . . B1:6"
  - ". M . . ."
`))
	require.NoError(t, err)
	e, err := s.NewEngine("bots", nil, testutil.NopLogger())
	require.NoError(t, err)

	b := newBots(rand.New(rand.NewSource(1)))
	for i := 0; i < 20 && !e.IsOver(); i++ {
		orders := b.orders(e)
		seen := map[int]bool{}
		for _, o := range orders {
			assert.False(t, seen[o.PlayerID], "one order per player")
			seen[o.PlayerID] = true
			assert.NoError(t, o.Validate(e.Grid()))
		}
		_, err := e.Step(context.Background(), orders)
		require.NoError(t, err)
	}
}

func TestPlay(t *testing.T) {
	require.NoError(t, play(context.Background(), config.Get(), 2, 30, 3, 0, false))
}

func TestReplay(t *testing.T) {
	assert.NoError(t, replay(context.Background(), "../../internal/game/scenario/testdata/plain_growth.yaml", false))
	assert.Error(t, replay(context.Background(), "missing.yaml", false))
}
