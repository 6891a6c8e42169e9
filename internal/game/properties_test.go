package game

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/mapgen"
	"github.com/mitchelldurbincs/FlagWars/internal/game/rules"
	"github.com/mitchelldurbincs/FlagWars/internal/testutil"
)

// generatedEngine builds a match on a generated map with every slot taken.
func generatedEngine(t testing.TB, seed int64, players int) *Engine {
	t.Helper()
	layout, err := mapgen.NewGenerator(mapgen.DefaultMapConfig(20, 15, players), testutil.NewTestRNG(seed)).Generate()
	require.NoError(t, err)

	settings := DefaultSettings()
	ps := make([]Player, players)
	for i, base := range layout.Bases {
		require.NoError(t, PlaceBase(layout.Grid, i, base, settings.InitialBaseSoldiers))
		ps[i] = Player{ID: i, Base: base}
	}
	e, err := NewEngine(EngineConfig{
		MatchID:  "match-prop",
		Grid:     layout.Grid,
		Players:  ps,
		Settings: settings,
		Logger:   testutil.NopLogger(),
	})
	require.NoError(t, err)
	return e
}

// randomOrders picks up to perPlayer legal orders per live player, with a
// mix of full and partial amounts.
func randomOrders(e *Engine, rng *rand.Rand, perPlayer int) []core.Order {
	lmc := rules.NewLegalMoveCalculator()
	var out []core.Order
	for _, p := range e.Players() {
		legal := lmc.LegalOrders(e.Grid(), p)
		if len(legal) == 0 {
			continue
		}
		for i := 0; i < perPlayer; i++ {
			o := legal[rng.Intn(len(legal))]
			if rng.Intn(3) == 0 {
				if n := e.Grid().At(o.Origin).Soldiers; n > 1 {
					o.Amount = 1 + rng.Intn(n-1)
				}
			}
			out = append(out, o)
		}
	}
	return out
}

func generationDelta(res *TickResult) int {
	for _, ev := range res.Events {
		if g, ok := ev.(*events.GenerationAppliedEvent); ok {
			return g.SoldiersGenerated - g.SoldiersDrained
		}
	}
	return 0
}

func TestProperties_RandomPlay(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		e := generatedEngine(t, seed, 4)
		rng := rand.New(rand.NewSource(seed))

		terminal := 0
		dead := map[int]bool{}
		for tick := 0; tick < 400 && !e.IsOver(); tick++ {
			before := e.TotalSoldiers()
			res, err := e.Step(context.Background(), randomOrders(e, rng, 6))
			require.NoError(t, err, "seed %d tick %d", seed, tick)

			require.NoError(t, e.CheckInvariants())
			for _, t0 := range e.Grid().T {
				assert.GreaterOrEqual(t, t0.Soldiers, 0)
				assert.GreaterOrEqual(t, t0.CaptureRemaining, 0)
			}

			// Movement only moves soldiers and combat only destroys them.
			assert.LessOrEqual(t, e.TotalSoldiers(), before+generationDelta(res), "seed %d tick %d", seed, res.Tick)

			for _, p := range e.Players() {
				if dead[p.ID] {
					assert.False(t, p.Alive, "player %d revived", p.ID)
				}
				if !p.Alive {
					dead[p.ID] = true
					continue
				}
				assert.Equal(t, p.ID, e.Grid().At(p.Base).Owner, "alive player holds their base")
			}
			if res.Outcome != nil {
				terminal++
			}
		}
		assert.LessOrEqual(t, terminal, 1, "seed %d", seed)
		if e.IsOver() {
			_, err := e.Step(context.Background(), nil)
			assert.ErrorIs(t, err, core.ErrMatchOver)
		}
	}
}

func TestProperties_Deterministic(t *testing.T) {
	run := func() *Snapshot {
		e := generatedEngine(t, 99, 3)
		rng := rand.New(rand.NewSource(5))
		for i := 0; i < 120 && !e.IsOver(); i++ {
			_, err := e.Step(context.Background(), randomOrders(e, rng, 4))
			require.NoError(t, err)
		}
		return e.Snapshot()
	}
	assert.Equal(t, run(), run())
}

func TestProperties_OrderOfSubmissionIsIrrelevant(t *testing.T) {
	a := generatedEngine(t, 3, 4)
	b := generatedEngine(t, 3, 4)
	rng := rand.New(rand.NewSource(11))

	for i := 0; i < 60 && !a.IsOver(); i++ {
		orders := randomOrders(a, rng, 3)
		// One order per origin so both engines see the same set.
		seen := map[core.Coordinate]bool{}
		var unique []core.Order
		for _, o := range orders {
			if !seen[o.Origin] {
				seen[o.Origin] = true
				unique = append(unique, o)
			}
		}
		reversed := make([]core.Order, len(unique))
		for j, o := range unique {
			reversed[len(unique)-1-j] = o
		}

		_, err := a.Step(context.Background(), unique)
		require.NoError(t, err)
		_, err = b.Step(context.Background(), reversed)
		require.NoError(t, err)
		require.Equal(t, a.Snapshot().Tiles, b.Snapshot().Tiles, "tick %d", a.Tick())
	}
}
