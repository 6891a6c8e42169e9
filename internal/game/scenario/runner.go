package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
)

// Mismatch is one failed expectation
type Mismatch struct {
	Tick int
	What string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("tick %d: %s", m.Tick, m.What)
}

// Report summarises a scenario run
type Report struct {
	Name       string
	Ticks      int
	Outcome    *game.Outcome
	Skipped    int
	Mismatches []Mismatch
}

// Passed reports whether every expectation held
func (r *Report) Passed() bool { return len(r.Mismatches) == 0 }

// NewEngine builds the scenario's starting position
func (s *Scenario) NewEngine(matchID string, bus *events.EventBus, logger zerolog.Logger) (*game.Engine, error) {
	g, err := core.ParseLayout(s.Grid...)
	if err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	var players []game.Player
	for idx := range g.T {
		t := &g.T[idx]
		if t.IsBase() && !t.IsNeutral() {
			players = append(players, game.Player{ID: t.Owner, Base: g.Coord(idx)})
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	return game.NewEngine(game.EngineConfig{
		MatchID:  matchID,
		Grid:     g,
		Players:  players,
		Settings: s.GameSettings(),
		EventBus: bus,
		Logger:   logger,
	})
}

// Run advances e through the script and checks every expectation. onTick,
// when set, sees each committed tick. Engine errors abort the run; failed
// expectations do not.
func (s *Scenario) Run(ctx context.Context, e *game.Engine, onTick func(*game.TickResult)) (*Report, error) {
	script := make(map[int][]core.Order, len(s.Script))
	for _, st := range s.Script {
		for _, o := range st.Orders {
			order, err := o.order()
			if err != nil {
				return nil, fmt.Errorf("script tick %d: %w", st.Tick, err)
			}
			script[st.Tick] = append(script[st.Tick], order)
		}
	}
	expect := make(map[int][]Expect, len(s.Expect))
	for _, ex := range s.Expect {
		expect[ex.Tick] = append(expect[ex.Tick], ex)
	}

	rep := &Report{Name: s.Name}
	for tick := e.Tick() + 1; tick <= s.Length() && !e.IsOver(); tick++ {
		res, err := e.Step(ctx, script[tick])
		if err != nil {
			return rep, fmt.Errorf("scenario %q: %w", s.Name, err)
		}
		rep.Ticks = res.Tick
		rep.Skipped += len(res.Skipped)
		if onTick != nil {
			onTick(res)
		}
		for _, ex := range expect[res.Tick] {
			rep.Mismatches = append(rep.Mismatches, check(e, ex)...)
		}
	}
	rep.Outcome = e.Outcome()

	for _, ex := range s.Expect {
		if ex.Tick > rep.Ticks {
			rep.Mismatches = append(rep.Mismatches, Mismatch{
				Tick: ex.Tick,
				What: fmt.Sprintf("never reached, match stopped at tick %d", rep.Ticks),
			})
		}
	}
	return rep, nil
}

func check(e *game.Engine, ex Expect) []Mismatch {
	var out []Mismatch
	fail := func(format string, args ...any) {
		out = append(out, Mismatch{Tick: ex.Tick, What: fmt.Sprintf(format, args...)})
	}

	for _, te := range ex.Tiles {
		c := core.Coordinate{X: te.X, Y: te.Y}
		t := e.Grid().At(c)
		if t == nil {
			fail("tile %s is off the grid", c)
			continue
		}
		if te.Owner != nil && t.Owner != *te.Owner {
			fail("tile %s owner = %d, want %d", c, t.Owner, *te.Owner)
		}
		if te.Soldiers != nil && t.Soldiers != *te.Soldiers {
			fail("tile %s soldiers = %d, want %d", c, t.Soldiers, *te.Soldiers)
		}
		if te.CaptureRemaining != nil && t.CaptureRemaining != *te.CaptureRemaining {
			fail("tile %s capture_remaining = %d, want %d", c, t.CaptureRemaining, *te.CaptureRemaining)
		}
	}

	for _, id := range ex.Eliminated {
		if e.IsAlive(id) {
			fail("player %d is alive, want eliminated", id)
		}
	}
	for _, id := range ex.Alive {
		if !e.IsAlive(id) {
			fail("player %d is eliminated, want alive", id)
		}
	}

	if ex.Outcome != nil {
		got := e.Outcome()
		switch {
		case got == nil:
			fail("match still running, want outcome %+v", *ex.Outcome)
		case got.Draw != ex.Outcome.Draw || (!got.Draw && got.Winner != ex.Outcome.Winner):
			fail("outcome = %+v, want %+v", *got, *ex.Outcome)
		}
	}
	return out
}
