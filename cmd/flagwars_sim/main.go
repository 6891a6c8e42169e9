// Command flagwars_sim plays a match locally, either between random bots on
// a generated map or by replaying a scenario file, and prints the board.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/FlagWars/internal/config"
	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
	"github.com/mitchelldurbincs/FlagWars/internal/game/mapgen"
	"github.com/mitchelldurbincs/FlagWars/internal/game/scenario"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	scenarioPath := flag.String("scenario", "", "Replay a scenario file instead of playing bots")
	players := flag.Int("players", 2, "Number of bots")
	ticks := flag.Int("ticks", 200, "Maximum ticks to play")
	seed := flag.Int64("seed", 0, "Map and bot seed (0 for time based)")
	every := flag.Int("every", 25, "Print the board every N ticks (0 for start and end only)")
	color := flag.Bool("color", true, "Colour the board output")
	verbose := flag.Bool("v", false, "Log at debug level")
	flag.Parse()

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	ctx := context.Background()
	var err error
	if *scenarioPath != "" {
		err = replay(ctx, *scenarioPath, *color)
	} else {
		if err = config.Init(*configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize config")
		}
		if *seed == 0 {
			*seed = time.Now().UnixNano()
		}
		err = play(ctx, config.Get(), *players, *ticks, *seed, *every, *color)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func replay(ctx context.Context, path string, color bool) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	e, err := s.NewEngine("scenario", events.NewEventBus(log.Logger), log.Logger)
	if err != nil {
		return err
	}
	fmt.Printf("Scenario %q: %s\n%s\n", s.Name, s.Description, e.Board(core.NeutralID, color))

	rep, err := s.Run(ctx, e, nil)
	if err != nil {
		return err
	}
	fmt.Printf("After tick %d:\n%s\n", rep.Ticks, e.Board(core.NeutralID, color))
	printStandings(e)
	if rep.Skipped > 0 {
		fmt.Printf("%d orders skipped\n", rep.Skipped)
	}
	if !rep.Passed() {
		for _, m := range rep.Mismatches {
			fmt.Println("FAIL", m)
		}
		return fmt.Errorf("%d expectations failed", len(rep.Mismatches))
	}
	fmt.Println("PASS")
	return nil
}

func play(ctx context.Context, cfg *config.Config, players, ticks int, seed int64, every int, color bool) error {
	rng := rand.New(rand.NewSource(seed))
	mc := cfg.MapConfig()
	mc.BaseSlots = players
	layout, err := mapgen.NewGenerator(mc, rng).Generate()
	if err != nil {
		return err
	}

	settings := cfg.MatchSettings()
	roster := make([]game.Player, players)
	for i := range roster {
		roster[i] = game.Player{ID: i, Base: layout.Bases[i]}
		if err := game.PlaceBase(layout.Grid, i, layout.Bases[i], settings.InitialBaseSoldiers); err != nil {
			return err
		}
	}

	e, err := game.NewEngine(game.EngineConfig{
		MatchID:  fmt.Sprintf("sim-%d", seed),
		Grid:     layout.Grid,
		Players:  roster,
		Settings: settings,
		EventBus: events.NewEventBus(log.Logger),
		Logger:   log.Logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Seed %d, %d bots\n%s\n", seed, players, e.Board(core.NeutralID, color))
	b := newBots(rng)
	for !e.IsOver() && e.Tick() < ticks {
		res, err := e.Step(ctx, b.orders(e))
		if err != nil {
			return err
		}
		if every > 0 && res.Tick%every == 0 {
			fmt.Printf("Tick %d:\n%s\n", res.Tick, e.Board(core.NeutralID, color))
		}
	}

	fmt.Printf("Final board, tick %d:\n%s\n", e.Tick(), e.Board(core.NeutralID, color))
	printStandings(e)
	switch o := e.Outcome(); {
	case o == nil:
		fmt.Println("No winner within the tick limit")
	case o.Draw:
		fmt.Printf("Draw at tick %d\n", o.Tick)
	default:
		fmt.Printf("Player %d wins at tick %d\n", o.Winner, o.Tick)
	}
	return nil
}

func printStandings(e *game.Engine) {
	fmt.Println("Player  Soldiers  Tiles  Alive")
	for _, s := range e.Leaderboard() {
		fmt.Printf("%6d  %8d  %5d  %v\n", s.PlayerID, s.Soldiers, s.Tiles, s.Alive)
	}
}
