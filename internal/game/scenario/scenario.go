// Package scenario loads scripted matches from YAML. A scenario fixes the
// grid, the settings and the orders issued on each tick, and lists the
// state expected at chosen ticks. The simulator and the engine tests both
// run them.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// Scenario is the decoded form of a scenario file
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Settings    SettingsSpec `yaml:"settings"`

	// Grid rows use the core.ParseLayout cell syntax. Every owned Base
	// introduces the player who owns it.
	Grid   []string `yaml:"grid"`
	Ticks  int      `yaml:"ticks"`
	Script []Step   `yaml:"script"`
	Expect []Expect `yaml:"expect"`
}

// SettingsSpec overrides game.DefaultSettings field by field
type SettingsSpec struct {
	PlainPeriod         *int  `yaml:"plain_period"`
	InitialBaseSoldiers *int  `yaml:"initial_base_soldiers"`
	FogOfWar            *bool `yaml:"fog_of_war"`
	VisionRadius        *int  `yaml:"vision_radius"`
}

// Step lists the orders submitted before a tick runs
type Step struct {
	Tick   int         `yaml:"tick"`
	Orders []OrderSpec `yaml:"orders"`
}

type OrderSpec struct {
	Player int    `yaml:"player"`
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Dir    string `yaml:"dir"`
	Amount int    `yaml:"amount"`
}

// Expect is checked right after its tick commits
type Expect struct {
	Tick       int          `yaml:"tick"`
	Tiles      []TileExpect `yaml:"tiles"`
	Eliminated []int        `yaml:"eliminated"`
	Alive      []int        `yaml:"alive"`
	Outcome    *OutcomeSpec `yaml:"outcome"`
}

// TileExpect checks only the fields that are set
type TileExpect struct {
	X                int  `yaml:"x"`
	Y                int  `yaml:"y"`
	Owner            *int `yaml:"owner"`
	Soldiers         *int `yaml:"soldiers"`
	CaptureRemaining *int `yaml:"capture_remaining"`
}

type OutcomeSpec struct {
	Winner int  `yaml:"winner"`
	Draw   bool `yaml:"draw"`
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates scenario YAML
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the scenario without running it
func (s *Scenario) Validate() error {
	g, err := core.ParseLayout(s.Grid...)
	if err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := s.GameSettings().Validate(); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	if s.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", s.Ticks)
	}
	for _, st := range s.Script {
		if st.Tick < 1 {
			return fmt.Errorf("script tick %d: ticks start at 1", st.Tick)
		}
		for _, o := range st.Orders {
			if _, err := o.order(); err != nil {
				return fmt.Errorf("script tick %d: %w", st.Tick, err)
			}
		}
	}
	for _, ex := range s.Expect {
		if ex.Tick < 1 {
			return fmt.Errorf("expect tick %d: ticks start at 1", ex.Tick)
		}
		for _, te := range ex.Tiles {
			if !g.InBounds(core.Coordinate{X: te.X, Y: te.Y}) {
				return fmt.Errorf("expect tick %d: tile (%d,%d): %w", ex.Tick, te.X, te.Y, core.ErrOutOfBounds)
			}
		}
	}
	return nil
}

// GameSettings applies the overrides to the default rule set
func (s *Scenario) GameSettings() game.Settings {
	out := game.DefaultSettings()
	if v := s.Settings.PlainPeriod; v != nil {
		out.PlainPeriod = *v
	}
	if v := s.Settings.InitialBaseSoldiers; v != nil {
		out.InitialBaseSoldiers = *v
	}
	if v := s.Settings.FogOfWar; v != nil {
		out.FogOfWar = *v
	}
	if v := s.Settings.VisionRadius; v != nil {
		out.VisionRadius = *v
	}
	return out
}

// Length is the number of ticks Run advances at most: the declared tick
// count, or the last scripted or expected tick when that is later.
func (s *Scenario) Length() int {
	n := s.Ticks
	for _, st := range s.Script {
		n = max(n, st.Tick)
	}
	for _, ex := range s.Expect {
		n = max(n, ex.Tick)
	}
	return n
}

func (o OrderSpec) order() (core.Order, error) {
	dir, err := core.ParseDirection(o.Dir)
	if err != nil {
		return core.Order{}, err
	}
	if o.Amount < 0 {
		return core.Order{}, core.ErrInvalidAmount
	}
	return core.Order{
		PlayerID:  o.Player,
		Origin:    core.Coordinate{X: o.X, Y: o.Y},
		Direction: dir,
		Amount:    o.Amount,
	}, nil
}
