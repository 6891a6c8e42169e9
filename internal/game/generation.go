package game

import (
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// GenerationSummary totals one generation phase.
type GenerationSummary struct {
	Tiles     int // tiles that gained soldiers
	Generated int
	Drained   int
}

// GenerationManager applies soldier growth and terrain drain
type GenerationManager struct {
	plainPeriod int
	logger      zerolog.Logger
}

// NewGenerationManager creates a new generation manager
func NewGenerationManager(plainPeriod int, logger zerolog.Logger) *GenerationManager {
	return &GenerationManager{
		plainPeriod: plainPeriod,
		logger:      logger.With().Str("component", "GenerationManager").Logger(),
	}
}

// Apply runs the generation phase for the given tick. Growth only happens on
// tiles owned by live players; drain runs afterwards on every tile whatever
// its owner, so a tile reinforced this tick can still be drained.
func (gm *GenerationManager) Apply(ms *MatchState, tick int) GenerationSummary {
	periodic := tick%gm.plainPeriod == 0
	gm.logger.Debug().
		Int("tick", tick).
		Bool("periodic", periodic).
		Msg("Processing generation")

	var sum GenerationSummary
	for idx := range ms.Grid.T {
		tile := &ms.Grid.T[idx]
		b := tile.Behavior()

		if !tile.IsNeutral() && ms.IsAlive(tile.Owner) {
			if grown := yield(b.Yield, periodic); grown > 0 {
				tile.Soldiers += grown
				sum.Tiles++
				sum.Generated += grown
				ms.markChanged(idx)
			}
		}

		if b.Drain > 0 && tile.Soldiers > 0 {
			lost := min(b.Drain, tile.Soldiers)
			tile.Soldiers -= lost
			sum.Drained += lost
			ms.markChanged(idx)
		}
	}

	gm.logger.Debug().
		Int("tiles_generated", sum.Tiles).
		Int("soldiers_generated", sum.Generated).
		Int("soldiers_drained", sum.Drained).
		Msg("Generation complete")
	return sum
}

func yield(y core.Yield, periodic bool) int {
	switch y {
	case core.YieldEveryTick:
		return 1
	case core.YieldPeriodic:
		if periodic {
			return 1
		}
	}
	return 0
}
