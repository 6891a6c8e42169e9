package rules

import "github.com/rs/zerolog"

// Verdict is the outcome of a win check.
type Verdict struct {
	Over   bool
	Winner int // -1 unless exactly one player is left
	Draw   bool
}

// WinConditionChecker handles match over detection and winner determination
type WinConditionChecker struct {
	logger          zerolog.Logger
	originalPlayers int
}

// NewWinConditionChecker creates a new win condition checker
func NewWinConditionChecker(logger zerolog.Logger, originalPlayers int) *WinConditionChecker {
	return &WinConditionChecker{
		logger:          logger.With().Str("component", "WinConditionChecker").Logger(),
		originalPlayers: originalPlayers,
	}
}

// Check decides whether the match is over based on the number of alive
// players. A match that started with one player only ends when that player
// falls, so a solo sandbox keeps running.
func (wc *WinConditionChecker) Check(players []Player) Verdict {
	aliveCount := 0
	lastAliveID := -1
	for _, p := range players {
		if p.IsAlive() {
			aliveCount++
			lastAliveID = p.GetID()
		}
	}

	over := aliveCount == 0
	if wc.originalPlayers > 1 {
		over = aliveCount <= 1
	}

	v := Verdict{Over: over, Winner: -1}
	switch {
	case over && aliveCount == 1:
		v.Winner = lastAliveID
		wc.logger.Info().Int("winner_player_id", v.Winner).Msg("Winner determined")
	case over:
		v.Draw = true
		wc.logger.Info().Msg("No player left standing, match is a draw")
	}

	wc.logger.Debug().Bool("is_over", over).Int("alive_player_count", aliveCount).Msg("Win check complete")
	return v
}

// Player interface to avoid circular imports
type Player interface {
	GetID() int
	IsAlive() bool
}
