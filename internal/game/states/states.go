package states

import (
	"fmt"
	"time"
)

type initializingState struct{}

func (initializingState) Phase() MatchPhase                 { return PhaseInitializing }
func (initializingState) Enter(ctx *MatchContext) error    { return nil }
func (initializingState) Exit(ctx *MatchContext) error     { return nil }
func (initializingState) Validate(ctx *MatchContext) error { return nil }

type lobbyState struct{}

func (lobbyState) Phase() MatchPhase { return PhaseLobby }

func (lobbyState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("player_count", ctx.PlayerCount).
		Int("max_players", ctx.MaxPlayers).
		Msg("Lobby open, waiting for players")
	return nil
}

func (lobbyState) Exit(ctx *MatchContext) error { return nil }

func (lobbyState) Validate(ctx *MatchContext) error {
	if ctx.MaxPlayers < 1 {
		return fmt.Errorf("max players must be at least 1, got %d", ctx.MaxPlayers)
	}
	return nil
}

type countdownState struct{}

func (countdownState) Phase() MatchPhase { return PhaseCountdown }

func (countdownState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().Int("player_count", ctx.PlayerCount).Msg("All players ready, countdown started")
	return nil
}

func (countdownState) Exit(ctx *MatchContext) error { return nil }

func (countdownState) Validate(ctx *MatchContext) error {
	if !ctx.HasEnoughPlayers() {
		return fmt.Errorf("not enough players to start: have %d, need at least %d", ctx.PlayerCount, ctx.MinPlayers)
	}
	return nil
}

type runningState struct{}

func (runningState) Phase() MatchPhase { return PhaseRunning }

func (runningState) Enter(ctx *MatchContext) error {
	ctx.StartTime = time.Now()
	ctx.Logger.Info().
		Int("player_count", ctx.PlayerCount).
		Time("start_time", ctx.StartTime).
		Msg("Match started")
	return nil
}

func (runningState) Exit(ctx *MatchContext) error { return nil }

func (runningState) Validate(ctx *MatchContext) error {
	if !ctx.HasEnoughPlayers() {
		return fmt.Errorf("not enough players to start: have %d, need at least %d", ctx.PlayerCount, ctx.MinPlayers)
	}
	return nil
}

type endedState struct{}

func (endedState) Phase() MatchPhase { return PhaseEnded }

func (endedState) Enter(ctx *MatchContext) error {
	ctx.EndTime = time.Now()
	ctx.Logger.Info().
		Int("winner", ctx.Winner).
		Bool("draw", ctx.Draw).
		Dur("match_duration", ctx.Elapsed()).
		Msg("Match ended")
	return nil
}

func (endedState) Exit(ctx *MatchContext) error     { return nil }
func (endedState) Validate(ctx *MatchContext) error { return nil }

type errorState struct{}

func (errorState) Phase() MatchPhase { return PhaseError }

func (errorState) Enter(ctx *MatchContext) error {
	ctx.EndTime = time.Now()
	ctx.Logger.Error().Err(ctx.Error).Msg("Match entered error state")
	return nil
}

func (errorState) Exit(ctx *MatchContext) error { return nil }

func (errorState) Validate(ctx *MatchContext) error {
	if ctx.Error == nil {
		return fmt.Errorf("error state requires an error in context")
	}
	return nil
}
