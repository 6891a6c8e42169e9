package states

import (
	"time"

	"github.com/rs/zerolog"
)

// MatchContext is the information states consult when validating and logging transitions
type MatchContext struct {
	MatchID string
	Logger  zerolog.Logger

	PlayerCount int
	MinPlayers  int
	MaxPlayers  int

	// StartTime is set on entering PhaseRunning, EndTime on entering PhaseEnded
	StartTime time.Time
	EndTime   time.Time

	// Winner is -1 until a single survivor is known
	Winner int
	Draw   bool

	// Error holds the failure that moved the match into PhaseError
	Error error
}

// NewMatchContext creates a new match context
func NewMatchContext(matchID string, minPlayers, maxPlayers int, logger zerolog.Logger) *MatchContext {
	return &MatchContext{
		MatchID:    matchID,
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		Logger:     logger.With().Str("match_id", matchID).Logger(),
		Winner:     -1,
	}
}

// HasEnoughPlayers returns true if the match can leave the lobby
func (mc *MatchContext) HasEnoughPlayers() bool {
	return mc.PlayerCount >= mc.MinPlayers && mc.PlayerCount <= mc.MaxPlayers
}

// Elapsed returns the running time of the match so far, or its total once ended
func (mc *MatchContext) Elapsed() time.Duration {
	if mc.StartTime.IsZero() {
		return 0
	}
	if !mc.EndTime.IsZero() {
		return mc.EndTime.Sub(mc.StartTime)
	}
	return time.Since(mc.StartTime)
}
