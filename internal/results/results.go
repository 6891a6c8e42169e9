// Package results records the outcome of finished matches.
package results

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PlayerResult is one participant's line in a finished match
type PlayerResult struct {
	PlayerID     int    `json:"player_id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	Soldiers     int    `json:"soldiers"`
	Tiles        int    `json:"tiles"`
	Alive        bool   `json:"alive"`
	EliminatedAt int    `json:"eliminated_at,omitempty"`
	EliminatedBy int    `json:"eliminated_by"`
}

// MatchResult is written once per match when it reaches a terminal state
type MatchResult struct {
	MatchID   string         `json:"match_id"`
	Winner    int            `json:"winner"` // -1 on a draw
	Draw      bool           `json:"draw"`
	Ticks     int            `json:"ticks"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   time.Time      `json:"ended_at"`
	Players   []PlayerResult `json:"players"`
}

// Duration is the wall time between start and end
func (r MatchResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Recorder stores match results. Implementations must be safe for
// concurrent use; the scheduler records from several goroutines.
type Recorder interface {
	Record(ctx context.Context, r MatchResult) error
	Close() error
}

// Open returns the recorder selected by driver ("memory" or "postgres")
func Open(ctx context.Context, driver, dsn string, logger zerolog.Logger) (Recorder, error) {
	switch driver {
	case "", "memory":
		return NewMemoryRecorder(logger), nil
	case "postgres":
		return NewPostgresRecorder(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("unknown results driver %q", driver)
	}
}
