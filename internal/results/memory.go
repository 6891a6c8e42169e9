package results

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryRecorder keeps results in process memory
type MemoryRecorder struct {
	mu      sync.RWMutex
	results []MatchResult
	byID    map[string]int
	logger  zerolog.Logger
}

// NewMemoryRecorder creates an empty in-memory recorder
func NewMemoryRecorder(logger zerolog.Logger) *MemoryRecorder {
	return &MemoryRecorder{
		byID:   make(map[string]int),
		logger: logger.With().Str("component", "MemoryRecorder").Logger(),
	}
}

// Record stores r; recording the same match twice is an error
func (m *MemoryRecorder) Record(ctx context.Context, r MatchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[r.MatchID]; ok {
		return fmt.Errorf("result for match %s already recorded", r.MatchID)
	}
	players := make([]PlayerResult, len(r.Players))
	copy(players, r.Players)
	r.Players = players

	m.byID[r.MatchID] = len(m.results)
	m.results = append(m.results, r)

	m.logger.Info().
		Str("match_id", r.MatchID).
		Int("winner", r.Winner).
		Bool("draw", r.Draw).
		Int("ticks", r.Ticks).
		Msg("Match result recorded")
	return nil
}

// Get returns the result recorded for matchID
func (m *MemoryRecorder) Get(matchID string) (MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[matchID]
	if !ok {
		return MatchResult{}, false
	}
	return m.results[i], true
}

// All returns every result in recording order
func (m *MemoryRecorder) All() []MatchResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]MatchResult, len(m.results))
	copy(out, m.results)
	return out
}

func (m *MemoryRecorder) Close() error { return nil }
