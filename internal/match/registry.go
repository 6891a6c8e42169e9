package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/states"
	"github.com/mitchelldurbincs/FlagWars/internal/results"
)

// RegistryConfig bounds the number of live matches and how long they linger
type RegistryConfig struct {
	MaxMatches      int // 0 means unlimited
	FinishedLinger  time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultRegistryConfig mirrors the server defaults
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxMatches:      100,
		FinishedLinger:  30 * time.Second,
		IdleTimeout:     10 * time.Minute,
		CleanupInterval: 30 * time.Second,
	}
}

const recordTimeout = 5 * time.Second

// Registry owns every live match on the server
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*Match

	cfg      RegistryConfig
	defaults func() Config
	recorder results.Recorder
	onCreate func(*Match)
	logger   zerolog.Logger
	root     zerolog.Logger

	pending sync.WaitGroup
}

// NewRegistry creates a registry. defaults is consulted on every Create so
// configuration reloads reach new matches; recorder may be nil.
func NewRegistry(cfg RegistryConfig, defaults func() Config, recorder results.Recorder, logger zerolog.Logger) *Registry {
	if defaults == nil {
		defaults = DefaultConfig
	}
	return &Registry{
		matches:  make(map[string]*Match),
		cfg:      cfg,
		defaults: defaults,
		recorder: recorder,
		logger:   logger.With().Str("component", "Registry").Logger(),
		root:     logger,
	}
}

// OnCreate registers a hook run for every new match before it is listed
func (r *Registry) OnCreate(fn func(*Match)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCreate = fn
}

// Create opens a new match. A nil cfg uses the current defaults; a zero
// seed is replaced with a time-based one.
func (r *Registry) Create(cfg *Config) (*Match, error) {
	c := r.defaults()
	if cfg != nil {
		c = *cfg
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}

	if r.cfg.MaxMatches > 0 && r.Active() >= r.cfg.MaxMatches {
		return nil, r.rejectCapacity()
	}

	m, err := New(uuid.NewString(), c, r.root)
	if err != nil {
		return nil, err
	}
	m.OnEnd(r.record)

	r.mu.Lock()
	if r.cfg.MaxMatches > 0 && len(r.matches) >= r.cfg.MaxMatches {
		r.mu.Unlock()
		m.Close()
		return nil, r.rejectCapacity()
	}
	hook := r.onCreate
	r.matches[m.ID()] = m
	count := len(r.matches)
	r.mu.Unlock()

	if hook != nil {
		hook(m)
	}
	r.logger.Info().
		Str("match_id", m.ID()).
		Int("active_matches", count).
		Msg("Registered match")
	return m, nil
}

func (r *Registry) rejectCapacity() error {
	r.logger.Warn().
		Int("max_matches", r.cfg.MaxMatches).
		Msg("Rejecting match creation - server at capacity")
	return fmt.Errorf("%w: %d matches active", ErrServerAtCapacity, r.cfg.MaxMatches)
}

// Get looks up a match by ID
func (r *Registry) Get(id string) (*Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, ErrMatchNotFound)
	}
	return m, nil
}

// Matches returns the live matches in creation order
func (r *Registry) Matches() []*Match {
	r.mu.RLock()
	out := make([]*Match, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, m)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].createdAt.Before(out[j].createdAt)
		}
		return out[i].id < out[j].id
	})
	return out
}

// List returns the room listing
func (r *Registry) List() []Info {
	matches := r.Matches()
	out := make([]Info, len(matches))
	for i, m := range matches {
		out[i] = m.Info()
	}
	return out
}

// Active counts registered matches
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// QuickJoin seats the player in the oldest lobby with a free slot, or in a
// new match when none has room.
func (r *Registry) QuickJoin(name string, sink Sink) (*Match, Session, error) {
	for _, m := range r.Matches() {
		if m.Phase() != states.PhaseLobby {
			continue
		}
		sess, err := m.Join(name, sink)
		if err == nil {
			return m, sess, nil
		}
		if !errors.Is(err, ErrMatchFull) && !errors.Is(err, ErrMatchStarted) && !errors.Is(err, ErrMatchClosed) {
			return nil, Session{}, err
		}
	}

	m, err := r.Create(nil)
	if err != nil {
		return nil, Session{}, err
	}
	sess, err := m.Join(name, sink)
	if err != nil {
		return nil, Session{}, err
	}
	return m, sess, nil
}

// Remove closes and forgets a match
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	m, ok := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()

	if ok {
		m.Close()
	}
	return ok
}

// Cleanup removes finished matches once they have lingered or lost every
// connection, and matches nobody has touched within the idle timeout. It
// returns the number removed.
func (r *Registry) Cleanup(now time.Time) int {
	// Snapshot without holding the registry lock while taking match locks.
	matches := r.Matches()

	type removal struct {
		m      *Match
		reason string
	}
	var doomed []removal
	for _, m := range matches {
		if reason := r.expired(m, now); reason != "" {
			doomed = append(doomed, removal{m, reason})
		}
	}
	if len(doomed) == 0 {
		return 0
	}

	r.mu.Lock()
	for _, d := range doomed {
		delete(r.matches, d.m.ID())
	}
	remaining := len(r.matches)
	r.mu.Unlock()

	for _, d := range doomed {
		d.m.Close()
		r.logger.Info().
			Str("match_id", d.m.ID()).
			Str("reason", d.reason).
			Dur("age", now.Sub(d.m.createdAt)).
			Dur("inactive", now.Sub(d.m.LastActivity())).
			Msg("Cleaning up match")
	}
	r.logger.Info().
		Int("cleaned", len(doomed)).
		Int("remaining", remaining).
		Msg("Match cleanup completed")
	return len(doomed)
}

func (r *Registry) expired(m *Match, now time.Time) string {
	if m.Phase().IsTerminal() {
		if m.Connections() == 0 {
			return "finished, no connections"
		}
		if now.Sub(m.EndedAt()) >= r.cfg.FinishedLinger {
			return "finished linger expired"
		}
		return ""
	}
	if r.cfg.IdleTimeout > 0 && m.Connections() == 0 && now.Sub(m.LastActivity()) >= r.cfg.IdleTimeout {
		return "abandoned (no connections or activity)"
	}
	return ""
}

// RunCleanup sweeps on the configured interval until ctx is done
func (r *Registry) RunCleanup(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Msg("Match cleanup goroutine panicked - restarting")
			time.Sleep(time.Second)
			go r.RunCleanup(ctx)
		}
	}()

	interval := r.cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultRegistryConfig().CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Cleanup(now)
		}
	}
}

// record stores a finished match without blocking the tick that ended it
func (r *Registry) record(res results.MatchResult) {
	if r.recorder == nil {
		return
	}
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.recorder.Record(ctx, res); err != nil {
			r.logger.Error().Err(err).Str("match_id", res.MatchID).Msg("Failed to record match result")
			return
		}
		r.logger.Debug().Str("match_id", res.MatchID).Msg("Recorded match result")
	}()
}

// Close closes every match and waits for pending result writes
func (r *Registry) Close() {
	r.mu.Lock()
	matches := r.matches
	r.matches = make(map[string]*Match)
	r.mu.Unlock()

	for _, m := range matches {
		m.Close()
	}
	r.pending.Wait()
	r.logger.Info().Int("closed", len(matches)).Msg("Registry closed")
}
