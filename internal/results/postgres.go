package results

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"
)

const schema = `
CREATE TABLE IF NOT EXISTS match_results (
	match_id   TEXT PRIMARY KEY,
	winner     INTEGER NOT NULL,
	draw       BOOLEAN NOT NULL,
	ticks      INTEGER NOT NULL,
	started_at TIMESTAMP WITH TIME ZONE NOT NULL,
	ended_at   TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS match_players (
	match_id      TEXT REFERENCES match_results(match_id) ON DELETE CASCADE,
	player_id     INTEGER NOT NULL,
	name          TEXT NOT NULL,
	color         TEXT NOT NULL,
	soldiers      INTEGER NOT NULL,
	tiles         INTEGER NOT NULL,
	alive         BOOLEAN NOT NULL,
	eliminated_at INTEGER,
	eliminated_by INTEGER NOT NULL,
	PRIMARY KEY (match_id, player_id)
);
`

// PostgresRecorder writes results to PostgreSQL
type PostgresRecorder struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresRecorder connects to dsn and makes sure the schema exists
func NewPostgresRecorder(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresRecorder{
		db:     db,
		logger: logger.With().Str("component", "PostgresRecorder").Logger(),
	}, nil
}

// Record inserts the match row and one row per player in a single
// transaction. A match that was already recorded is left untouched.
func (p *PostgresRecorder) Record(ctx context.Context, r MatchResult) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO match_results (match_id, winner, draw, ticks, started_at, ended_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (match_id) DO NOTHING`,
		r.MatchID, r.Winner, r.Draw, r.Ticks, r.StartedAt, r.EndedAt)
	if err != nil {
		return fmt.Errorf("failed to save match %s: %w", r.MatchID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		p.logger.Warn().Str("match_id", r.MatchID).Msg("Match result already recorded")
		return nil
	}

	for _, pr := range r.Players {
		var eliminatedAt sql.NullInt64
		if !pr.Alive {
			eliminatedAt = sql.NullInt64{Int64: int64(pr.EliminatedAt), Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO match_players (match_id, player_id, name, color, soldiers, tiles, alive, eliminated_at, eliminated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.MatchID, pr.PlayerID, pr.Name, pr.Color, pr.Soldiers, pr.Tiles, pr.Alive, eliminatedAt, pr.EliminatedBy); err != nil {
			return fmt.Errorf("failed to save player %d of match %s: %w", pr.PlayerID, r.MatchID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Info().
		Str("match_id", r.MatchID).
		Int("winner", r.Winner).
		Bool("draw", r.Draw).
		Int("players", len(r.Players)).
		Msg("Match result recorded")
	return nil
}

func (p *PostgresRecorder) Close() error {
	return p.db.Close()
}
