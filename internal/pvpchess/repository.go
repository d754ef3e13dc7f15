package pvpchess

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Schema is the table SaveResult writes to; one row per game round.
const Schema = `CREATE TABLE IF NOT EXISTS chess960_games (
    game_id      TEXT        NOT NULL,
    round        INTEGER     NOT NULL,
    white_id     TEXT        NOT NULL,
    white_name   TEXT        NOT NULL,
    black_id     TEXT        NOT NULL,
    black_name   TEXT        NOT NULL,
    origin_room  TEXT        NOT NULL,
    resolve_room TEXT        NOT NULL,
    back_rank    TEXT        NOT NULL,
    result       TEXT        NOT NULL,
    score        TEXT        NOT NULL,
    method       TEXT        NOT NULL,
    plies        INTEGER     NOT NULL,
    moves        JSONB       NOT NULL,
    final_fen    TEXT        NOT NULL,
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT      NOT NULL,
    PRIMARY KEY (game_id, round)
)`

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an open handle.
func NewRepositoryWithDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Migrate creates the results table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, Schema)
	return err
}

// SaveResult upserts the result of the game's current round.
func (r *Repository) SaveResult(ctx context.Context, g *Game) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	moves, err := json.Marshal(g.History)
	if err != nil {
		return err
	}
	started := g.RoundStartedAt
	if started.IsZero() {
		started = g.CreatedAt
	}
	duration := g.UpdatedAt.Sub(started).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO chess960_games (
        game_id, round, white_id, white_name, black_id, black_name,
        origin_room, resolve_room, back_rank,
        result, score, method, plies, moves, final_fen,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18
      ) ON CONFLICT (game_id, round) DO UPDATE SET
        result=EXCLUDED.result,
        score=EXCLUDED.score,
        method=EXCLUDED.method,
        plies=EXCLUDED.plies,
        moves=EXCLUDED.moves,
        final_fen=EXCLUDED.final_fen,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		g.ID, g.Round,
		g.WhiteID, g.WhiteName,
		g.BlackID, g.BlackName,
		g.OriginRoom, g.ResolveRoom, g.State.BackRank,
		strings.TrimSpace(g.Outcome), Score(g.Outcome), strings.TrimSpace(g.Method),
		g.Plies(), string(moves), g.FEN,
		started, g.UpdatedAt, duration,
	)
	return err
}

// Score maps an outcome token to the conventional score string.
func Score(outcome string) string {
	switch strings.ToLower(strings.TrimSpace(outcome)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}
