package pvpchess

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const methodResignation = "resignation"

// flow-control sentinels; mapped to outcome texts, never returned
var (
	errNotYourTurn = errors.New("not_your_turn")
	errFinished    = errors.New("finished")
)

// Select feeds one square selection by userID into the game's engine.
//
// Refusals a player can cause by playing (wrong turn, finished game, lost
// race with the opponent) come back as outcome text with a nil error.
// Out-of-range squares, strangers and corrupted records are errors.
func (m *Manager) Select(ctx context.Context, gameID, userID string, file, rank int) (*Game, string, error) {
	var ev engine.Event
	g, err := m.update(ctx, gameID, func(cur *Game) error {
		c, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		if !cur.Status.Live() {
			return errFinished
		}
		if cur.Turn != c {
			return errNotYourTurn
		}
		eg, err := engine.Restore(cur.State, m.engineOpts...)
		if err != nil {
			return err
		}
		ev, err = eg.SelectSquare(file, rank)
		if err != nil {
			return err
		}
		if ev.Kind == engine.Ignored {
			return errSkipWrite
		}
		if ev.Move != nil {
			cur.History = append(cur.History, *ev.Move)
		}
		cur.sync(eg)
		return nil
	})
	if text, handled := m.refusal(g, err); handled {
		return g, text, nil
	}
	if err != nil {
		return nil, "", err
	}

	if ev.Kind == engine.Moved {
		obslog.L().Info("pvp_select",
			zap.String("game_id", g.ID),
			zap.String("user_id", strings.TrimSpace(userID)),
			zap.Stringer("from", ev.Move.From),
			zap.Stringer("to", ev.Move.To),
			zap.Stringer("turn", g.Turn),
			zap.String("status", string(g.Status)),
			zap.String("outcome", g.Outcome),
		)
		m.persistIfFinal(ctx, g)
	}
	msg := m.describe(g, ev)
	if ev.Kind != engine.Ignored {
		m.publish(ctx, g, msg)
	}
	return g, msg, nil
}

// Reset discards the current round and deals a fresh Chess960 position to
// the same players. Either participant may reset at any time.
func (m *Manager) Reset(ctx context.Context, gameID, userID string) (*Game, string, error) {
	g, err := m.update(ctx, gameID, func(cur *Game) error {
		if _, ok := cur.ColorOf(userID); !ok {
			return ErrNotParticipant
		}
		cur.Round++
		cur.RoundStartedAt = time.Now()
		cur.History = nil
		cur.Status = StatusActive
		cur.Winner, cur.Outcome, cur.Method = "", "", ""
		cur.sync(engine.New(m.engineOpts...))
		return nil
	})
	if text, handled := m.refusal(g, err); handled {
		return g, text, nil
	}
	if err != nil {
		return nil, "", err
	}
	obslog.L().Info("pvp_reset",
		zap.String("game_id", g.ID),
		zap.String("user_id", strings.TrimSpace(userID)),
		zap.Int("round", g.Round),
		zap.String("back_rank", g.State.BackRank),
	)
	msg := m.text("notice.reset", map[string]any{"BackRank": g.State.BackRank})
	m.publish(ctx, g, msg)
	return g, msg, nil
}

// Resign ends the current round in favour of the opponent.
func (m *Manager) Resign(ctx context.Context, gameID, userID string) (*Game, string, error) {
	g, err := m.update(ctx, gameID, func(cur *Game) error {
		c, ok := cur.ColorOf(userID)
		if !ok {
			return ErrNotParticipant
		}
		if !cur.Status.Live() {
			return ErrGameNotActive
		}
		winner := c.Opposite()
		cur.Status = StatusResigned
		cur.Winner = cur.idOf(winner)
		cur.Outcome = winner.String()
		cur.Method = methodResignation
		cur.State.Result = engine.WinFor(winner)
		cur.State.Method = methodResignation
		cur.State.Selected = nil
		return nil
	})
	if errors.Is(err, redis.TxFailedErr) {
		return nil, "", ErrGameNotActive
	}
	if err != nil {
		return nil, "", err
	}
	obslog.L().Info("pvp_resign",
		zap.String("game_id", g.ID),
		zap.String("resigner", strings.TrimSpace(userID)),
		zap.String("winner", g.Winner),
	)
	m.persistIfFinal(ctx, g)
	msg := m.ResultText(g)
	m.publish(ctx, g, msg)
	return g, msg, nil
}

func (m *Manager) refusal(g *Game, err error) (string, bool) {
	switch {
	case errors.Is(err, redis.TxFailedErr):
		return m.text("notice.concurrent", nil), true
	case errors.Is(err, errFinished):
		return m.text("notice.finished", nil), true
	case errors.Is(err, errNotYourTurn):
		return m.text("notice.not_your_turn", map[string]any{"Color": g.Turn.Title()}), true
	}
	return "", false
}

// sync copies the engine's state into the record and derives the round
// outcome from its result.
func (g *Game) sync(eg *engine.Game) {
	g.State = eg.State()
	b := eg.BoardSnapshot()
	g.FEN = b.FEN()
	g.Turn = eg.CurrentTurn()
	r := eg.GameResult()
	if !r.Terminal() {
		return
	}
	g.Method = eg.Method()
	if c, ok := r.Winner(); ok {
		g.Status = StatusFinished
		g.Winner = g.idOf(c)
		g.Outcome = c.String()
		return
	}
	g.Status = StatusDraw
	g.Winner = ""
	g.Outcome = "draw"
}

func (m *Manager) describe(g *Game, ev engine.Event) string {
	switch ev.Kind {
	case engine.Selected:
		p := g.State.Board.At(ev.Square)
		data := map[string]any{"Piece": p.String(), "Square": ev.Square.String()}
		if len(ev.Moves) == 0 {
			return m.text("notice.no_moves", data)
		}
		names := make([]string, len(ev.Moves))
		for i, sq := range ev.Moves {
			names[i] = sq.String()
		}
		data["Moves"] = strings.Join(names, ", ")
		return m.text("notice.selected", data)
	case engine.Moved:
		mv := ev.Move
		data := map[string]any{"Piece": mv.Piece.String(), "From": mv.From.String(), "To": mv.To.String()}
		key := "move.line"
		if !mv.Captured.IsEmpty() {
			key = "move.capture"
			data["Captured"] = mv.Captured.String()
		}
		lines := []string{m.text(key, data)}
		switch {
		case !g.Status.Live():
			lines = append(lines, m.ResultText(g))
		case ev.Check:
			lines = append(lines, m.text("turn.check", map[string]any{"Color": g.Turn.Title()}))
		}
		return strings.Join(lines, "\n")
	}
	return m.text("notice.ignored", map[string]any{"Square": ev.Square.String()})
}

// ResultText renders the round result banner, or the turn banner while the
// round is live.
func (m *Manager) ResultText(g *Game) string {
	if g.Status.Live() {
		return m.text("turn.banner", map[string]any{"Color": g.Turn.Title()})
	}
	if g.Status == StatusDraw {
		return m.text("result.stalemate", nil)
	}
	winner, err := board.ParseColor(g.Outcome)
	if err != nil {
		return g.Outcome
	}
	data := map[string]any{"Winner": winner.Title(), "Loser": winner.Opposite().Title()}
	switch g.Method {
	case engine.MethodKingCapture:
		return m.text("result.king_capture", data)
	case methodResignation:
		return m.text("result.resigned", data)
	}
	return m.text("result.checkmate", data)
}

func (m *Manager) text(key string, data any) string { return m.cat.Text(key, data) }
