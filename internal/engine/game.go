// Package engine drives a two-player Chess960 game one selection at a time.
//
// A Game is owned by a single caller; it is not safe for concurrent use.
// Sessions shared across requests are persisted as State and rebuilt with
// Restore.
package engine

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/rules"
	"go.uber.org/zap"
)

type Game struct {
	board    board.Board
	turn     board.Color
	selected board.Square
	hasSel   bool
	moves    []board.Square
	captured []board.Piece
	result   Result
	method   string
	lastMove *Move
	backRank string
	fault    error

	rng board.Source
	log *zap.Logger
}

type Option func(*Game)

// WithRand fixes the randomness used by Reset.
func WithRand(r board.Source) Option { return func(g *Game) { g.rng = r } }

// WithLogger overrides the global obslog logger.
func WithLogger(l *zap.Logger) Option { return func(g *Game) { g.log = l } }

func newGame(opts []Option) *Game {
	g := &Game{}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return g
}

// New starts a fresh randomized game with white to move.
func New(opts ...Option) *Game {
	g := newGame(opts)
	g.Reset()
	return g
}

// Restore rebuilds a game from a persisted State. A pending selection is
// re-applied when it still names a piece of the side to move.
func Restore(st State, opts ...Option) (*Game, error) {
	if err := st.Board.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	if st.Turn > board.Black || st.Result > Draw {
		return nil, fmt.Errorf("%w: turn=%d result=%d", ErrCorrupted, st.Turn, st.Result)
	}
	g := newGame(opts)
	g.board = st.Board
	g.turn = st.Turn
	g.captured = slices.Clone(st.Captured)
	g.result = st.Result
	g.method = st.Method
	g.backRank = st.BackRank
	if st.LastMove != nil {
		mv := *st.LastMove
		g.lastMove = &mv
	}
	if sq := st.Selected; sq != nil && !g.result.Terminal() && sq.Valid() && g.board.At(*sq).Is(g.turn) {
		g.selectPiece(*sq)
	}
	return g, nil
}

// Reset discards all state and draws a new Chess960 position.
func (g *Game) Reset() {
	rank := board.BackRank(g.rng)
	g.board = board.Setup(rank)
	g.turn = board.White
	g.clearSelection()
	g.captured = nil
	g.result = InProgress
	g.method = ""
	g.lastMove = nil
	g.fault = nil
	g.backRank = board.BackRankString(rank)
	g.logger().Info("chess_reset", zap.String("back_rank", g.backRank))
}

// State returns a deep copy of the persistable state.
func (g *Game) State() State {
	st := State{
		Board:    g.board,
		Turn:     g.turn,
		Captured: slices.Clone(g.captured),
		Result:   g.result,
		Method:   g.method,
		BackRank: g.backRank,
	}
	if g.hasSel {
		sq := g.selected
		st.Selected = &sq
	}
	if g.lastMove != nil {
		mv := *g.lastMove
		st.LastMove = &mv
	}
	return st
}

func (g *Game) CurrentMoves() []board.Square { return slices.Clone(g.moves) }

func (g *Game) CurrentTurn() board.Color { return g.turn }

func (g *Game) GameResult() Result { return g.result }

// Method names how a finished game ended (checkmate, stalemate, king_capture).
func (g *Game) Method() string { return g.method }

// BoardSnapshot returns a copy of the board.
func (g *Game) BoardSnapshot() board.Board { return g.board }

// Captured lists captured pieces, oldest first.
func (g *Game) Captured() []board.Piece { return slices.Clone(g.captured) }

func (g *Game) Selected() (board.Square, bool) { return g.selected, g.hasSel }

func (g *Game) LastMove() (Move, bool) {
	if g.lastMove == nil {
		return Move{}, false
	}
	return *g.lastMove, true
}

// InCheck reports whether the side to move is in check.
func (g *Game) InCheck() bool { return rules.InCheck(&g.board, g.turn) }

// BackRank is the white back rank drawn by the last Reset, e.g. "RNBQKBNR".
func (g *Game) BackRank() string { return g.backRank }

func (g *Game) Phase() Phase {
	switch {
	case g.result.Terminal():
		return Terminal
	case g.hasSel:
		return PieceSelected
	}
	return AwaitingSelection
}

// Err returns the invariant fault that stopped the game, if any.
func (g *Game) Err() error { return g.fault }

func (g *Game) logger() *zap.Logger {
	if g.log != nil {
		return g.log
	}
	return obslog.L()
}

func (g *Game) clearSelection() {
	g.selected, g.hasSel = board.Square{}, false
	g.moves = nil
}
