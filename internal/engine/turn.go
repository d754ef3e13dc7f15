package engine

import (
	"fmt"
	"slices"

	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/rules"
	"go.uber.org/zap"
)

// SelectSquare feeds one selection into the turn state machine. file is
// 0..7 and rank is 1..8.
//
// Selecting a piece of the side to move (re)selects it and computes its move
// list. Selecting a square from the current move list plays the move.
// Anything else, including any selection after the game has ended, is
// ignored without error.
func (g *Game) SelectSquare(file, rank int) (Event, error) {
	sq, ok := board.SquareOf(file, rank)
	if !ok {
		if g.fault != nil {
			return Event{}, g.fault
		}
		return Event{}, fmt.Errorf("%w: file=%d rank=%d", ErrOutOfRange, file, rank)
	}
	return g.Select(sq)
}

// Select is SelectSquare addressed by Square.
func (g *Game) Select(sq board.Square) (Event, error) {
	if g.fault != nil {
		return Event{}, g.fault
	}
	if !sq.Valid() {
		return Event{}, fmt.Errorf("%w: %s", ErrOutOfRange, sq)
	}
	ev := Event{Kind: Ignored, Square: sq, Result: g.result, Method: g.method}
	if g.result.Terminal() {
		return ev, nil
	}
	if g.hasSel && slices.Contains(g.moves, sq) {
		return g.play(sq)
	}
	if g.board.At(sq).Is(g.turn) {
		g.selectPiece(sq)
		ev.Kind = Selected
		ev.Moves = g.CurrentMoves()
		ev.Check = g.InCheck()
		g.logger().Debug("chess_select",
			zap.String("piece", g.board.At(sq).String()),
			zap.Stringer("square", sq),
			zap.Int("moves", len(g.moves)),
		)
	}
	return ev, nil
}

func (g *Game) selectPiece(sq board.Square) {
	g.selected, g.hasSel = sq, true
	g.moves = rules.LegalMoves(&g.board, sq)
}

// play executes the selected piece's move to sq, flips the turn and
// classifies the position for the side now to move.
func (g *Game) play(to board.Square) (Event, error) {
	log := g.logger()
	from := g.selected
	mover := g.board.At(from)
	mv := Move{From: from, To: to, Piece: mover, Captured: board.Empty}

	if target := g.board.At(to); target.Is(mover.Color.Opposite()) {
		mv.Captured = target
		g.captured = append(g.captured, target)
		log.Info("chess_capture",
			zap.String("piece", mover.String()),
			zap.String("captured", target.String()),
			zap.Stringer("square", to),
		)
		// Unreachable while checkmate detection holds; kept as a backstop.
		if target.Kind == board.King {
			g.finish(WinFor(mover.Color), MethodKingCapture)
		}
	}

	g.board.Set(to, mover)
	g.board.Set(from, board.Empty)
	g.clearSelection()
	g.lastMove = &mv
	g.turn = g.turn.Opposite()
	log.Debug("chess_move",
		zap.String("piece", mover.String()),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)

	if err := g.board.Validate(); err != nil {
		g.fault = fmt.Errorf("%w: %v", ErrCorrupted, err)
		log.Error("chess_invariant_fault", zap.Error(g.fault))
		return Event{}, g.fault
	}

	// a captured king reads as check; only a live position reports it
	check := !g.result.Terminal() && g.InCheck()
	if !g.result.Terminal() && !rules.HasLegalMoves(&g.board, g.turn) {
		if check {
			g.finish(WinFor(g.turn.Opposite()), MethodCheckmate)
		} else {
			g.finish(Draw, MethodStalemate)
		}
	}

	played := mv
	return Event{
		Kind:   Moved,
		Square: to,
		Move:   &played,
		Check:  check,
		Result: g.result,
		Method: g.method,
	}, nil
}

func (g *Game) finish(r Result, method string) {
	g.result = r
	g.method = method
	g.clearSelection()
	g.logger().Info("chess_game_over",
		zap.Stringer("result", r),
		zap.String("method", method),
		zap.String("back_rank", g.backRank),
	)
}
