package engine

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/park285/chess960-arena/internal/board"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sq(name string) board.Square { return board.MustSquare(name) }

func squares(names ...string) []board.Square {
	out := make([]board.Square, 0, len(names))
	for _, n := range names {
		out = append(out, sq(n))
	}
	return out
}

func restore(t *testing.T, turn board.Color, rows ...string) *Game {
	t.Helper()
	b, err := board.FromRows(rows...)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	g, err := Restore(State{Board: b, Turn: turn})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return g
}

// click selects by algebraic name through the public file/rank entry point.
func click(t *testing.T, g *Game, name string) Event {
	t.Helper()
	s := sq(name)
	ev, err := g.SelectSquare(s.File(), s.Rank())
	if err != nil {
		t.Fatalf("SelectSquare(%s): %v", name, err)
	}
	return ev
}

func seeded(seed uint64) *Game {
	return New(WithRand(rand.New(rand.NewPCG(seed, seed+1))))
}

func TestNewGameStartsAwaitingWhite(t *testing.T) {
	g := seeded(1)
	if g.CurrentTurn() != board.White {
		t.Fatalf("turn = %v, want white", g.CurrentTurn())
	}
	if g.GameResult() != InProgress || g.Phase() != AwaitingSelection {
		t.Fatalf("result=%v phase=%v", g.GameResult(), g.Phase())
	}
	b := g.BoardSnapshot()
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, c := range []board.Color{board.White, board.Black} {
		if n := b.Count(board.NewPiece(c, board.Pawn)); n != board.Size {
			t.Fatalf("%s pawns = %d", c, n)
		}
		if n := b.Count(board.NewPiece(c, board.King)); n != 1 {
			t.Fatalf("%s kings = %d", c, n)
		}
	}
	if len(g.BackRank()) != board.Size {
		t.Fatalf("back rank %q", g.BackRank())
	}
	if len(g.CurrentMoves()) != 0 || len(g.Captured()) != 0 {
		t.Fatalf("fresh game carries moves or captures")
	}
}

func TestSameSeedSamePosition(t *testing.T) {
	a, b := seeded(7).BoardSnapshot(), seeded(7).BoardSnapshot()
	if a != b {
		t.Fatalf("same seed produced different positions:\n%s\n%s", a.String(), b.String())
	}
}

func TestSelectThenMoveTogglesTurn(t *testing.T) {
	g := seeded(2)

	ev := click(t, g, "e2")
	if ev.Kind != Selected {
		t.Fatalf("kind = %v, want selected", ev.Kind)
	}
	if diff := cmp.Diff(squares("e3", "e4"), ev.Moves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
	if sel, ok := g.Selected(); !ok || sel != sq("e2") || g.Phase() != PieceSelected {
		t.Fatalf("selection = %v/%v phase=%v", sel, ok, g.Phase())
	}

	ev = click(t, g, "e4")
	if ev.Kind != Moved || ev.Move == nil {
		t.Fatalf("expected a move event, got %+v", ev)
	}
	if ev.Move.From != sq("e2") || ev.Move.To != sq("e4") || !ev.Move.Captured.IsEmpty() {
		t.Fatalf("move = %+v", ev.Move)
	}
	b := g.BoardSnapshot()
	if !b.At(sq("e2")).IsEmpty() || b.At(sq("e4")) != board.NewPiece(board.White, board.Pawn) {
		t.Fatalf("pawn not relocated:\n%s", b.String())
	}
	if g.CurrentTurn() != board.Black || g.Phase() != AwaitingSelection {
		t.Fatalf("turn=%v phase=%v", g.CurrentTurn(), g.Phase())
	}
	if len(g.CurrentMoves()) != 0 {
		t.Fatalf("move list must be cleared after a ply, got %v", g.CurrentMoves())
	}
	if last, ok := g.LastMove(); !ok || last.To != sq("e4") {
		t.Fatalf("last move = %+v/%v", last, ok)
	}
}

func TestOpponentPieceIsIgnored(t *testing.T) {
	g := seeded(3)
	before := g.BoardSnapshot()
	if ev := click(t, g, "e7"); ev.Kind != Ignored {
		t.Fatalf("black pawn selected on white's turn: %+v", ev)
	}
	if ev := click(t, g, "e5"); ev.Kind != Ignored {
		t.Fatalf("empty square selected: %+v", ev)
	}
	if g.BoardSnapshot() != before || g.Phase() != AwaitingSelection {
		t.Fatalf("ignored selection changed state")
	}
}

func TestReselectOwnPiece(t *testing.T) {
	g := seeded(4)
	click(t, g, "e2")
	ev := click(t, g, "d2")
	if ev.Kind != Selected {
		t.Fatalf("kind = %v, want selected", ev.Kind)
	}
	if sel, _ := g.Selected(); sel != sq("d2") {
		t.Fatalf("selected = %v, want d2", sel)
	}
	if diff := cmp.Diff(squares("d3", "d4"), g.CurrentMoves()); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
}

func TestIllegalTargetKeepsSelection(t *testing.T) {
	g := seeded(5)
	click(t, g, "e2")
	before := g.BoardSnapshot()
	if ev := click(t, g, "e5"); ev.Kind != Ignored {
		t.Fatalf("illegal target played: %+v", ev)
	}
	if g.BoardSnapshot() != before || g.CurrentTurn() != board.White {
		t.Fatalf("illegal target changed the game")
	}
	if sel, ok := g.Selected(); !ok || sel != sq("e2") {
		t.Fatalf("selection lost: %v/%v", sel, ok)
	}
	if diff := cmp.Diff(squares("e3", "e4"), g.CurrentMoves()); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
}

func TestOutOfRangeSelection(t *testing.T) {
	g := seeded(6)
	for _, fr := range [][2]int{{-1, 1}, {8, 1}, {0, 0}, {0, 9}} {
		if _, err := g.SelectSquare(fr[0], fr[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("SelectSquare(%d,%d) err = %v, want ErrOutOfRange", fr[0], fr[1], err)
		}
	}
}

func TestCheckmateEndsGame(t *testing.T) {
	g := restore(t, board.Black,
		"........",
		"........",
		"........",
		"........",
		"......q.",
		".....k..",
		"........",
		".......K",
	)
	click(t, g, "g4")
	ev := click(t, g, "g2")
	if ev.Kind != Moved || !ev.Check {
		t.Fatalf("expected checking move, got %+v", ev)
	}
	if g.GameResult() != BlackWins || g.Method() != MethodCheckmate {
		t.Fatalf("result=%v method=%q", g.GameResult(), g.Method())
	}
	if g.Phase() != Terminal {
		t.Fatalf("phase = %v", g.Phase())
	}
}

func TestStalemateIsDraw(t *testing.T) {
	g := restore(t, board.Black,
		"K.......",
		"........",
		"...q....",
		".......p",
		".......P",
		"....k...",
		"........",
		"........",
	)
	click(t, g, "d6")
	ev := click(t, g, "b6")
	if ev.Kind != Moved || ev.Check {
		t.Fatalf("expected quiet move, got %+v", ev)
	}
	if g.GameResult() != Draw || g.Method() != MethodStalemate {
		t.Fatalf("result=%v method=%q", g.GameResult(), g.Method())
	}
	if _, ok := g.GameResult().Winner(); ok {
		t.Fatalf("draw must have no winner")
	}
}

// The king's selection list is not check-filtered, so it can walk into an
// attacked square and be taken next ply.
func TestKingCaptureFallback(t *testing.T) {
	g := restore(t, board.White,
		"...r...k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	click(t, g, "e1")
	if ev := click(t, g, "d1"); ev.Kind != Moved || g.GameResult() != InProgress {
		t.Fatalf("king step: %+v result=%v", ev, g.GameResult())
	}
	click(t, g, "d8")
	ev := click(t, g, "d1")
	if ev.Move == nil || ev.Move.Captured != board.NewPiece(board.White, board.King) {
		t.Fatalf("expected king capture, got %+v", ev)
	}
	if ev.Check || ev.Result != BlackWins {
		t.Fatalf("king capture event: check=%v result=%v", ev.Check, ev.Result)
	}
	if g.GameResult() != BlackWins || g.Method() != MethodKingCapture {
		t.Fatalf("result=%v method=%q", g.GameResult(), g.Method())
	}
	if diff := cmp.Diff([]board.Piece{board.NewPiece(board.White, board.King)}, g.Captured()); diff != "" {
		t.Fatalf("captured (-want +got):\n%s", diff)
	}
}

func TestCaptureIsRecorded(t *testing.T) {
	g := restore(t, board.White,
		"k.......",
		"........",
		"........",
		"...n....",
		"........",
		"........",
		"........",
		"...R...K",
	)
	click(t, g, "d1")
	ev := click(t, g, "d5")
	if ev.Move == nil || ev.Move.Captured != board.NewPiece(board.Black, board.Knight) {
		t.Fatalf("move = %+v", ev.Move)
	}
	if diff := cmp.Diff([]board.Piece{board.NewPiece(board.Black, board.Knight)}, g.Captured()); diff != "" {
		t.Fatalf("captured (-want +got):\n%s", diff)
	}
	if g.GameResult() != InProgress {
		t.Fatalf("result = %v", g.GameResult())
	}
}

func TestTerminalIgnoresSelections(t *testing.T) {
	g := restore(t, board.Black,
		"........",
		"........",
		"........",
		"........",
		"......q.",
		".....k..",
		"........",
		".......K",
	)
	click(t, g, "g4")
	click(t, g, "g2")
	st := g.State()
	for _, name := range []string{"h1", "g1", "g2", "f3"} {
		if ev := click(t, g, name); ev.Kind != Ignored || ev.Result != BlackWins {
			t.Fatalf("selection %s after mate: %+v", name, ev)
		}
	}
	if diff := cmp.Diff(st, g.State(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("state changed after mate (-want +got):\n%s", diff)
	}
}

func TestResetClearsEverything(t *testing.T) {
	g := restore(t, board.Black,
		"........",
		"........",
		"........",
		"........",
		"......q.",
		".....k..",
		"........",
		".......K",
	)
	click(t, g, "g4")
	click(t, g, "g2")
	g.Reset()
	if g.GameResult() != InProgress || g.Method() != "" || g.CurrentTurn() != board.White {
		t.Fatalf("reset left result=%v method=%q turn=%v", g.GameResult(), g.Method(), g.CurrentTurn())
	}
	if _, ok := g.LastMove(); ok {
		t.Fatalf("reset kept the last move")
	}
	if len(g.Captured()) != 0 || g.Phase() != AwaitingSelection {
		t.Fatalf("reset kept captures or selection")
	}
}

func TestRestoreRejectsCorruptBoard(t *testing.T) {
	b, err := board.FromRows(
		"k...k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if _, err := Restore(State{Board: b}); !errors.Is(err, ErrCorrupted) {
		t.Fatalf("err = %v, want ErrCorrupted", err)
	}
}

func TestStateSurvivesJSON(t *testing.T) {
	g := seeded(9)
	click(t, g, "b2")
	click(t, g, "b4")
	click(t, g, "c7")
	click(t, g, "c5")
	click(t, g, "b4")
	click(t, g, "c5")
	click(t, g, "d7")

	raw, err := json.Marshal(g.State())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	r, err := Restore(st)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(g.State(), r.State(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.CurrentMoves(), r.CurrentMoves(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("restored selection has different moves (-want +got):\n%s", diff)
	}
	if len(r.Captured()) != 1 || r.Captured()[0] != board.NewPiece(board.Black, board.Pawn) {
		t.Fatalf("captured = %v", r.Captured())
	}
}

func TestWithLoggerReceivesEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	b, err := board.FromRows(
		"...r...k",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"...K....",
	)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	g, err := Restore(State{Board: b, Turn: board.Black}, WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	click(t, g, "d8")
	click(t, g, "d1")

	if n := logs.FilterMessage("chess_capture").Len(); n != 1 {
		t.Fatalf("chess_capture logged %d times", n)
	}
	over := logs.FilterMessage("chess_game_over").All()
	if len(over) != 1 || over[0].ContextMap()["method"] != MethodKingCapture {
		t.Fatalf("chess_game_over entries: %+v", over)
	}
}
