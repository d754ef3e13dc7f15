package rules

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/park285/chess960-arena/internal/board"
)

func mustBoard(t *testing.T, rows ...string) *board.Board {
	t.Helper()
	b, err := board.FromRows(rows...)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return &b
}

func squares(names ...string) []board.Square {
	out := make([]board.Square, 0, len(names))
	for _, n := range names {
		out = append(out, board.MustSquare(n))
	}
	return out
}

func assertMoves(t *testing.T, want, got []board.Square) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratePseudoLegal(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		from string
		want []string
	}{
		{
			name: "rook on open board",
			rows: []string{"........", "........", "........", "........", "...R....", "........", "........", "........"},
			from: "d4",
			want: []string{"c4", "b4", "a4", "e4", "f4", "g4", "h4", "d5", "d6", "d7", "d8", "d3", "d2", "d1"},
		},
		{
			name: "rook blocked by own piece and capturing enemy",
			rows: []string{"........", "........", "...N....", "........", "...R.n..", "........", "........", "........"},
			from: "d4",
			want: []string{"c4", "b4", "a4", "e4", "f4", "d5", "d3", "d2", "d1"},
		},
		{
			name: "bishop rays stop at first occupant",
			rows: []string{"........", "........", "........", "....p...", "...B....", "..P.....", "........", "........"},
			from: "d4",
			want: []string{"c5", "b6", "a7", "e3", "f2", "g1", "e5"},
		},
		{
			name: "queen is bishop plus rook",
			rows: []string{"Q.......", ".P......", "........", "........", "........", "........", "........", ".......k"},
			from: "a8",
			want: []string{"b8", "c8", "d8", "e8", "f8", "g8", "h8", "a7", "a6", "a5", "a4", "a3", "a2", "a1"},
		},
		{
			name: "knight in the corner",
			rows: []string{"........", "........", "........", "........", "........", "........", "........", "N......."},
			from: "a1",
			want: []string{"b3", "c2"},
		},
		{
			name: "knight skips own pieces",
			rows: []string{"........", "........", "........", "........", "........", ".P......", "........", "N......."},
			from: "a1",
			want: []string{"c2"},
		},
		{
			name: "king on the edge",
			rows: []string{"........", "........", "........", "........", "........", "........", "........", "....K..."},
			from: "e1",
			want: []string{"e2", "d1", "d2", "f1", "f2"},
		},
		{
			name: "white pawn from starting band",
			rows: []string{"........", "........", "........", "........", "........", "...p.P..", "....P...", "........"},
			from: "e2",
			want: []string{"e3", "e4", "d3"},
		},
		{
			name: "white pawn off the band",
			rows: []string{"........", "........", "........", "........", "........", "....P...", "........", "........"},
			from: "e3",
			want: []string{"e4"},
		},
		{
			name: "white pawn blocked by a pawn",
			rows: []string{"........", "........", "........", "........", "........", "....p...", "....P...", "........"},
			from: "e2",
			want: nil,
		},
		{
			name: "white pawn reaches a non-pawn straight ahead",
			rows: []string{"........", "........", "........", "........", "........", "....n...", "....P...", "........"},
			from: "e2",
			want: []string{"e3", "e4"},
		},
		{
			name: "white pawn steps past its own knight",
			rows: []string{"........", "........", "........", "........", "........", "....N...", "....P...", "........"},
			from: "e2",
			want: []string{"e4"},
		},
		{
			name: "black pawn from starting band",
			rows: []string{"........", "....p...", ".....P..", "........", "........", "........", "........", "........"},
			from: "e7",
			want: []string{"e6", "e5", "f6"},
		},
		{
			name: "black pawn off the band",
			rows: []string{"........", "........", "....p...", "........", "........", "........", "........", "........"},
			from: "e6",
			want: []string{"e5"},
		},
		{
			name: "black pawn blocked by a pawn",
			rows: []string{"........", "....p...", "....P...", "........", "........", "........", "........", "........"},
			from: "e7",
			want: nil,
		},
		{
			name: "pawn on the last rank has no moves",
			rows: []string{"....P...", "........", "........", "........", "........", "........", "........", "........"},
			from: "e8",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t, tt.rows...)
			from := board.MustSquare(tt.from)
			assertMoves(t, squares(tt.want...), Generate(b, b.At(from), from, false))
		})
	}
}

func TestGenerateEmptySquare(t *testing.T) {
	var b board.Board
	if got := Generate(&b, board.Empty, board.MustSquare("e4"), true); len(got) != 0 {
		t.Fatalf("empty square produced moves: %v", got)
	}
}

func TestInCheckRookOnFile(t *testing.T) {
	b := mustBoard(t,
		"....r...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	if !InCheck(b, board.White) {
		t.Fatalf("white king on e1 facing rook e8 must be in check")
	}
	if !HasLegalMoves(b, board.White) {
		t.Fatalf("white king can leave the e-file")
	}
	assertMoves(t, squares("d1", "d2", "f1", "f2"), SafeMoves(b, board.MustSquare("e1")))
}

func TestInCheckByEveryKind(t *testing.T) {
	tests := []struct {
		name string
		rows []string
	}{
		{"pawn diagonal", []string{"........", "........", "........", "........", "...p....", "....K...", "........", "........"}},
		{"pawn straight ahead", []string{"........", "........", "........", "........", "....p...", "....K...", "........", "........"}},
		{"knight", []string{"........", "........", "........", "........", ".....n..", "........", "....K...", "........"}},
		{"bishop", []string{"........", "........", "........", "........", "........", "..b.....", "........", "....K..."}},
		{"queen", []string{"........", "........", "........", "........", "........", "........", "........", "q...K..."}},
		{"king", []string{"........", "........", "........", "........", "........", "........", "...k....", "....K..."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t, tt.rows...)
			if !InCheck(b, board.White) {
				t.Fatalf("check not detected:\n%s", b.String())
			}
		})
	}
}

func TestMissingKingCountsAsCheck(t *testing.T) {
	b := mustBoard(t,
		"....k...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"R.......",
	)
	if !InCheck(b, board.White) {
		t.Fatalf("side without a king must count as in check")
	}
	if got := LegalMoves(b, board.MustSquare("a1")); len(got) != 0 {
		t.Fatalf("kingless side must have no filtered moves, got %v", got)
	}
}

func TestPinnedPieceStaysOnLine(t *testing.T) {
	b := mustBoard(t,
		"....r...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....R...",
		"....K...",
	)
	assertMoves(t, squares("e3", "e4", "e5", "e6", "e7", "e8"), LegalMoves(b, board.MustSquare("e2")))
}

// The selection-time list lets the king step onto attacked squares; only
// SafeMoves and HasLegalMoves probe king moves.
func TestKingMovesAreNotCheckFiltered(t *testing.T) {
	b := mustBoard(t,
		"...r....",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....K...",
	)
	e1 := board.MustSquare("e1")
	assertMoves(t, squares("e2", "d1", "d2", "f1", "f2"), LegalMoves(b, e1))
	assertMoves(t, squares("e2", "f1", "f2"), SafeMoves(b, e1))
}

func TestCheckmate(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		".....k..",
		"......q.",
		".......K",
	)
	if !InCheck(b, board.White) {
		t.Fatalf("white must be in check")
	}
	if HasLegalMoves(b, board.White) {
		t.Fatalf("white must have no legal move")
	}
}

func TestUndefendedQueenCanBeTaken(t *testing.T) {
	b := mustBoard(t,
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"......q.",
		".......K",
	)
	if !InCheck(b, board.White) {
		t.Fatalf("white must be in check")
	}
	assertMoves(t, squares("g2"), SafeMoves(b, board.MustSquare("h1")))
}

func TestStalemate(t *testing.T) {
	b := mustBoard(t,
		"K.......",
		"........",
		".q......",
		".......p",
		".......P",
		"....k...",
		"........",
		"........",
	)
	if InCheck(b, board.White) {
		t.Fatalf("white must not be in check")
	}
	if HasLegalMoves(b, board.White) {
		t.Fatalf("white must have no legal move")
	}
}

func TestSimulateUndoRestoresBoard(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	b := board.Chess960(r)
	b.Set(board.MustSquare("d4"), board.NewPiece(board.White, board.Queen))
	before := b
	for from := range b.Squares() {
		for to := range b.Squares() {
			if from == to {
				continue
			}
			captured := Simulate(&b, from, to)
			Undo(&b, from, to, captured)
			if b != before {
				t.Fatalf("simulate/undo %s-%s changed the board:\n%s", from, to, b.String())
			}
		}
	}
}

func TestProbesLeaveBoardUnchanged(t *testing.T) {
	b := mustBoard(t,
		"....r...",
		"........",
		"........",
		"........",
		"........",
		"........",
		"....R...",
		"....K...",
	)
	before := *b
	_ = LegalMoves(b, board.MustSquare("e2"))
	_ = SafeMoves(b, board.MustSquare("e1"))
	_ = HasLegalMoves(b, board.White)
	_ = InCheck(b, board.White)
	if *b != before {
		t.Fatalf("probing mutated the board:\n%s", b.String())
	}
}

// Random playouts from Chess960 starts: every filtered move of a non-king
// piece must leave its own king out of check.
func TestFilteredMovesNeverSelfCheck(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 960))
	for game := 0; game < 20; game++ {
		b := board.Chess960(r)
		turn := board.White
		for ply := 0; ply < 60; ply++ {
			if _, ok := b.KingSquare(turn); !ok {
				break
			}
			type cand struct{ from, to board.Square }
			var all []cand
			for from, p := range b.Squares() {
				if !p.Is(turn) {
					continue
				}
				for _, to := range LegalMoves(&b, from) {
					all = append(all, cand{from, to})
					if p.Kind == board.King {
						continue
					}
					captured := Simulate(&b, from, to)
					if InCheck(&b, turn) {
						t.Fatalf("game %d ply %d: %s %s-%s leaves king in check:\n%s", game, ply, p, from, to, b.String())
					}
					Undo(&b, from, to, captured)
				}
			}
			if len(all) == 0 {
				break
			}
			mv := all[r.IntN(len(all))]
			Simulate(&b, mv.from, mv.to)
			turn = turn.Opposite()
		}
	}
}
