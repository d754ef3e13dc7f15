// Package rules holds the move generator, check detection and the
// simulate/undo legality probe. Every function works on a *board.Board owned
// by the caller; probes restore the board before returning.
package rules

import "github.com/park285/chess960-arena/internal/board"

type delta struct{ dx, dy int }

var (
	diagonals   = []delta{{-1, -1}, {1, 1}, {-1, 1}, {1, -1}}
	orthogonals = []delta{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	knightJumps = []delta{
		{-2, -1}, {-2, 1},
		{-1, -2}, {1, -2},
		{2, -1}, {2, 1},
		{-1, 2}, {1, 2},
	}
	kingSteps = []delta{
		{0, -1}, {0, 1},
		{-1, 0}, {-1, -1}, {-1, 1},
		{1, 0}, {1, -1}, {1, 1},
	}
)

// Generate lists the destinations of piece p standing on from.
//
// With checkFilter false the result is pseudo-legal. With checkFilter true
// every non-king candidate is probed and dropped if it leaves p's own king in
// check. King moves are never probed here; HasLegalMoves and SafeMoves probe
// them.
func Generate(b *board.Board, p board.Piece, from board.Square, checkFilter bool) []board.Square {
	if p.IsEmpty() || !from.Valid() {
		return nil
	}
	var moves []board.Square
	switch p.Kind {
	case board.Bishop:
		moves = slide(b, p.Color, from, diagonals, moves)
	case board.Rook:
		moves = slide(b, p.Color, from, orthogonals, moves)
	case board.Queen:
		moves = slide(b, p.Color, from, diagonals, moves)
		moves = slide(b, p.Color, from, orthogonals, moves)
	case board.Knight:
		moves = step(from, knightJumps, moves)
	case board.King:
		moves = step(from, kingSteps, moves)
	case board.Pawn:
		moves = pawnMoves(b, p.Color, from, moves)
	}
	moves = dropOwn(b, p.Color, moves)
	if checkFilter && p.Kind != board.King {
		moves = keepSafe(b, p.Color, from, moves)
	}
	return moves
}

// slide walks each ray until the edge or the first occupied square. An enemy
// occupant is included as a capture; the ray stops either way.
func slide(b *board.Board, c board.Color, from board.Square, rays []delta, out []board.Square) []board.Square {
	for _, d := range rays {
		for sq := from.Offset(d.dx, d.dy); sq.Valid(); sq = sq.Offset(d.dx, d.dy) {
			occ := b.At(sq)
			if occ.IsEmpty() {
				out = append(out, sq)
				continue
			}
			if occ.Color != c {
				out = append(out, sq)
			}
			break
		}
	}
	return out
}

func step(from board.Square, offsets []delta, out []board.Square) []board.Square {
	for _, d := range offsets {
		if sq := from.Offset(d.dx, d.dy); sq.Valid() {
			out = append(out, sq)
		}
	}
	return out
}

// pawnMoves: black advances towards larger Y, white towards smaller Y. The
// advance is blocked only when the square ahead holds a pawn; any other
// occupant of that square is reachable straight ahead. The double step is
// offered from the starting band under the same condition. Diagonals are
// captures only.
func pawnMoves(b *board.Board, c board.Color, from board.Square, out []board.Square) []board.Square {
	dir, onBand := 1, from.Y < 2
	if c == board.White {
		dir, onBand = -1, from.Y > board.Size-3
	}
	front := from.Offset(0, dir)
	if !front.Valid() {
		return out
	}
	if b.At(front).Kind != board.Pawn {
		out = append(out, front)
		if onBand {
			out = append(out, from.Offset(0, 2*dir))
		}
	}
	for _, dx := range [...]int{-1, 1} {
		if sq := from.Offset(dx, dir); sq.Valid() && b.At(sq).Is(c.Opposite()) {
			out = append(out, sq)
		}
	}
	return out
}

func dropOwn(b *board.Board, c board.Color, moves []board.Square) []board.Square {
	kept := moves[:0]
	for _, sq := range moves {
		if !b.At(sq).Is(c) {
			kept = append(kept, sq)
		}
	}
	return kept
}
