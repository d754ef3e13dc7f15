package rules

import "github.com/park285/chess960-arena/internal/board"

// Simulate moves the occupant of from onto to and returns what to held
// before. It must be paired with Undo before anything else touches either
// square.
func Simulate(b *board.Board, from, to board.Square) board.Piece {
	captured := b.At(to)
	b.Set(to, b.At(from))
	b.Set(from, board.Empty)
	return captured
}

// Undo reverses the matching Simulate.
func Undo(b *board.Board, from, to board.Square, captured board.Piece) {
	b.Set(from, b.At(to))
	b.Set(to, captured)
}

// leavesKingSafe probes a single move for colour c.
func leavesKingSafe(b *board.Board, c board.Color, from, to board.Square) bool {
	captured := Simulate(b, from, to)
	safe := !InCheck(b, c)
	Undo(b, from, to, captured)
	return safe
}

func keepSafe(b *board.Board, c board.Color, from board.Square, moves []board.Square) []board.Square {
	kept := moves[:0]
	for _, to := range moves {
		if leavesKingSafe(b, c, from, to) {
			kept = append(kept, to)
		}
	}
	return kept
}

// LegalMoves is the selection-time move list for the piece on from: the
// check filter is applied to every kind except the king.
func LegalMoves(b *board.Board, from board.Square) []board.Square {
	return Generate(b, b.At(from), from, true)
}

// SafeMoves probes every candidate of the piece on from, king moves
// included, and keeps those that leave its own king out of check.
func SafeMoves(b *board.Board, from board.Square) []board.Square {
	p := b.At(from)
	if p.IsEmpty() {
		return nil
	}
	return keepSafe(b, p.Color, from, Generate(b, p, from, false))
}

// HasLegalMoves reports whether colour c has any move that leaves its king
// out of check. King moves are probed here even though LegalMoves lets them
// through unprobed.
func HasLegalMoves(b *board.Board, c board.Color) bool {
	for from, p := range b.Squares() {
		if !p.Is(c) {
			continue
		}
		for _, to := range Generate(b, p, from, true) {
			if leavesKingSafe(b, c, from, to) {
				return true
			}
		}
	}
	return false
}
