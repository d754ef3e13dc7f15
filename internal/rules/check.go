package rules

import (
	"slices"

	"github.com/park285/chess960-arena/internal/board"
)

// InCheck reports whether the king of colour c is attacked. A side without a
// king counts as in check.
func InCheck(b *board.Board, c board.Color) bool {
	king, ok := b.KingSquare(c)
	if !ok {
		return true
	}
	return Attacked(b, king, c.Opposite())
}

// Attacked reports whether any piece of colour by has target among its
// pseudo-legal destinations. Pawns attack along their capture diagonals and,
// through the pawn advance rule, the non-pawn square straight ahead.
func Attacked(b *board.Board, target board.Square, by board.Color) bool {
	for sq, p := range b.Squares() {
		if !p.Is(by) {
			continue
		}
		if slices.Contains(Generate(b, p, sq, false), target) {
			return true
		}
	}
	return false
}
