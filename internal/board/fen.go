package board

import (
	nchess "github.com/corentings/chess/v2"
)

var nchessKinds = [...]nchess.PieceType{
	Pawn:   nchess.Pawn,
	Knight: nchess.Knight,
	Bishop: nchess.Bishop,
	Rook:   nchess.Rook,
	Queen:  nchess.Queen,
	King:   nchess.King,
}

// FEN returns the piece-placement field of the position in Forsyth-Edwards
// notation, e.g. "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR".
func (b *Board) FEN() string {
	m := make(map[nchess.Square]nchess.Piece)
	for sq, p := range b.Squares() {
		if p.IsEmpty() {
			continue
		}
		c := nchess.White
		if p.Color == Black {
			c = nchess.Black
		}
		m[nchess.NewSquare(nchess.File(sq.X), nchess.Rank(sq.Rank()-1))] = nchess.NewPiece(nchessKinds[p.Kind], c)
	}
	return nchess.NewBoard(m).String()
}
