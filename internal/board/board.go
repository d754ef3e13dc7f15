package board

import (
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Board is the 8x8 occupancy grid. The zero value is an empty board.
// Board is a value type; assigning it copies every cell, which is how
// read-only snapshots are handed out.
type Board struct {
	cells [Size * Size]Piece
}

func index(s Square) int { return s.Y*Size + s.X }

// At returns the occupant of s. Off-board squares read as Empty.
func (b *Board) At(s Square) Piece {
	if !s.Valid() {
		return Empty
	}
	return b.cells[index(s)]
}

// Set places p on s. Off-board squares are ignored.
func (b *Board) Set(s Square, p Piece) {
	if !s.Valid() {
		return
	}
	if p.Kind == NoKind {
		p = Empty
	}
	b.cells[index(s)] = p
}

func (b *Board) Clear() { b.cells = [Size * Size]Piece{} }

// Squares iterates every square file by file (a8, a7 .. a1, b8 ..), yielding
// the occupant as it is when the square is reached. Callers may mutate the
// board between steps as long as they restore it before continuing.
func (b *Board) Squares() iter.Seq2[Square, Piece] {
	return func(yield func(Square, Piece) bool) {
		for x := 0; x < Size; x++ {
			for y := 0; y < Size; y++ {
				sq := Square{X: x, Y: y}
				if !yield(sq, b.cells[index(sq)]) {
					return
				}
			}
		}
	}
}

// KingSquare locates the king of colour c.
func (b *Board) KingSquare(c Color) (Square, bool) {
	for sq, p := range b.Squares() {
		if p.Kind == King && p.Color == c {
			return sq, true
		}
	}
	return Square{}, false
}

// Count returns how many squares hold p.
func (b *Board) Count(p Piece) int {
	n := 0
	for _, q := range b.cells {
		if q == p {
			n++
		}
	}
	return n
}

// Rows renders the board as eight strings, rank 8 first, one FEN letter per
// square and '.' for empty squares.
func (b *Board) Rows() []string {
	rows := make([]string, Size)
	for y := 0; y < Size; y++ {
		var sb strings.Builder
		for x := 0; x < Size; x++ {
			sb.WriteByte(b.cells[index(Square{X: x, Y: y})].Letter())
		}
		rows[y] = sb.String()
	}
	return rows
}

// FromRows builds a board from the Rows representation.
func FromRows(rows ...string) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("expected %d rows, got %d", Size, len(rows))
	}
	for y, row := range rows {
		if len(row) != Size {
			return b, fmt.Errorf("row %d: expected %d squares, got %d", y, Size, len(row))
		}
		for x := 0; x < Size; x++ {
			p, ok := PieceFromLetter(row[x])
			if !ok {
				return b, fmt.Errorf("row %d: invalid piece letter %q", y, row[x])
			}
			b.cells[index(Square{X: x, Y: y})] = p
		}
	}
	return b, nil
}

func (b *Board) String() string { return strings.Join(b.Rows(), "\n") }

// Equal reports whether both boards hold the same pieces on the same squares.
func (b Board) Equal(o Board) bool { return b.cells == o.cells }

func (b Board) MarshalJSON() ([]byte, error) { return json.Marshal(b.Rows()) }

func (b *Board) UnmarshalJSON(data []byte) error {
	var rows []string
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	nb, err := FromRows(rows...)
	if err != nil {
		return err
	}
	*b = nb
	return nil
}

// Validate checks the structural invariants: every cell holds a well-formed
// piece and no side has more than one king. A missing king is not an error.
func (b *Board) Validate() error {
	kings := [2]int{}
	for sq, p := range b.Squares() {
		if !p.Valid() {
			return fmt.Errorf("corrupted cell %s", sq)
		}
		if p.Kind == King {
			kings[p.Color]++
		}
	}
	for c, n := range kings {
		if n > 1 {
			return fmt.Errorf("%d %s kings on the board", n, Color(c))
		}
	}
	return nil
}
