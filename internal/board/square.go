package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is the number of files and ranks on the board.
const Size = 8

// Square is a board coordinate in zero-based indices. X is the file index
// (a=0 .. h=7) and Y counts down from the top of the board, so Y = 8 - rank.
type Square struct {
	X int
	Y int
}

// XY returns the square at zero-based indices x, y. The result may be off-board.
func XY(x, y int) Square { return Square{X: x, Y: y} }

// SquareOf converts a file index (0..7) and a rank (1..8) to a Square.
func SquareOf(file, rank int) (Square, bool) {
	sq := Square{X: file, Y: Size - rank}
	return sq, sq.Valid()
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	rank, err := strconv.Atoi(s[1:])
	if err != nil {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	sq, ok := SquareOf(int(s[0]-'a'), rank)
	if !ok {
		return Square{}, fmt.Errorf("invalid square %q", s)
	}
	return sq, nil
}

// MustSquare is ParseSquare for constant coordinates; it panics on bad input.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func (s Square) Valid() bool { return s.X >= 0 && s.X < Size && s.Y >= 0 && s.Y < Size }

// File returns the zero-based file index.
func (s Square) File() int { return s.X }

// Rank returns the rank number 1..8.
func (s Square) Rank() int { return Size - s.Y }

func (s Square) Offset(dx, dy int) Square { return Square{X: s.X + dx, Y: s.Y + dy} }

// Light reports whether the square is a light square.
func (s Square) Light() bool { return (s.X+s.Y)%2 == 0 }

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.X, s.Y)
	}
	return string(rune('a'+s.X)) + strconv.Itoa(s.Rank())
}

func (s Square) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("square %s is off the board", s)
	}
	return []byte(s.String()), nil
}

func (s *Square) UnmarshalText(b []byte) error {
	sq, err := ParseSquare(string(b))
	if err != nil {
		return err
	}
	*s = sq
	return nil
}
