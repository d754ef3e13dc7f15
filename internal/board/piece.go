package board

import (
	"fmt"
	"strings"
)

// Color identifies a chess side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	switch c {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// Title returns the capitalised side name used in result messages.
func (c Color) Title() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return White, fmt.Errorf("invalid color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	if c > Black {
		return nil, fmt.Errorf("invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Kind is a piece type. NoKind marks an empty square.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [...]string{"", "pawn", "knight", "bishop", "rook", "queen", "king"}

const kindLetters = ".pnbrqk"

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Letter returns the lower-case FEN letter of the kind, '.' for NoKind.
func (k Kind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return '?'
}

// Piece is a coloured piece. The zero value is the empty square.
type Piece struct {
	Color Color
	Kind  Kind
}

// Empty is the occupant of a vacant square.
var Empty = Piece{}

func NewPiece(c Color, k Kind) Piece {
	if k == NoKind {
		return Empty
	}
	return Piece{Color: c, Kind: k}
}

func (p Piece) IsEmpty() bool { return p.Kind == NoKind }

// Is reports whether the square holds a piece of colour c.
func (p Piece) Is(c Color) bool { return p.Kind != NoKind && p.Color == c }

// Valid reports whether p is the empty sentinel or a well-formed piece.
func (p Piece) Valid() bool {
	if p.Kind == NoKind {
		return p == Empty
	}
	return p.Kind <= King && p.Color <= Black
}

// String renders the piece as "white_knight"; empty squares render as "".
func (p Piece) String() string {
	if p.IsEmpty() {
		return ""
	}
	return p.Color.String() + "_" + p.Kind.String()
}

// Letter returns the FEN letter: upper case for white, lower case for black,
// '.' for an empty square.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if p.Is(White) {
		return l - 'a' + 'A'
	}
	return l
}

// PieceFromLetter is the inverse of Letter.
func PieceFromLetter(l byte) (Piece, bool) {
	if l == '.' {
		return Empty, true
	}
	c := Black
	if l >= 'A' && l <= 'Z' {
		c = White
		l = l - 'A' + 'a'
	}
	i := strings.IndexByte(kindLetters, l)
	if i <= 0 {
		return Empty, false
	}
	return Piece{Color: c, Kind: Kind(i)}, true
}

func (p Piece) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid piece %d/%d", p.Color, p.Kind)
	}
	return []byte(p.String()), nil
}

func (p *Piece) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*p = Empty
		return nil
	}
	side, kind, ok := strings.Cut(s, "_")
	if !ok {
		return fmt.Errorf("invalid piece %q", s)
	}
	c, err := ParseColor(side)
	if err != nil {
		return fmt.Errorf("invalid piece %q", s)
	}
	for i := Pawn; i <= King; i++ {
		if kindNames[i] == kind {
			*p = Piece{Color: c, Kind: i}
			return nil
		}
	}
	return fmt.Errorf("invalid piece %q", s)
}
