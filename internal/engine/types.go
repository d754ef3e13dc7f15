package engine

import (
	"errors"
	"fmt"

	"github.com/park285/chess960-arena/internal/board"
)

var (
	// ErrOutOfRange is returned for selections outside files 0..7 / ranks 1..8.
	ErrOutOfRange = errors.New("square out of range")
	// ErrCorrupted marks a broken board invariant. The game refuses further
	// mutation until Reset.
	ErrCorrupted = errors.New("board state corrupted")
)

// Phase is the turn state machine position.
type Phase uint8

const (
	AwaitingSelection Phase = iota
	PieceSelected
	Terminal
)

func (p Phase) String() string {
	switch p {
	case AwaitingSelection:
		return "awaiting_selection"
	case PieceSelected:
		return "piece_selected"
	case Terminal:
		return "terminal"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Result is the game outcome; set once and kept until Reset.
type Result uint8

const (
	InProgress Result = iota
	WhiteWins
	BlackWins
	Draw
)

var resultNames = [...]string{"in_progress", "white_wins", "black_wins", "draw"}

// WinFor returns the result in which c wins.
func WinFor(c board.Color) Result {
	if c == board.White {
		return WhiteWins
	}
	return BlackWins
}

func (r Result) Terminal() bool { return r != InProgress }

// Winner returns the winning colour; ok is false for draws and unfinished games.
func (r Result) Winner() (c board.Color, ok bool) {
	switch r {
	case WhiteWins:
		return board.White, true
	case BlackWins:
		return board.Black, true
	}
	return board.White, false
}

func (r Result) String() string {
	if int(r) < len(resultNames) {
		return resultNames[r]
	}
	return fmt.Sprintf("result(%d)", uint8(r))
}

func (r Result) MarshalText() ([]byte, error) {
	if int(r) >= len(resultNames) {
		return nil, fmt.Errorf("invalid result %d", uint8(r))
	}
	return []byte(r.String()), nil
}

func (r *Result) UnmarshalText(b []byte) error {
	for i, n := range resultNames {
		if n == string(b) {
			*r = Result(i)
			return nil
		}
	}
	return fmt.Errorf("invalid result %q", b)
}

// How a game ended.
const (
	MethodCheckmate   = "checkmate"
	MethodStalemate   = "stalemate"
	MethodKingCapture = "king_capture"
)

// Move is an executed ply.
type Move struct {
	From     board.Square `json:"from"`
	To       board.Square `json:"to"`
	Piece    board.Piece  `json:"piece"`
	Captured board.Piece  `json:"captured"`
}

// EventKind classifies what a selection did.
type EventKind uint8

const (
	Ignored EventKind = iota
	Selected
	Moved
)

func (k EventKind) String() string {
	switch k {
	case Selected:
		return "selected"
	case Moved:
		return "moved"
	}
	return "ignored"
}

// Event reports the effect of one SelectSquare call to the presentation
// layer.
type Event struct {
	Kind   EventKind
	Square board.Square
	// Moves is the new move list after a selection.
	Moves []board.Square
	// Move is set when a ply was executed.
	Move *Move
	// Check reports whether the side now to move is in check.
	Check  bool
	Result Result
	Method string
}

// State is the persistable part of a game. The move list is derived from
// Selected on Restore.
type State struct {
	Board    board.Board   `json:"board"`
	Turn     board.Color   `json:"turn"`
	Selected *board.Square `json:"selected,omitempty"`
	Captured []board.Piece `json:"captured"`
	Result   Result        `json:"result"`
	Method   string        `json:"method,omitempty"`
	LastMove *Move         `json:"last_move,omitempty"`
	BackRank string        `json:"back_rank,omitempty"`
}
