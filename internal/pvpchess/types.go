package pvpchess

import (
	"errors"
	"strings"
	"time"

	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/engine"
)

// Status represents a PvP game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
	StatusDraw     Status = "DRAW"
)

// Live reports whether selections are still accepted.
func (s Status) Live() bool { return s == StatusActive }

// ColorChoice is the challenger's colour preference.
type ColorChoice string

const (
	ColorWhite  ColorChoice = "white"
	ColorBlack  ColorChoice = "black"
	ColorRandom ColorChoice = "random"
)

func ParseColorChoice(s string) ColorChoice {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return ColorWhite
	case "black", "b":
		return ColorBlack
	default:
		return ColorRandom
	}
}

// Game is the persisted state of a PvP match. State carries everything the
// engine needs to resume; the other fields are bookkeeping for listing and
// result persistence.
type Game struct {
	ID          string        `json:"id"`
	Round       int           `json:"round"`
	State       engine.State  `json:"state"`
	FEN         string        `json:"fen"`
	History     []engine.Move `json:"history"`
	Turn        board.Color   `json:"turn"`
	Status      Status        `json:"status"`
	WhiteID     string        `json:"white_id"`
	WhiteName   string        `json:"white_name"`
	BlackID     string        `json:"black_id"`
	BlackName   string        `json:"black_name"`
	OriginRoom  string        `json:"origin_room"`
	ResolveRoom string        `json:"resolve_room"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	// RoundStartedAt is when the current round was dealt.
	RoundStartedAt time.Time `json:"round_started_at"`

	Winner  string `json:"winner,omitempty"`
	Outcome string `json:"outcome,omitempty"`
	Method  string `json:"method,omitempty"`
}

// Plies is the number of executed moves in the current round.
func (g *Game) Plies() int { return len(g.History) }

// ColorOf returns the colour userID plays; ok is false for spectators.
func (g *Game) ColorOf(userID string) (board.Color, bool) {
	switch strings.TrimSpace(userID) {
	case "":
		return board.White, false
	case g.WhiteID:
		return board.White, true
	case g.BlackID:
		return board.Black, true
	}
	return board.White, false
}

// NameOf returns the display name of the player of colour c.
func (g *Game) NameOf(c board.Color) string {
	if c == board.White {
		return g.WhiteName
	}
	return g.BlackName
}

func (g *Game) idOf(c board.Color) string {
	if c == board.White {
		return g.WhiteID
	}
	return g.BlackID
}

// InRoom reports whether the game is bound to room.
func (g *Game) InRoom(room string) bool {
	room = strings.TrimSpace(room)
	return room != "" && (g.OriginRoom == room || g.ResolveRoom == room)
}

var (
	ErrNotInitialized      = errors.New("pvp manager not initialized")
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrGameNotFound        = errors.New("game not found")
	ErrNotParticipant      = errors.New("user not in game")
	ErrGameNotActive       = errors.New("game no longer active")
)
