package chessdto

import "time"

// Player identifies one side of a session.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MoveInfo describes an executed ply. Squares use algebraic names ("e4");
// pieces use "white_knight" style names.
type MoveInfo struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Piece    string `json:"piece"`
	Captured string `json:"captured,omitempty"`
}

// SessionState is everything a presenter needs to draw one game.
type SessionState struct {
	SessionUUID string `json:"session_uuid"`
	Round       int    `json:"round"`
	Status      string `json:"status"`
	Result      string `json:"result"`
	Method      string `json:"method,omitempty"`
	Turn        string `json:"turn"`
	Check       bool   `json:"check"`

	// Rows is the board, rank 8 first, one FEN letter per square and '.'
	// for empty squares.
	Rows     []string `json:"rows"`
	FEN      string   `json:"fen"`
	BackRank string   `json:"back_rank"`

	Selected string     `json:"selected,omitempty"`
	Moves    []string   `json:"moves"`
	Captured []string   `json:"captured"`
	LastMove *MoveInfo  `json:"last_move,omitempty"`
	History  []MoveInfo `json:"history"`

	White  Player `json:"white"`
	Black  Player `json:"black"`
	Winner string `json:"winner,omitempty"`
	Banner string `json:"banner"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ActionResponse pairs the new state with the user-facing outcome text.
type ActionResponse struct {
	Game    *SessionState `json:"game"`
	Message string        `json:"message,omitempty"`
}

// WatchEvent is one frame of the live watch feed. Kind is "snapshot" for the
// first frame after subscribing and "update" after every stored change.
type WatchEvent struct {
	Kind    string        `json:"kind"`
	Message string        `json:"message,omitempty"`
	Game    *SessionState `json:"game"`
}
