package chessdto

import "time"

// LobbyEntry is a waiting channel as listed to players.
type LobbyEntry struct {
	Code        string    `json:"code"`
	State       string    `json:"state"`
	CreatorID   string    `json:"creator_id"`
	CreatorName string    `json:"creator_name"`
	CreatorRoom string    `json:"creator_room"`
	Color       string    `json:"color"`
	GameID      string    `json:"game_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type JoinLobbyResponse struct {
	Entry LobbyEntry    `json:"entry"`
	Game  *SessionState `json:"game"`
}
