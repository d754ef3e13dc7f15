package chessdto

type CreateGameRequest struct {
	OriginRoom     string `json:"origin_room"`
	ResolveRoom    string `json:"resolve_room"`
	ChallengerID   string `json:"challenger_id"`
	ChallengerName string `json:"challenger_name"`
	TargetID       string `json:"target_id"`
	TargetName     string `json:"target_name"`
	Color          string `json:"color"`
}

// SelectRequest names a square either by Square ("e4") or by File (0..7)
// and Rank (1..8). Square wins when both are set.
type SelectRequest struct {
	UserID string `json:"user_id"`
	Square string `json:"square,omitempty"`
	File   *int   `json:"file,omitempty"`
	Rank   *int   `json:"rank,omitempty"`
}

// ActionRequest is the body of reset and resign.
type ActionRequest struct {
	UserID string `json:"user_id"`
}

type MakeLobbyRequest struct {
	Room     string `json:"room"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Color    string `json:"color"`
}

type JoinLobbyRequest struct {
	Room     string `json:"room"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}
