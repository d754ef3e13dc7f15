package pvpchan

import (
	"time"

	"github.com/park285/chess960-arena/internal/pvpchess"
)

// ChannelState represents the lifecycle of a lobby channel.
type ChannelState string

const (
	StateLobby  ChannelState = "LOBBY"
	StateActive ChannelState = "ACTIVE"
)

// ChannelMeta is stored as JSON in Redis under ch:<code>.
type ChannelMeta struct {
	ID        string       `json:"id"`
	State     ChannelState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`

	CreatorID   string `json:"creator_id"`
	CreatorName string `json:"creator_name"`
	CreatorRoom string `json:"creator_room"`
	// Color is the creator's preference, applied when the game starts.
	Color pvpchess.ColorChoice `json:"color"`

	WhiteID   string `json:"white_id,omitempty"`
	WhiteName string `json:"white_name,omitempty"`
	BlackID   string `json:"black_id,omitempty"`
	BlackName string `json:"black_name,omitempty"`

	GameID string `json:"game_id,omitempty"`
}

type MakeResult struct {
	Code string
	Meta *ChannelMeta
}

type JoinResult struct {
	Game *pvpchess.Game
	Meta *ChannelMeta
}

var (
	ErrInvalidArgs      = errf("invalid arguments")
	ErrChannelGone      = errf("channel not found or expired")
	ErrChannelActive    = errf("channel already active")
	ErrFull             = errf("channel already has two participants")
	ErrAlreadyJoined    = errf("user already in channel")
	ErrPlayerBusyInRoom = errf("player has active game in this room")
	ErrCreatorHasLobby  = errf("user already has a lobby")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }
