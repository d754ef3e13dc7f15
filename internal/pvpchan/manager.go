// Package pvpchan is the lobby: a player opens a channel with a join code,
// a second player joins it from any room, and the game starts.
package pvpchan

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Manager struct {
	rdb   *redis.Client
	store *Store
	pvp   *pvpchess.Manager
}

func NewManager(rdb *redis.Client, pvp *pvpchess.Manager) *Manager {
	return &Manager{rdb: rdb, store: NewStore(rdb), pvp: pvp}
}

// Make opens a lobby channel for userID in room.
func (m *Manager) Make(ctx context.Context, room, userID, userName string, color pvpchess.ColorChoice) (*MakeResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	if room == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	if g, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); g != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if open, err := m.openLobbyOf(ctx, userID); err != nil {
		return nil, err
	} else if open != nil {
		return nil, ErrCreatorHasLobby
	}

	for range 5 {
		code, err := codeGen()
		if err != nil {
			return nil, err
		}
		meta := &ChannelMeta{
			ID:          code,
			State:       StateLobby,
			CreatedAt:   time.Now(),
			CreatorID:   userID,
			CreatorName: strings.TrimSpace(userName),
			CreatorRoom: room,
			Color:       color,
		}
		ok, err := m.store.ReserveMeta(ctx, code, meta)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := m.store.AddRoom(ctx, code, room); err != nil {
			return nil, err
		}
		if err := m.store.AddParticipant(ctx, code, userID); err != nil {
			return nil, err
		}
		if err := m.store.AddLobby(ctx, code); err != nil {
			return nil, err
		}
		obslog.L().Info("lobby_make",
			zap.String("code", code),
			zap.String("room", room),
			zap.String("creator_id", userID),
			zap.String("color", string(color)),
		)
		return &MakeResult{Code: code, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate channel code")
}

func (m *Manager) openLobbyOf(ctx context.Context, userID string) (*ChannelMeta, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.State == StateLobby && meta.CreatorID == userID {
			return meta, nil
		}
	}
	return nil, nil
}

// Join adds userID to the channel and starts the game. The creator's colour
// preference decides who plays white.
func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
	room, code, userID = strings.TrimSpace(room), strings.TrimSpace(code), strings.TrimSpace(userID)
	if room == "" || code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrChannelGone
	}
	if meta.State != StateLobby {
		return nil, ErrChannelActive
	}
	if meta.CreatorID == userID {
		return nil, ErrAlreadyJoined
	}
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, meta.CreatorID, meta.CreatorRoom); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}

	partKey := m.store.keyParticipants(code)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cnt, err := tx.SCard(ctx, partKey).Result()
		if err != nil {
			return err
		}
		if cnt >= 2 {
			return ErrFull
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, partKey, userID)
			pipe.Expire(ctx, partKey, ttlChannel)
			pipe.SAdd(ctx, m.store.keyRooms(code), room)
			pipe.Expire(ctx, m.store.keyRooms(code), ttlChannel)
			pipe.SAdd(ctx, m.store.keyUserIdx(userID), code)
			pipe.Expire(ctx, m.store.keyUserIdx(userID), ttlChannel)
			return nil
		})
		return err
	}, partKey)
	if err != nil {
		obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.Error(err))
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrFull
		}
		return nil, err
	}

	g, err := m.pvp.CreateGame(ctx, meta.CreatorRoom, room, meta.CreatorID, meta.CreatorName, userID, userName, meta.Color)
	if err != nil {
		_ = m.rdb.SRem(ctx, partKey, userID).Err()
		return nil, err
	}

	meta.WhiteID, meta.WhiteName = g.WhiteID, g.WhiteName
	meta.BlackID, meta.BlackName = g.BlackID, g.BlackName
	meta.State = StateActive
	meta.GameID = g.ID
	if err := m.store.SaveMeta(ctx, code, meta); err != nil {
		return nil, err
	}
	_ = m.store.RemoveLobby(ctx, code)
	obslog.L().Info("lobby_start_game",
		zap.String("code", code),
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{Game: g, Meta: meta}, nil
}

func (m *Manager) Rooms(ctx context.Context, code string) ([]string, error) {
	rooms, err := m.store.Rooms(ctx, code)
	if err != nil {
		return nil, err
	}
	slices.Sort(rooms)
	return rooms, nil
}

// RoomsByUserAndGame finds the rooms of the channel that started gameID.
func (m *Manager) RoomsByUserAndGame(ctx context.Context, userID, gameID string) ([]string, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		meta, _ := m.store.LoadMeta(ctx, c)
		if meta != nil && meta.GameID == gameID {
			return m.Rooms(ctx, c)
		}
	}
	return nil, nil
}

// ListLobby returns the channels still waiting for an opponent.
func (m *Manager) ListLobby(ctx context.Context) ([]*ChannelMeta, error) { return m.store.ListLobby(ctx) }

func sortByCreated(list []*ChannelMeta) {
	slices.SortFunc(list, func(a, b *ChannelMeta) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}
