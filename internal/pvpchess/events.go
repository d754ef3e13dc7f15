package pvpchess

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/pkg/chessdto"
	"go.uber.org/zap"
)

const (
	WatchSnapshot = "snapshot"
	WatchUpdate   = "update"
)

// EventsChannel is the Redis pub/sub channel carrying a game's watch events.
func EventsChannel(gameID string) string { return "pvp:events:" + strings.TrimSpace(gameID) }

// WatchEvent builds a watch frame for g.
func (m *Manager) WatchEvent(kind string, g *Game, msg string) (*chessdto.WatchEvent, error) {
	dto, err := m.ToDTO(g)
	if err != nil {
		return nil, err
	}
	return &chessdto.WatchEvent{Kind: kind, Message: msg, Game: dto}, nil
}

// publish announces a stored change. Watchers are best effort; failures are
// logged and never fail the write.
func (m *Manager) publish(ctx context.Context, g *Game, msg string) {
	ev, err := m.WatchEvent(WatchUpdate, g, msg)
	if err == nil {
		var raw []byte
		if raw, err = json.Marshal(ev); err == nil {
			err = m.rdb.Publish(ctx, EventsChannel(g.ID), raw).Err()
		}
	}
	if err != nil {
		obslog.L().Warn("pvp_publish_error", zap.String("game_id", g.ID), zap.Error(err))
	}
}
