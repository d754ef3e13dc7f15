package pvpchess

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/msgcat"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 24 * time.Hour

type Manager struct {
	rdb        *redis.Client
	repo       *Repository
	cat        *msgcat.Catalog
	ttl        time.Duration
	engineOpts []engine.Option
}

type Option func(*Manager)

// WithTTL sets how long game records and user indexes live in Redis.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithCatalog sets the message catalog used for outcome texts.
func WithCatalog(c *msgcat.Catalog) Option { return func(m *Manager) { m.cat = c } }

// WithEngineOptions is passed to every engine the manager creates or restores.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

// NewManager connects to redisURL and pings it.
func NewManager(redisURL string, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for PvP manager")
	}
	ropts, err := ParseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(ropts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewManagerWithClient(rdb, opts...), nil
}

// NewManagerWithClient wraps an existing client; the lobby shares it.
func NewManagerWithClient(rdb *redis.Client, opts ...Option) *Manager {
	m := &Manager{rdb: rdb, ttl: defaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	if m.cat == nil {
		m.cat = msgcat.MustDefault()
	}
	return m
}

// Client exposes the underlying Redis client.
func (m *Manager) Client() *redis.Client {
	if m == nil {
		return nil
	}
	return m.rdb
}

func (m *Manager) Close() error {
	if m == nil || m.rdb == nil {
		return nil
	}
	return m.rdb.Close()
}

// AttachRepository wires a database repository for persisting results.
func (m *Manager) AttachRepository(r *Repository) {
	if m != nil {
		m.repo = r
	}
}

// CreateGame starts a game between challenger and target. Colours follow
// choice; ColorRandom flips a coin.
func (m *Manager) CreateGame(ctx context.Context, originRoom, resolveRoom, challengerID, challengerName, targetID, targetName string, choice ColorChoice) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	challengerID, targetID = strings.TrimSpace(challengerID), strings.TrimSpace(targetID)
	if challengerID == "" || targetID == "" || challengerID == targetID {
		return nil, ErrInvalidParticipants
	}

	whiteID, whiteName := challengerID, challengerName
	blackID, blackName := targetID, targetName
	switch choice {
	case ColorWhite:
	case ColorBlack:
		whiteID, whiteName, blackID, blackName = targetID, targetName, challengerID, challengerName
	default:
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			whiteID, whiteName, blackID, blackName = targetID, targetName, challengerID, challengerName
		}
	}

	now := time.Now()
	g := &Game{
		ID:          "pvp-" + uuid.NewString(),
		Status:      StatusActive,
		WhiteID:     whiteID,
		WhiteName:   strings.TrimSpace(whiteName),
		BlackID:     blackID,
		BlackName:   strings.TrimSpace(blackName),
		OriginRoom:  strings.TrimSpace(originRoom),
		ResolveRoom: strings.TrimSpace(resolveRoom),
		CreatedAt:   now,
		UpdatedAt:   now,

		RoundStartedAt: now,
	}
	g.sync(engine.New(m.engineOpts...))

	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	obslog.L().Info("pvp_game_create",
		zap.String("game_id", g.ID),
		zap.String("origin_room", g.OriginRoom),
		zap.String("resolve_room", g.ResolveRoom),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
		zap.String("back_rank", g.State.BackRank),
	)
	m.publish(ctx, g, m.ResultText(g))
	return g, nil
}

// GetActiveGameByUser returns the most recently updated active game of userID.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	return m.latestActive(ctx, userID, func(*Game) bool { return true })
}

// GetActiveGameByUserInRoom is GetActiveGameByUser limited to games bound to room.
func (m *Manager) GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*Game, error) {
	if strings.TrimSpace(room) == "" {
		return nil, nil
	}
	return m.latestActive(ctx, userID, func(g *Game) bool { return g.InRoom(room) })
}

func (m *Manager) latestActive(ctx context.Context, userID string, keep func(*Game) bool) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.get(ctx, id)
		if gerr != nil || g == nil || !g.Status.Live() || !keep(g) {
			continue
		}
		list = append(list, g)
	}
	if len(list) == 0 {
		return nil, nil
	}
	slices.SortFunc(list, func(a, b *Game) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return list[0], nil
}

// LoadGame returns the game by id, or ErrGameNotFound.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	g, err := m.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// update runs fn on the stored game under WATCH and writes the result back
// in a MULTI block. fn returning errSkipWrite leaves the record untouched.
func (m *Manager) update(ctx context.Context, id string, fn func(cur *Game) error) (*Game, error) {
	if m == nil || m.rdb == nil {
		return nil, ErrNotInitialized
	}
	key := gameKey(id)
	var out *Game
	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		var cur Game
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		ferr := fn(&cur)
		out = &cur
		if errors.Is(ferr, errSkipWrite) {
			return nil
		}
		if ferr != nil {
			return ferr
		}
		cur.UpdatedAt = time.Now()
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, newRaw, m.ttl)
			return nil
		})
		return err
	}, key)
	return out, err
}

var errSkipWrite = errors.New("skip write")

func (m *Manager) save(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, gameKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, id string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := idxUserKey(u)
		if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		_ = m.rdb.Expire(ctx, key, m.ttl).Err()
	}
	return nil
}

func gameKey(id string) string        { return "pvp:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "pvp:index:user:" + strings.TrimSpace(userID) }

// ParseRedisURL converts redis://[:password@]host:port[/db] into client options.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

// persistIfFinal saves the round result to the repository if one is attached.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game) {
	if m == nil || m.repo == nil || g == nil || g.Status.Live() {
		return
	}
	if err := m.repo.SaveResult(ctx, g); err != nil {
		obslog.L().Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.Int("round", g.Round), zap.Error(err))
		return
	}
	obslog.L().Info("pvp_result_persist", zap.String("game_id", g.ID), zap.Int("round", g.Round), zap.String("outcome", g.Outcome), zap.String("method", g.Method))
}
