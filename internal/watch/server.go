// Package watch streams live game updates to websocket spectators. Every
// stored change is published on the game's Redis channel; each spectator
// connection subscribes to it and forwards the frames as they arrive.
package watch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type Server struct {
	pvp            *pvpchess.Manager
	originPatterns []string
	pingInterval   time.Duration
	writeTimeout   time.Duration
	srv            *http.Server
}

type Option func(*Server)

// WithOriginPatterns allows cross-origin spectators from the given host patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = append(s.originPatterns, patterns...) }
}

func WithPingInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingInterval = d
		}
	}
}

func New(pvp *pvpchess.Manager, opts ...Option) *Server {
	s := &Server{pvp: pvp, pingInterval: 30 * time.Second, writeTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return s
}

// Handler serves GET /watch/{id}.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /watch/{id}", s.watch)
	return mux
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("watch_listen", zap.String("addr", addr))
	s.srv.Addr = addr
	return s.srv.ListenAndServe()
}

func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.pvp.LoadGame(r.Context(), id); err != nil {
		if errors.Is(err, pvpchess.ErrGameNotFound) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		obslog.L().Error("watch_load_error", zap.String("game_id", id), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		OriginPatterns:  s.originPatterns,
	})
	if err != nil {
		obslog.L().Warn("watch_accept_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// spectators never talk; CloseRead handles control frames and cancels
	// ctx once the peer goes away
	ctx := conn.CloseRead(r.Context())
	obslog.L().Info("watch_open", zap.String("game_id", id), zap.String("remote", r.RemoteAddr))
	err = s.stream(ctx, conn, id)
	obslog.L().Info("watch_close", zap.String("game_id", id), zap.Error(err))
	if err == nil || errors.Is(err, context.Canceled) {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	_ = conn.Close(websocket.StatusInternalError, "stream failed")
}

func (s *Server) stream(ctx context.Context, conn *websocket.Conn, id string) error {
	sub := s.pvp.Client().Subscribe(ctx, pvpchess.EventsChannel(id))
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	// the snapshot is read after the subscription is confirmed, so no
	// update can fall between the two
	g, err := s.pvp.LoadGame(ctx, id)
	if err != nil {
		return err
	}
	snap, err := s.pvp.WatchEvent(pvpchess.WatchSnapshot, g, s.pvp.ResultText(g))
	if err != nil {
		return err
	}
	if err := s.writeJSON(ctx, conn, snap); err != nil {
		return err
	}

	ping := time.NewTicker(s.pingInterval)
	defer ping.Stop()
	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, []byte(msg.Payload))
			cancel()
			if err != nil {
				return err
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (s *Server) writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, v)
}
