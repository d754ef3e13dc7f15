// Package httpapi serves the game and lobby operations as JSON over fasthttp.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/park285/chess960-arena/internal/engine"
	"github.com/park285/chess960-arena/internal/obslog"
	"github.com/park285/chess960-arena/internal/pvpchan"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"github.com/park285/chess960-arena/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type Server struct {
	pvp       *pvpchess.Manager
	lobby     *pvpchan.Manager
	roomAllow func(string) bool
	srv       *fasthttp.Server
}

type Option func(*Server)

// WithRoomFilter restricts the rooms that may open games or lobbies.
func WithRoomFilter(allow func(room string) bool) Option {
	return func(s *Server) { s.roomAllow = allow }
}

func New(pvp *pvpchess.Manager, lobby *pvpchan.Manager, opts ...Option) *Server {
	s := &Server{pvp: pvp, lobby: lobby, roomAllow: func(string) bool { return true }}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "chess960-arena",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	obslog.L().Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve accepts connections from ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error { return s.srv.Serve(ln) }

func (s *Server) Shutdown(ctx context.Context) error { return s.srv.ShutdownWithContext(ctx) }

// Handler routes requests. Paths:
//
//	GET  /healthz
//	POST /games
//	GET  /games/{id}
//	POST /games/{id}/select | reset | resign
//	GET  /users/{id}/game?room=
//	GET  /lobby
//	POST /lobby
//	POST /lobby/{code}/join
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		s.route(ctx)
		obslog.L().Debug("http_request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	get, post := ctx.IsGet(), ctx.IsPost()

	switch {
	case len(parts) == 1 && parts[0] == "healthz" && get:
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case len(parts) == 1 && parts[0] == "games" && post:
		s.createGame(ctx)
	case len(parts) == 2 && parts[0] == "games" && get:
		s.getGame(ctx, parts[1])
	case len(parts) == 3 && parts[0] == "games" && post:
		switch parts[2] {
		case "select":
			s.selectSquare(ctx, parts[1])
		case "reset":
			s.reset(ctx, parts[1])
		case "resign":
			s.resign(ctx, parts[1])
		default:
			notFound(ctx)
		}
	case len(parts) == 3 && parts[0] == "users" && parts[2] == "game" && get:
		s.activeGame(ctx, parts[1])
	case len(parts) == 1 && parts[0] == "lobby" && get:
		s.listLobby(ctx)
	case len(parts) == 1 && parts[0] == "lobby" && post:
		s.makeLobby(ctx)
	case len(parts) == 3 && parts[0] == "lobby" && parts[2] == "join" && post:
		s.joinLobby(ctx, parts[1])
	default:
		notFound(ctx)
	}
}

func decode(ctx *fasthttp.RequestCtx, v any) bool {
	if err := json.Unmarshal(ctx.PostBody(), v); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: "bad_request", Message: "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("http_encode_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(raw)
}

func writeError(ctx *fasthttp.RequestCtx, status int, e chessdto.DomainError) {
	writeJSON(ctx, status, e)
}

func notFound(ctx *fasthttp.RequestCtx) {
	writeError(ctx, fasthttp.StatusNotFound, chessdto.DomainError{Code: "not_found", Message: "no such route"})
}

// fail maps domain errors onto status codes.
func fail(ctx *fasthttp.RequestCtx, err error) {
	status, code := fasthttp.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, pvpchess.ErrGameNotFound), errors.Is(err, pvpchan.ErrChannelGone):
		status, code = fasthttp.StatusNotFound, "not_found"
	case errors.Is(err, pvpchess.ErrNotParticipant):
		status, code = fasthttp.StatusForbidden, "not_participant"
	case errors.Is(err, pvpchess.ErrGameNotActive),
		errors.Is(err, pvpchan.ErrChannelActive),
		errors.Is(err, pvpchan.ErrFull),
		errors.Is(err, pvpchan.ErrAlreadyJoined),
		errors.Is(err, pvpchan.ErrPlayerBusyInRoom),
		errors.Is(err, pvpchan.ErrCreatorHasLobby):
		status, code = fasthttp.StatusConflict, "conflict"
	case errors.Is(err, engine.ErrOutOfRange),
		errors.Is(err, pvpchess.ErrInvalidParticipants),
		errors.Is(err, pvpchan.ErrInvalidArgs):
		status, code = fasthttp.StatusBadRequest, "bad_request"
	case errors.Is(err, engine.ErrCorrupted):
		code = "corrupted"
	}
	if status >= fasthttp.StatusInternalServerError {
		obslog.L().Error("http_handler_error", zap.ByteString("path", ctx.Path()), zap.Error(err))
	}
	writeError(ctx, status, chessdto.DomainError{Code: code, Message: err.Error()})
}
