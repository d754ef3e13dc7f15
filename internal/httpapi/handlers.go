package httpapi

import (
	"strings"

	"github.com/park285/chess960-arena/internal/board"
	"github.com/park285/chess960-arena/internal/pvpchan"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"github.com/park285/chess960-arena/pkg/chessdto"
	"github.com/valyala/fasthttp"
)

func (s *Server) respond(ctx *fasthttp.RequestCtx, status int, g *pvpchess.Game, msg string) {
	dto, err := s.pvp.ToDTO(g)
	if err != nil {
		fail(ctx, err)
		return
	}
	writeJSON(ctx, status, chessdto.ActionResponse{Game: dto, Message: msg})
}

func (s *Server) roomDenied(ctx *fasthttp.RequestCtx, rooms ...string) bool {
	for _, r := range rooms {
		if r = strings.TrimSpace(r); r != "" && !s.roomAllow(r) {
			writeError(ctx, fasthttp.StatusForbidden, chessdto.DomainError{Code: "room_not_allowed", Message: "room not allowed: " + r})
			return true
		}
	}
	return false
}

func (s *Server) createGame(ctx *fasthttp.RequestCtx) {
	var req chessdto.CreateGameRequest
	if !decode(ctx, &req) || s.roomDenied(ctx, req.OriginRoom, req.ResolveRoom) {
		return
	}
	g, err := s.pvp.CreateGame(ctx, req.OriginRoom, req.ResolveRoom,
		req.ChallengerID, req.ChallengerName, req.TargetID, req.TargetName,
		pvpchess.ParseColorChoice(req.Color))
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusCreated, g, s.pvp.ResultText(g))
}

func (s *Server) getGame(ctx *fasthttp.RequestCtx, id string) {
	g, err := s.pvp.LoadGame(ctx, id)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, g, "")
}

func (s *Server) activeGame(ctx *fasthttp.RequestCtx, userID string) {
	var (
		g   *pvpchess.Game
		err error
	)
	if room := string(ctx.QueryArgs().Peek("room")); room != "" {
		g, err = s.pvp.GetActiveGameByUserInRoom(ctx, userID, room)
	} else {
		g, err = s.pvp.GetActiveGameByUser(ctx, userID)
	}
	if err != nil {
		fail(ctx, err)
		return
	}
	if g == nil {
		fail(ctx, pvpchess.ErrGameNotFound)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, g, "")
}

func (s *Server) selectSquare(ctx *fasthttp.RequestCtx, id string) {
	var req chessdto.SelectRequest
	if !decode(ctx, &req) {
		return
	}
	file, rank, ok := selectTarget(req)
	if !ok {
		writeError(ctx, fasthttp.StatusBadRequest, chessdto.DomainError{Code: "bad_request", Message: "square or file/rank required"})
		return
	}
	g, msg, err := s.pvp.Select(ctx, id, req.UserID, file, rank)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, g, msg)
}

func selectTarget(req chessdto.SelectRequest) (file, rank int, ok bool) {
	if strings.TrimSpace(req.Square) != "" {
		sq, err := board.ParseSquare(req.Square)
		if err != nil {
			return 0, 0, false
		}
		return sq.File(), sq.Rank(), true
	}
	if req.File == nil || req.Rank == nil {
		return 0, 0, false
	}
	return *req.File, *req.Rank, true
}

func (s *Server) reset(ctx *fasthttp.RequestCtx, id string) {
	var req chessdto.ActionRequest
	if !decode(ctx, &req) {
		return
	}
	g, msg, err := s.pvp.Reset(ctx, id, req.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, g, msg)
}

func (s *Server) resign(ctx *fasthttp.RequestCtx, id string) {
	var req chessdto.ActionRequest
	if !decode(ctx, &req) {
		return
	}
	g, msg, err := s.pvp.Resign(ctx, id, req.UserID)
	if err != nil {
		fail(ctx, err)
		return
	}
	s.respond(ctx, fasthttp.StatusOK, g, msg)
}

func (s *Server) listLobby(ctx *fasthttp.RequestCtx) {
	list, err := s.lobby.ListLobby(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}
	out := make([]chessdto.LobbyEntry, 0, len(list))
	for _, m := range list {
		out = append(out, lobbyEntry(m))
	}
	writeJSON(ctx, fasthttp.StatusOK, out)
}

func (s *Server) makeLobby(ctx *fasthttp.RequestCtx) {
	var req chessdto.MakeLobbyRequest
	if !decode(ctx, &req) || s.roomDenied(ctx, req.Room) {
		return
	}
	res, err := s.lobby.Make(ctx, req.Room, req.UserID, req.UserName, pvpchess.ParseColorChoice(req.Color))
	if err != nil {
		fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusCreated, lobbyEntry(res.Meta))
}

func (s *Server) joinLobby(ctx *fasthttp.RequestCtx, code string) {
	var req chessdto.JoinLobbyRequest
	if !decode(ctx, &req) || s.roomDenied(ctx, req.Room) {
		return
	}
	res, err := s.lobby.Join(ctx, req.Room, code, req.UserID, req.UserName)
	if err != nil {
		fail(ctx, err)
		return
	}
	dto, err := s.pvp.ToDTO(res.Game)
	if err != nil {
		fail(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, chessdto.JoinLobbyResponse{Entry: lobbyEntry(res.Meta), Game: dto})
}

func lobbyEntry(m *pvpchan.ChannelMeta) chessdto.LobbyEntry {
	return chessdto.LobbyEntry{
		Code:        m.ID,
		State:       string(m.State),
		CreatorID:   m.CreatorID,
		CreatorName: m.CreatorName,
		CreatorRoom: m.CreatorRoom,
		Color:       string(m.Color),
		GameID:      m.GameID,
		CreatedAt:   m.CreatedAt,
	}
}
