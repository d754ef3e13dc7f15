package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/park285/chess960-arena/internal/apiclient"
	"github.com/park285/chess960-arena/internal/pvpchan"
	"github.com/park285/chess960-arena/internal/pvpchess"
	"github.com/park285/chess960-arena/pkg/chessdto"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type harness struct {
	api *apiclient.Client
	raw *fasthttp.Client
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	pvp := pvpchess.NewManagerWithClient(rdb)
	srv := New(pvp, pvpchan.NewManager(rdb, pvp), opts...)

	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	dial := func(string) (net.Conn, error) { return ln.Dial() }
	return &harness{
		api: apiclient.New("http://arena", apiclient.WithDial(dial), apiclient.WithRetry(1)),
		raw: &fasthttp.Client{Dial: dial},
	}
}

// post sends body as-is and returns the status and decoded response.
func (h *harness) post(t *testing.T, path, body string, out any) int {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI("http://arena" + path)
	req.SetBodyString(body)
	if err := h.raw.Do(req, resp); err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			t.Fatalf("decode %s: %v (%s)", path, err, resp.Body())
		}
	}
	return resp.StatusCode()
}

func (h *harness) createGame(t *testing.T) *chessdto.SessionState {
	t.Helper()
	res, err := h.api.CreateGame(context.Background(), chessdto.CreateGameRequest{
		OriginRoom: "roomA", ResolveRoom: "roomB",
		ChallengerID: "u1", ChallengerName: "Alice",
		TargetID: "u2", TargetName: "Bob",
		Color: "white",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return res.Game
}

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *apiclient.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != status || apiErr.Code != code {
		t.Fatalf("got %d/%s, want %d/%s (%s)", apiErr.Status, apiErr.Code, status, code, apiErr.Message)
	}
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	if err := h.api.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
}

func TestCreateSelectMove(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := h.createGame(t)

	if g.White.ID != "u1" || g.Black.Name != "Bob" || g.Turn != "white" || g.Status != "ACTIVE" {
		t.Fatalf("unexpected new game: %+v", g)
	}
	if len(g.Rows) != 8 || len(g.BackRank) != 8 {
		t.Fatalf("rows=%v back_rank=%q", g.Rows, g.BackRank)
	}

	res, err := h.api.Select(ctx, g.SessionUUID, "u1", "e2")
	if err != nil {
		t.Fatalf("Select e2: %v", err)
	}
	if diff := cmp.Diff([]string{"e3", "e4"}, res.Game.Moves); diff != "" {
		t.Fatalf("moves (-want +got):\n%s", diff)
	}
	if res.Game.Selected != "e2" {
		t.Fatalf("selected = %q", res.Game.Selected)
	}

	res, err = h.api.Select(ctx, g.SessionUUID, "u1", "e4")
	if err != nil {
		t.Fatalf("Select e4: %v", err)
	}
	if res.Game.Turn != "black" || len(res.Game.History) != 1 || res.Game.Selected != "" {
		t.Fatalf("move not applied: %+v", res.Game)
	}
	if res.Message != "white_pawn moved from e2 to e4" {
		t.Fatalf("message = %q", res.Message)
	}

	res, err = h.api.Select(ctx, g.SessionUUID, "u1", "d2")
	if err != nil {
		t.Fatalf("Select out of turn: %v", err)
	}
	if res.Message != "It is Black's turn." {
		t.Fatalf("message = %q", res.Message)
	}

	got, err := h.api.Game(ctx, g.SessionUUID)
	if err != nil {
		t.Fatalf("Game: %v", err)
	}
	if got.Turn != "black" || got.LastMove == nil || got.LastMove.From != "e2" {
		t.Fatalf("reloaded game: %+v", got)
	}
}

func TestSelectByFileRank(t *testing.T) {
	h := newHarness(t)
	g := h.createGame(t)

	var res chessdto.ActionResponse
	status := h.post(t, "/games/"+g.SessionUUID+"/select", `{"user_id":"u1","file":3,"rank":2}`, &res)
	if status != fasthttp.StatusOK || res.Game.Selected != "d2" {
		t.Fatalf("status=%d selected=%q", status, res.Game.Selected)
	}

	var derr chessdto.DomainError
	status = h.post(t, "/games/"+g.SessionUUID+"/select", `{"user_id":"u1","file":8,"rank":2}`, &derr)
	if status != fasthttp.StatusBadRequest || derr.Code != "bad_request" {
		t.Fatalf("out of range: status=%d code=%q", status, derr.Code)
	}

	status = h.post(t, "/games/"+g.SessionUUID+"/select", `{"user_id":"u1"}`, &derr)
	if status != fasthttp.StatusBadRequest {
		t.Fatalf("missing target: status=%d", status)
	}

	status = h.post(t, "/games/"+g.SessionUUID+"/select", `{not json`, &derr)
	if status != fasthttp.StatusBadRequest || derr.Message != "invalid JSON body" {
		t.Fatalf("bad body: status=%d msg=%q", status, derr.Message)
	}
}

func TestErrorStatuses(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := h.createGame(t)

	_, err := h.api.Select(ctx, g.SessionUUID, "stranger", "e2")
	wantAPIError(t, err, fasthttp.StatusForbidden, "not_participant")

	_, err = h.api.Game(ctx, "pvp-missing")
	wantAPIError(t, err, fasthttp.StatusNotFound, "not_found")

	_, err = h.api.Select(ctx, g.SessionUUID, "u1", "z9")
	wantAPIError(t, err, fasthttp.StatusBadRequest, "bad_request")

	_, err = h.api.CreateGame(ctx, chessdto.CreateGameRequest{ChallengerID: "u1", TargetID: "u1"})
	wantAPIError(t, err, fasthttp.StatusBadRequest, "bad_request")

	if _, err := h.api.Resign(ctx, g.SessionUUID, "u2"); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	_, err = h.api.Resign(ctx, g.SessionUUID, "u1")
	wantAPIError(t, err, fasthttp.StatusConflict, "conflict")

	var derr chessdto.DomainError
	if status := h.post(t, "/games/"+g.SessionUUID+"/undo", `{}`, &derr); status != fasthttp.StatusNotFound {
		t.Fatalf("unknown verb status = %d", status)
	}
}

func TestResignAndReset(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	g := h.createGame(t)

	res, err := h.api.Resign(ctx, g.SessionUUID, "u1")
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if res.Game.Status != "RESIGNED" || res.Game.Winner != "u2" || res.Message != "White resigned. Black wins!" {
		t.Fatalf("resign: status=%s winner=%s msg=%q", res.Game.Status, res.Game.Winner, res.Message)
	}

	res, err = h.api.Reset(ctx, g.SessionUUID, "u2")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if res.Game.Status != "ACTIVE" || res.Game.Round != 1 || res.Game.Winner != "" {
		t.Fatalf("reset: %+v", res.Game)
	}

	active, err := h.api.ActiveGame(ctx, "u1", "roomB")
	if err != nil {
		t.Fatalf("ActiveGame: %v", err)
	}
	if active.SessionUUID != g.SessionUUID {
		t.Fatalf("active game = %s", active.SessionUUID)
	}
	_, err = h.api.ActiveGame(ctx, "u1", "roomZ")
	wantAPIError(t, err, fasthttp.StatusNotFound, "not_found")
}

func TestLobbyFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entry, err := h.api.MakeLobby(ctx, chessdto.MakeLobbyRequest{Room: "roomA", UserID: "u1", UserName: "Alice", Color: "black"})
	if err != nil {
		t.Fatalf("MakeLobby: %v", err)
	}
	if entry.State != "LOBBY" || entry.Color != "black" || entry.Code == "" {
		t.Fatalf("entry = %+v", entry)
	}

	list, err := h.api.Lobby(ctx)
	if err != nil {
		t.Fatalf("Lobby: %v", err)
	}
	if len(list) != 1 || list[0].Code != entry.Code {
		t.Fatalf("lobby list = %+v", list)
	}

	_, err = h.api.MakeLobby(ctx, chessdto.MakeLobbyRequest{Room: "roomB", UserID: "u1"})
	wantAPIError(t, err, fasthttp.StatusConflict, "conflict")

	joined, err := h.api.JoinLobby(ctx, entry.Code, chessdto.JoinLobbyRequest{Room: "roomB", UserID: "u2", UserName: "Bob"})
	if err != nil {
		t.Fatalf("JoinLobby: %v", err)
	}
	if joined.Entry.State != "ACTIVE" || joined.Game == nil || joined.Game.Black.ID != "u1" || joined.Game.White.ID != "u2" {
		t.Fatalf("joined = %+v", joined)
	}

	_, err = h.api.JoinLobby(ctx, "CH-NOPE00", chessdto.JoinLobbyRequest{Room: "roomC", UserID: "u3"})
	wantAPIError(t, err, fasthttp.StatusNotFound, "not_found")

	list, err = h.api.Lobby(ctx)
	if err != nil {
		t.Fatalf("Lobby: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("lobby should be empty, got %+v", list)
	}
}

func TestRoomFilter(t *testing.T) {
	h := newHarness(t, WithRoomFilter(func(room string) bool { return room == "roomA" || room == "roomB" }))
	ctx := context.Background()

	h.createGame(t)

	_, err := h.api.CreateGame(ctx, chessdto.CreateGameRequest{
		OriginRoom: "roomA", ResolveRoom: "secret",
		ChallengerID: "u3", TargetID: "u4",
	})
	wantAPIError(t, err, fasthttp.StatusForbidden, "room_not_allowed")

	_, err = h.api.MakeLobby(ctx, chessdto.MakeLobbyRequest{Room: "secret", UserID: "u5"})
	wantAPIError(t, err, fasthttp.StatusForbidden, "room_not_allowed")
}
