// Package apiclient is a fasthttp client for the arena HTTP API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/park285/chess960-arena/pkg/chessdto"
	"github.com/valyala/fasthttp"
)

// APIError is a non-2xx response.
type APIError struct {
	Status int
	chessdto.DomainError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("arena api error: status=%d code=%s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

// WithRetry sets the attempt budget for idempotent reads.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, fasthttp.MethodGet, "/healthz", nil, nil)
}

func (c *Client) CreateGame(ctx context.Context, req chessdto.CreateGameRequest) (*chessdto.ActionResponse, error) {
	var out chessdto.ActionResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/games", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Game(ctx context.Context, id string) (*chessdto.SessionState, error) {
	var out chessdto.ActionResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/games/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

// ActiveGame returns the user's latest active game, limited to room if set.
func (c *Client) ActiveGame(ctx context.Context, userID, room string) (*chessdto.SessionState, error) {
	path := "/users/" + url.PathEscape(userID) + "/game"
	if room != "" {
		path += "?room=" + url.QueryEscape(room)
	}
	var out chessdto.ActionResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Game, nil
}

// Select sends one square selection, named algebraically ("e2").
func (c *Client) Select(ctx context.Context, gameID, userID, square string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gameID, "select", chessdto.SelectRequest{UserID: userID, Square: square})
}

func (c *Client) Reset(ctx context.Context, gameID, userID string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gameID, "reset", chessdto.ActionRequest{UserID: userID})
}

func (c *Client) Resign(ctx context.Context, gameID, userID string) (*chessdto.ActionResponse, error) {
	return c.action(ctx, gameID, "resign", chessdto.ActionRequest{UserID: userID})
}

func (c *Client) action(ctx context.Context, gameID, verb string, body any) (*chessdto.ActionResponse, error) {
	var out chessdto.ActionResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/games/"+url.PathEscape(gameID)+"/"+verb, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Lobby(ctx context.Context) ([]chessdto.LobbyEntry, error) {
	var out []chessdto.LobbyEntry
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/lobby", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MakeLobby(ctx context.Context, req chessdto.MakeLobbyRequest) (*chessdto.LobbyEntry, error) {
	var out chessdto.LobbyEntry
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/lobby", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) JoinLobby(ctx context.Context, code string, req chessdto.JoinLobbyRequest) (*chessdto.JoinLobbyResponse, error) {
	var out chessdto.JoinLobbyResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/lobby/"+url.PathEscape(code)+"/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// doJSON sends one request. GETs are retried on transport errors and 5xx;
// mutations are sent once.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if method == fasthttp.MethodGet && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, backoffDuration(attempt-1)); err != nil {
				return lastErr
			}
		}
		if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := &APIError{Status: status}
			if jerr := json.Unmarshal(resp.Body(), &apiErr.DomainError); jerr != nil {
				apiErr.Message = truncate(string(resp.Body()), 512)
			}
			lastErr = apiErr
			if shouldRetryStatus(status) {
				continue
			}
			return apiErr
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = min(max(attempt, 1), 6)
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
