// Package gameapi is the HTTP client for the remote game service.
package gameapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var (
	// ErrRemoteRequestFailed wraps every transport, status or decode failure.
	ErrRemoteRequestFailed = errors.New("remote request failed")
	// ErrNoActiveGame is returned before any request carrying the unset id.
	ErrNoActiveGame = domain.ErrNoActiveGame
)

// StatusError carries a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("game service error: status=%d body=%s", e.Status, e.Body)
}

// Client speaks the game service's HTTP routes.
type Client struct {
	baseURL string
	http    *fasthttp.Client
	logger  *zap.Logger

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDial replaces the dialer; tests use it with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = dial }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		logger:         zap.NewNop(),
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession starts a new game and returns its id and initial board.
func (c *Client) CreateSession(ctx context.Context) (domain.GameID, board.Board, error) {
	var pair []json.RawMessage
	if err := c.getJSON(ctx, "/board", &pair, false); err != nil {
		return domain.GameID{}, board.Board{}, err
	}
	if len(pair) != 2 {
		return domain.GameID{}, board.Board{}, fmt.Errorf("%w: session response has %d elements", ErrRemoteRequestFailed, len(pair))
	}
	var id domain.GameID
	if err := json.Unmarshal(pair[0], &id); err != nil || !id.IsSet() {
		return domain.GameID{}, board.Board{}, fmt.Errorf("%w: decode game id: %v", ErrRemoteRequestFailed, err)
	}
	var b board.Board
	if err := json.Unmarshal(pair[1], &b); err != nil {
		return domain.GameID{}, board.Board{}, fmt.Errorf("%w: decode board: %v", ErrRemoteRequestFailed, err)
	}
	return id, b, nil
}

func (c *Client) FetchBoard(ctx context.Context, id domain.GameID) (board.Board, error) {
	var b board.Board
	if err := c.gameJSON(ctx, "/retboard", id, "", &b, true); err != nil {
		return board.Board{}, err
	}
	return b, nil
}

func (c *Client) LegalMoves(ctx context.Context, id domain.GameID) ([]string, error) {
	var moves []string
	if err := c.gameJSON(ctx, "/legalmoves", id, "", &moves, true); err != nil {
		return nil, err
	}
	return moves, nil
}

func (c *Client) BestMove(ctx context.Context, id domain.GameID) (string, error) {
	var mv string
	if err := c.gameJSON(ctx, "/bestmove", id, "", &mv, false); err != nil {
		return "", err
	}
	return mv, nil
}

// MakeMove is never retried: a lost response may still have been applied.
func (c *Client) MakeMove(ctx context.Context, id domain.GameID, move string) (board.Board, error) {
	if strings.TrimSpace(move) == "" {
		return board.Board{}, fmt.Errorf("%w: empty move", ErrRemoteRequestFailed)
	}
	var b board.Board
	if err := c.gameJSON(ctx, "/makemove", id, move, &b, false); err != nil {
		return board.Board{}, err
	}
	return b, nil
}

// SideToMove asks the service whose turn it is.
func (c *Client) SideToMove(ctx context.Context, id domain.GameID) (domain.Color, error) {
	var whiteToMove bool
	if err := c.gameJSON(ctx, "/turn", id, "", &whiteToMove, true); err != nil {
		return "", err
	}
	if whiteToMove {
		return domain.White, nil
	}
	return domain.Black, nil
}

// OpeningInfo is the reference service's ECO classification.
type OpeningInfo struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// Opening is only served by the reference service.
func (c *Client) Opening(ctx context.Context, id domain.GameID) (OpeningInfo, error) {
	var o OpeningInfo
	if err := c.gameJSON(ctx, "/opening", id, "", &o, true); err != nil {
		return OpeningInfo{}, err
	}
	return o, nil
}

func (c *Client) RemoveGame(ctx context.Context, id domain.GameID) error {
	return c.gameJSON(ctx, "/removegame", id, "", nil, false)
}

func (c *Client) gameJSON(ctx context.Context, route string, id domain.GameID, arg string, out any, retry bool) error {
	if !id.IsSet() {
		return ErrNoActiveGame
	}
	path := route + "/" + id.String()
	if arg != "" {
		path += "/" + url.PathEscape(arg)
	}
	return c.getJSON(ctx, path, out, retry)
}

func (c *Client) getJSON(ctx context.Context, path string, out any, retry bool) error {
	err := c.doJSON(ctx, fasthttp.MethodGet, path, out, retry)
	if err != nil {
		c.logger.Warn("remote_request_failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrRemoteRequestFailed, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.Set("Accept", "application/json")

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			lastErr = &StatusError{Status: status, Body: truncate(string(resp.Body()), 512)}
			if attempt == attempts || !shouldRetryStatus(status) {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
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
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 100 * time.Millisecond
	return time.Duration(1<<uint(attempt-1)) * base // 100ms, 200ms ...
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
