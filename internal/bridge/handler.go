// Package bridge serves the board page over a WebSocket. Each connection
// drives its own controller session.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
	"github.com/park285/Cheese-board-controller/internal/controller"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/pkg/boardmsg"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const closeTimeout = 10 * time.Second

type Options struct {
	ExplicitTurn   bool
	RequestTimeout time.Duration
	EngineTimeout  time.Duration
	Messages       controller.Messages
	Logger         *zap.Logger
	// OriginPatterns is passed to websocket.Accept; empty means same origin.
	OriginPatterns []string
}

type Handler struct {
	svc  controller.Service
	opts Options
}

func NewHandler(svc controller.Service, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Handler{svc: svc, opts: opts}
}

// ServeHTTP upgrades the request. An optional ?game=<id> resumes an
// existing game instead of creating one.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var resume domain.GameID
	if v := r.URL.Query().Get("game"); v != "" {
		id, err := domain.ParseGameID(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resume = id
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.opts.OriginPatterns})
	if err != nil {
		h.opts.Logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}

	sessionID := uuid.NewString()
	nickname := petname.Generate(2, "-")
	logger := h.opts.Logger.With(zap.String("session_id", sessionID), zap.String("nickname", nickname))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &conn{ws: ws, id: sessionID, logger: logger, msgs: h.opts.Messages, ctx: ctx}
	session := controller.New(h.svc, c, controller.Options{
		GameID:         resume,
		Assignment:     c.currentAssignment,
		ExplicitTurn:   h.opts.ExplicitTurn,
		RequestTimeout: h.opts.RequestTimeout,
		EngineTimeout:  h.opts.EngineTimeout,
		Messages:       h.opts.Messages,
		Logger:         logger,
	})

	logger.Info("ws_connected", zap.String("remote", r.RemoteAddr))
	c.write(boardmsg.Hello{Type: boardmsg.TypeHello, SessionID: sessionID, Nickname: nickname})
	_ = session.Start(ctx)

	var tasks sync.WaitGroup
	err = readLoop(ctx, c, session, &tasks)
	status := websocket.CloseStatus(err)
	logger.Info("ws_disconnected", zap.Int("status", int(status)), zap.Error(err))

	cancel()
	tasks.Wait()
	closeCtx, closeCancel := context.WithTimeout(context.Background(), closeTimeout)
	defer closeCancel()
	if err := session.Close(closeCtx); err != nil {
		logger.Warn("session_close_failed", zap.Error(err))
	}
	_ = ws.Close(websocket.StatusNormalClosure, "")
}

// readLoop dispatches frames until the connection fails. Clicks, reloads and
// new-game requests each run in their own goroutine.
func readLoop(ctx context.Context, c *conn, session *controller.Session, tasks *sync.WaitGroup) error {
	run := func(fn func(context.Context) error) {
		tasks.Add(1)
		go func() {
			defer tasks.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Debug("frame_failed", zap.Error(err))
			}
		}()
	}

	for {
		var in boardmsg.Inbound
		if err := wsjson.Read(ctx, c.ws, &in); err != nil {
			return err
		}
		switch in.Type {
		case boardmsg.TypeClick:
			if in.Row == nil || in.Col == nil {
				c.rejectFrame(in.Type)
				continue
			}
			c.setAssignment(in.Engine)
			row, col := *in.Row, *in.Col
			run(func(ctx context.Context) error { return session.HandleClick(ctx, row, col) })
		case boardmsg.TypeReload:
			run(session.Reload)
		case boardmsg.TypeNew:
			run(session.NewGame)
		default:
			c.rejectFrame(in.Type)
		}
	}
}
