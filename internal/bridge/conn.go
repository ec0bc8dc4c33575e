package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/park285/Cheese-board-controller/internal/arbiter"
	"github.com/park285/Cheese-board-controller/internal/controller"
	"github.com/park285/Cheese-board-controller/pkg/boardmsg"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

// conn is one page connection. It is the session's View, so every frame
// written here may come from a click goroutine or from background engine
// work; writes are serialized because the websocket is not safe for
// concurrent writers.
type conn struct {
	ws     *websocket.Conn
	id     string
	logger *zap.Logger
	msgs   controller.Messages

	ctx     context.Context
	writeMu sync.Mutex

	assignment atomic.Int32
}

func (c *conn) currentAssignment() arbiter.Assignment {
	return arbiter.Assignment(c.assignment.Load())
}

func (c *conn) setAssignment(v string) {
	if v == "" {
		return
	}
	c.assignment.Store(int32(arbiter.ParseAssignment(v)))
}

func (c *conn) Redraw(req controller.DrawRequest) {
	frame := boardmsg.Draw{
		Type:         boardmsg.TypeDraw,
		Destinations: make([]boardmsg.Square, 0, len(req.Destinations)),
		Moves:        make([]string, 0, len(req.Moves)),
	}
	if req.GameID.IsSet() {
		frame.GameID = req.GameID.String()
	}
	for r := range req.Board {
		for col, code := range req.Board[r] {
			frame.Board[r][col] = int(code)
		}
	}
	if sq, ok := req.Selection.Square(); ok {
		frame.Selected = &boardmsg.Square{Row: sq.Row, Col: sq.Col}
	}
	for _, sq := range req.Destinations {
		frame.Destinations = append(frame.Destinations, boardmsg.Square{Row: sq.Row, Col: sq.Col})
	}
	for _, mv := range req.Moves {
		frame.Moves = append(frame.Moves, mv.Text)
	}
	c.write(frame)
}

func (c *conn) Notice(n controller.Notice) {
	c.write(boardmsg.Notice{Type: boardmsg.TypeNotice, Kind: string(n.Kind), Text: n.Text})
}

func (c *conn) rejectFrame(frameType string) {
	text := "Unrecognised message: " + frameType
	if c.msgs != nil {
		if out, err := c.msgs.Render("bridge.bad_frame", map[string]any{"Type": frameType}); err == nil {
			text = out
		}
	}
	c.write(boardmsg.Notice{Type: boardmsg.TypeNotice, Kind: "bad_frame", Text: text})
}

func (c *conn) write(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ctx, cancel := context.WithTimeout(c.ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.ws, v); err != nil {
		c.logger.Debug("ws_write_failed", zap.Error(err))
	}
}
