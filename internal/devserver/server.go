// Package devserver is a reference implementation of the remote game
// service. Rules come from corentings/chess; engine moves come from an
// optional UCI engine.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/uci"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// MoveChooser picks a move for the side to move.
type MoveChooser interface {
	Choose(ctx context.Context, history []string, legal []string) (string, error)
}

// FirstLegal returns the first legal move. It is a stand-in when no engine
// binary is configured.
type FirstLegal struct{}

func (FirstLegal) Choose(_ context.Context, _ []string, legal []string) (string, error) {
	if len(legal) == 0 {
		return "", uci.ErrNoBestMove
	}
	return legal[0], nil
}

// EngineChooser asks a UCI engine session for its best move.
type EngineChooser struct {
	Engine   *uci.Engine
	MoveTime time.Duration
}

func (e EngineChooser) Choose(ctx context.Context, history []string, _ []string) (string, error) {
	res, err := e.Engine.Search(ctx, uci.Position{Moves: history}, e.MoveTime)
	if err != nil {
		return "", err
	}
	return res.Move, nil
}

type Server struct {
	store   *Store
	chooser MoveChooser
	eco     *opening.BookECO
	logger  *zap.Logger
	timeout time.Duration
}

// Opening names the deepest ECO line the game has followed.
type Opening struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

func NewServer(store *Store, chooser MoveChooser, logger *zap.Logger) *Server {
	if chooser == nil {
		chooser = FirstLegal{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{store: store, chooser: chooser, eco: opening.NewBookECO(), logger: logger, timeout: 30 * time.Second}
}

// Handler routes GET /<route>/<id>[/<arg>].
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	reqCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	route, id, arg := parts[0], "", ""
	if len(parts) > 1 {
		id = parts[1]
	}
	if len(parts) > 2 {
		arg = parts[2]
	}

	switch {
	case route == "board" && len(parts) == 1:
		s.handleCreate(reqCtx, ctx)
	case route == "retboard" && len(parts) == 2:
		s.withGame(reqCtx, ctx, id, func(_ *Game, g *nchess.Game) { writeJSON(ctx, board.FromPosition(g.Position().Board())) })
	case route == "legalmoves" && len(parts) == 2:
		s.withGame(reqCtx, ctx, id, func(_ *Game, g *nchess.Game) { writeJSON(ctx, LegalMoves(g)) })
	case route == "turn" && len(parts) == 2:
		s.withGame(reqCtx, ctx, id, func(_ *Game, g *nchess.Game) { writeJSON(ctx, g.Position().Turn() == nchess.White) })
	case route == "bestmove" && len(parts) == 2:
		s.handleBestMove(reqCtx, ctx, id)
	case route == "makemove" && len(parts) == 3:
		s.handleMove(reqCtx, ctx, id, strings.ToLower(arg))
	case route == "opening" && len(parts) == 2:
		s.withGame(reqCtx, ctx, id, func(_ *Game, g *nchess.Game) { writeJSON(ctx, s.openingOf(g)) })
	case route == "removegame" && len(parts) == 2:
		if err := s.store.Remove(reqCtx, id); err != nil {
			s.fail(ctx, "remove_failed", err)
			return
		}
		ctx.SetStatusCode(fasthttp.StatusOK)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleCreate(reqCtx context.Context, ctx *fasthttp.RequestCtx) {
	g, err := s.store.Create(reqCtx)
	if err != nil {
		s.fail(ctx, "create_failed", err)
		return
	}
	s.logger.Info("game_created", zap.String("game_id", g.ID))
	writeJSON(ctx, []any{g.ID, board.StartPosition()})
}

func (s *Server) handleBestMove(reqCtx context.Context, ctx *fasthttp.RequestCtx, id string) {
	s.withGame(reqCtx, ctx, id, func(rec *Game, g *nchess.Game) {
		mv, err := s.chooser.Choose(reqCtx, rec.MovesUCI, LegalMoves(g))
		if err != nil {
			s.fail(ctx, "best_move_failed", err)
			return
		}
		writeJSON(ctx, mv)
	})
}

func (s *Server) handleMove(reqCtx context.Context, ctx *fasthttp.RequestCtx, id, mv string) {
	_, g, err := s.store.ApplyMove(reqCtx, id, mv)
	if err != nil {
		s.fail(ctx, "move_rejected", err)
		return
	}
	s.logger.Info("move_applied",
		zap.String("game_id", id),
		zap.String("move", mv),
		zap.String("outcome", string(g.Outcome())),
		zap.String("opening", s.openingOf(g).Title),
	)
	writeJSON(ctx, board.FromPosition(g.Position().Board()))
}

func (s *Server) openingOf(g *nchess.Game) Opening {
	if o := s.eco.Find(g.Moves()); o != nil {
		return Opening{Code: o.Code(), Title: o.Title()}
	}
	return Opening{}
}

func (s *Server) withGame(reqCtx context.Context, ctx *fasthttp.RequestCtx, id string, fn func(*Game, *nchess.Game)) {
	rec, err := s.store.Get(reqCtx, id)
	if err != nil {
		s.fail(ctx, "game_lookup_failed", err)
		return
	}
	g, err := Reconstruct(rec.MovesUCI)
	if err != nil {
		s.fail(ctx, "game_replay_failed", err)
		return
	}
	fn(rec, g)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, event string, err error) {
	status := fasthttp.StatusInternalServerError
	switch {
	case errors.Is(err, ErrGameNotFound):
		status = fasthttp.StatusNotFound
	case errors.Is(err, ErrIllegalMove):
		status = fasthttp.StatusBadRequest
	case errors.Is(err, ErrConflict):
		status = fasthttp.StatusConflict
	}
	s.logger.Warn(event, zap.Int("status", status), zap.Error(err))
	ctx.Error(err.Error(), status)
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(raw)
}
