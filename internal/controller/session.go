// Package controller turns clicks on a displayed board into requests against
// the remote game service and keeps the local view of the game consistent
// with its responses.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/park285/Cheese-board-controller/internal/arbiter"
	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/legalmoves"
	"github.com/park285/Cheese-board-controller/internal/selection"
	"github.com/park285/Cheese-board-controller/internal/square"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultEngineTimeout  = 30 * time.Second
)

// Service is the remote game service. *gameapi.Client satisfies it.
type Service interface {
	CreateSession(ctx context.Context) (domain.GameID, board.Board, error)
	FetchBoard(ctx context.Context, id domain.GameID) (board.Board, error)
	LegalMoves(ctx context.Context, id domain.GameID) ([]string, error)
	BestMove(ctx context.Context, id domain.GameID) (string, error)
	MakeMove(ctx context.Context, id domain.GameID, move string) (board.Board, error)
}

// TurnReporter is implemented by services that state the side to move.
type TurnReporter interface {
	SideToMove(ctx context.Context, id domain.GameID) (domain.Color, error)
}

// GameRemover is implemented by services that can drop a finished game.
type GameRemover interface {
	RemoveGame(ctx context.Context, id domain.GameID) error
}

type Options struct {
	// GameID resumes an existing game; the zero value creates one on Start.
	GameID domain.GameID
	// Assignment is read at the start of every click.
	Assignment func() arbiter.Assignment
	// ExplicitTurn asks the service for the side to move instead of
	// inferring it from the first legal move.
	ExplicitTurn   bool
	RequestTimeout time.Duration
	EngineTimeout  time.Duration
	Messages       Messages
	Logger         *zap.Logger
}

// Session is one controller instance bound to at most one game at a time.
type Session struct {
	svc    Service
	view   View
	opts   Options
	logger *zap.Logger

	store *board.Store
	moves *legalmoves.Cache
	guard guard
	gen   atomic.Uint64
	wg    sync.WaitGroup

	mu  sync.Mutex
	id  domain.GameID
	sel selection.Machine
}

func New(svc Service, view View, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Assignment == nil {
		opts.Assignment = func() arbiter.Assignment { return arbiter.None }
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.EngineTimeout <= 0 {
		opts.EngineTimeout = defaultEngineTimeout
	}
	return &Session{
		svc:    svc,
		view:   view,
		opts:   opts,
		logger: opts.Logger,
		store:  board.NewStore(),
		moves:  legalmoves.New(svc, opts.Logger),
		id:     opts.GameID,
	}
}

func (s *Session) GameID() domain.GameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Board() board.Board { return s.store.Current() }

func (s *Session) Selection() selection.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel.State()
}

// Start creates a game when none is set, otherwise reloads the current one.
func (s *Session) Start(ctx context.Context) error {
	if s.GameID().IsSet() {
		return s.Reload(ctx)
	}
	return s.create(ctx)
}

// NewGame abandons the current game and creates a fresh one.
func (s *Session) NewGame(ctx context.Context) error {
	s.Wait()
	s.mu.Lock()
	prev := s.id
	s.id = domain.GameID{}
	s.sel.Reset()
	s.mu.Unlock()
	s.moves.Invalidate()
	if prev.IsSet() {
		_ = s.removeGame(ctx, prev)
	}
	return s.create(ctx)
}

func (s *Session) create(ctx context.Context) error {
	gen := s.gen.Add(1)
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	id, b, err := s.svc.CreateSession(reqCtx)
	if err != nil {
		s.logger.Warn("session_create_failed", zap.Error(err))
		s.notify(NoticeRemoteFailure)
		return err
	}
	s.mu.Lock()
	s.id = id
	s.sel.Reset()
	s.mu.Unlock()
	s.moves.Invalidate()
	if err := s.apply(gen, b); err != nil {
		return nil
	}
	s.logger.Info("session_created", zap.String("game_id", id.String()))
	s.redraw()
	return nil
}

// Reload fetches the authoritative board. A response overtaken by a newer
// one is discarded.
func (s *Session) Reload(ctx context.Context) error {
	id := s.GameID()
	if !id.IsSet() {
		s.notify(NoticeNoActiveGame)
		return ErrNoActiveGame
	}
	gen := s.gen.Add(1)
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	b, err := s.svc.FetchBoard(reqCtx, id)
	if err != nil {
		s.logger.Warn("board_fetch_failed", zap.String("game_id", id.String()), zap.Error(err))
		s.notify(NoticeRemoteFailure)
		return err
	}
	if err := s.apply(gen, b); err != nil {
		return nil
	}
	s.redraw()
	return nil
}

// HandleClick processes one click at (row, col). Coordinates outside the
// board deselect.
func (s *Session) HandleClick(ctx context.Context, row, col int) error {
	id := s.GameID()
	if !id.IsSet() {
		s.notify(NoticeNoActiveGame)
		return ErrNoActiveGame
	}
	clicked := square.Square{Row: row, Col: col}

	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	moves, err := s.moves.Refresh(reqCtx, id)
	cancel()
	if err != nil {
		s.logger.Warn("legal_moves_failed", zap.String("game_id", id.String()), zap.Error(err))
		s.notify(NoticeRemoteFailure)
		return err
	}

	origin := s.Selection()
	if clicked.InBoard() {
		decision := s.decide(ctx, id, moves)
		s.logger.Debug("click_decided",
			zap.String("game_id", id.String()),
			zap.String("square", clicked.String()),
			zap.String("actor", decision.Actor.String()),
			zap.String("side", string(decision.Side)),
		)
		switch decision.Actor {
		case arbiter.Engine:
			if err := s.startAutoplay(id); err != nil {
				s.notify(NoticeMoveInFlight)
				return err
			}
		case arbiter.Human:
			err := s.dispatch(ctx, id, origin, clicked, moves)
			switch {
			case err == nil, errors.Is(err, ErrNoMatchingMove):
			case errors.Is(err, ErrMoveInFlight):
				s.notify(NoticeMoveInFlight)
				return err
			default:
				s.notify(NoticeRemoteFailure)
				return err
			}
		}
	}

	s.mu.Lock()
	if s.id.Equal(id) {
		s.sel.Click(clicked)
	}
	s.mu.Unlock()
	s.redraw()
	return nil
}

// Close waits for background engine work and then drops the game on the
// service when it supports removal.
func (s *Session) Close(ctx context.Context) error {
	s.Wait()
	id := s.GameID()
	if !id.IsSet() {
		return nil
	}
	return s.removeGame(ctx, id)
}

// Wait blocks until background engine moves have finished.
func (s *Session) Wait() { s.wg.Wait() }

func (s *Session) removeGame(ctx context.Context, id domain.GameID) error {
	r, ok := s.svc.(GameRemover)
	if !ok {
		return nil
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	if err := r.RemoveGame(reqCtx, id); err != nil {
		s.logger.Warn("game_remove_failed", zap.String("game_id", id.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *Session) decide(ctx context.Context, id domain.GameID, moves []square.Move) arbiter.Decision {
	var reported *domain.Color
	if tr, ok := s.svc.(TurnReporter); ok && s.opts.ExplicitTurn && len(moves) > 0 {
		reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		side, err := tr.SideToMove(reqCtx, id)
		cancel()
		if err != nil {
			s.logger.Debug("turn_query_failed", zap.String("game_id", id.String()), zap.Error(err))
		} else {
			reported = &side
		}
	}
	return arbiter.Decide(s.opts.Assignment(), s.store.Current(), moves, reported)
}

// apply installs b if gen is still the newest. The caller owns the redraw.
func (s *Session) apply(gen uint64, b board.Board) error {
	if err := s.store.Replace(gen, b); err != nil {
		if errors.Is(err, board.ErrStaleResponse) {
			s.logger.Info("stale_response_discarded",
				zap.Uint64("generation", gen),
				zap.Uint64("current", s.store.Generation()),
			)
		}
		return err
	}
	return nil
}

func (s *Session) redraw() {
	s.mu.Lock()
	req := DrawRequest{GameID: s.id, Selection: s.sel.State()}
	s.mu.Unlock()
	req.Board = s.store.Current()
	if moves, fresh := s.moves.Current(); fresh {
		req.Moves = moves
		if sq, ok := req.Selection.Square(); ok {
			req.Destinations = legalmoves.Destinations(moves, sq)
		}
	}
	s.view.Redraw(req)
}

func (s *Session) notify(kind NoticeKind) {
	text := defaultNoticeText[kind]
	if s.opts.Messages != nil {
		rendered, err := s.opts.Messages.Render("notice."+string(kind), map[string]any{"GameID": s.GameID().String()})
		if err == nil {
			text = rendered
		} else {
			s.logger.Debug("notice_render_failed", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	s.view.Notice(Notice{Kind: kind, Text: text})
}
