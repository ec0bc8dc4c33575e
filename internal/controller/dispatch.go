package controller

import (
	"context"
	"errors"

	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/legalmoves"
	"github.com/park285/Cheese-board-controller/internal/selection"
	"github.com/park285/Cheese-board-controller/internal/square"
	"go.uber.org/zap"
)

// dispatch plays the first legal move from the selected origin to dest.
func (s *Session) dispatch(ctx context.Context, id domain.GameID, origin selection.State, dest square.Square, moves []square.Move) error {
	from, ok := origin.Square()
	if !ok || !from.InBoard() || !dest.InBoard() {
		return ErrNoMatchingMove
	}
	mv, ok := legalmoves.Match(moves, from, dest)
	if !ok {
		return ErrNoMatchingMove
	}
	if !s.guard.tryAcquire() {
		s.logger.Info("move_rejected_in_flight", zap.String("game_id", id.String()), zap.String("move", mv.Text))
		return ErrMoveInFlight
	}
	defer s.guard.release()
	return s.execute(ctx, id, mv.Text)
}

// execute sends one move under a fresh generation. The guard must be held.
func (s *Session) execute(ctx context.Context, id domain.GameID, move string) error {
	gen := s.gen.Add(1)
	reqCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	b, err := s.svc.MakeMove(reqCtx, id, move)
	if err != nil {
		s.logger.Warn("move_failed", zap.String("game_id", id.String()), zap.String("move", move), zap.Error(err))
		return err
	}
	// The service has applied the move even if the board below loses the
	// generation race, so the legal set is stale either way.
	s.moves.Invalidate()
	if err := s.apply(gen, b); err != nil {
		if errors.Is(err, board.ErrStaleResponse) {
			return nil
		}
		return err
	}
	s.logger.Info("move_applied", zap.String("game_id", id.String()), zap.String("move", move), zap.Uint64("generation", gen))
	return nil
}
