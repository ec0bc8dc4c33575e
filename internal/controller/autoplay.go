package controller

import (
	"context"

	"github.com/park285/Cheese-board-controller/internal/domain"
	"go.uber.org/zap"
)

// startAutoplay takes the guard and plays the engine's move in the
// background. It returns ErrMoveInFlight without starting anything when the
// guard is taken.
func (s *Session) startAutoplay(id domain.GameID) error {
	if !s.guard.tryAcquire() {
		s.logger.Info("autoplay_rejected_in_flight", zap.String("game_id", id.String()))
		return ErrMoveInFlight
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.guard.release()
		s.autoplay(id)
	}()
	return nil
}

func (s *Session) autoplay(id domain.GameID) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.EngineTimeout)
	defer cancel()

	mv, err := s.svc.BestMove(ctx, id)
	if err != nil {
		s.logger.Warn("engine_move_failed", zap.String("game_id", id.String()), zap.Error(err))
		s.notify(NoticeEngineFailure)
		return
	}
	if err := s.execute(ctx, id, mv); err != nil {
		s.notify(NoticeRemoteFailure)
		return
	}
	s.redraw()
}
