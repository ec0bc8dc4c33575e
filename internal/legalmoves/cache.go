// Package legalmoves caches the most recent set of legal moves reported by
// the remote service for the active game.
package legalmoves

import (
	"context"
	"sync"

	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/square"
	"go.uber.org/zap"
)

// Fetcher is the remote call behind Refresh.
type Fetcher interface {
	LegalMoves(ctx context.Context, id domain.GameID) ([]string, error)
}

type Cache struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu    sync.RWMutex
	moves []square.Move
	fresh bool
}

func New(f Fetcher, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{fetcher: f, logger: logger}
}

// Refresh fetches the current set and replaces the cached one. On error the
// previous set is kept but marked stale.
func (c *Cache) Refresh(ctx context.Context, id domain.GameID) ([]square.Move, error) {
	raw, err := c.fetcher.LegalMoves(ctx, id)
	if err != nil {
		c.Invalidate()
		return nil, err
	}
	moves := make([]square.Move, 0, len(raw))
	for _, text := range raw {
		mv, perr := square.ParseMove(text)
		if perr != nil {
			c.logger.Debug("legal_move_skipped", zap.String("game_id", id.String()), zap.String("move", text), zap.Error(perr))
			continue
		}
		moves = append(moves, mv)
	}
	c.mu.Lock()
	c.moves = moves
	c.fresh = true
	c.mu.Unlock()
	return append([]square.Move(nil), moves...), nil
}

// Invalidate marks the cached set stale; it must be refreshed before use.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fresh = false
	c.mu.Unlock()
}

// Current returns a copy of the cached set and whether it is still fresh.
func (c *Cache) Current() ([]square.Move, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]square.Move(nil), c.moves...), c.fresh
}

// Match returns the first move connecting origin to dest.
func Match(moves []square.Move, origin, dest square.Square) (square.Move, bool) {
	for _, mv := range moves {
		if mv.Connects(origin, dest) {
			return mv, true
		}
	}
	return square.Move{}, false
}

// Destinations lists the distinct squares reachable from origin.
func Destinations(moves []square.Move, origin square.Square) []square.Square {
	var out []square.Square
	seen := make(map[square.Square]struct{})
	for _, mv := range moves {
		if mv.From != origin {
			continue
		}
		if _, dup := seen[mv.To]; dup {
			continue
		}
		seen[mv.To] = struct{}{}
		out = append(out, mv.To)
	}
	return out
}
