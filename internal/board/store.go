package board

import (
	"errors"
	"sync"
)

// ErrStaleResponse is returned when a board arrives tagged with a generation
// that is not newer than the one already applied.
var ErrStaleResponse = errors.New("stale response discarded")

// Store holds the last authoritative snapshot. Boards are only ever swapped
// whole.
type Store struct {
	mu     sync.RWMutex
	board  Board
	gen    uint64
	loaded bool
}

func NewStore() *Store { return &Store{} }

// Replace installs b iff gen is strictly newer than the current generation.
func (s *Store) Replace(gen uint64, b Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && gen <= s.gen {
		return ErrStaleResponse
	}
	s.board = b
	s.gen = gen
	s.loaded = true
	return nil
}

func (s *Store) Current() Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}
