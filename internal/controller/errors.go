package controller

import (
	"errors"

	"github.com/park285/Cheese-board-controller/internal/domain"
)

var (
	ErrNoActiveGame = domain.ErrNoActiveGame
	// ErrMoveInFlight rejects a move while another one awaits its response.
	ErrMoveInFlight = errors.New("move already in flight")
	// ErrNoMatchingMove is silent: the click simply is not a move.
	ErrNoMatchingMove = errors.New("no matching legal move")
)
