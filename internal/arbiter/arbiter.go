// Package arbiter decides whether the engine or the human acts next.
package arbiter

import (
	"strings"

	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/square"
)

// Assignment is the externally configured engine colour.
type Assignment int

const (
	None Assignment = iota
	EngineIsWhite
	EngineIsBlack
)

// ParseAssignment reads the UI select value. Unknown values mean no engine.
func ParseAssignment(v string) Assignment {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "white", "w":
		return EngineIsWhite
	case "black", "b":
		return EngineIsBlack
	default:
		return None
	}
}

func (a Assignment) String() string {
	switch a {
	case EngineIsWhite:
		return "white"
	case EngineIsBlack:
		return "black"
	default:
		return "none"
	}
}

// EngineColor returns the engine's side; ok is false for None.
func (a Assignment) EngineColor() (domain.Color, bool) {
	switch a {
	case EngineIsWhite:
		return domain.White, true
	case EngineIsBlack:
		return domain.Black, true
	default:
		return "", false
	}
}

type Actor int

const (
	Nobody Actor = iota
	Human
	Engine
)

func (a Actor) String() string {
	switch a {
	case Human:
		return "human"
	case Engine:
		return "engine"
	default:
		return "nobody"
	}
}

type Decision struct {
	Actor Actor
	// Side is the side to move; empty when it could not be determined.
	Side domain.Color
}

// Decide picks the next actor. reported is the side to move as stated by the
// remote service, nil when unavailable; the occupant of the first legal
// move's origin is used instead. An empty move set means nobody can move.
func Decide(a Assignment, b board.Board, moves []square.Move, reported *domain.Color) Decision {
	if len(moves) == 0 {
		return Decision{Actor: Nobody}
	}
	side, ok := SideToMove(b, moves, reported)
	if !ok {
		return Decision{Actor: Nobody}
	}
	engine, hasEngine := a.EngineColor()
	if hasEngine && engine == side {
		return Decision{Actor: Engine, Side: side}
	}
	return Decision{Actor: Human, Side: side}
}

func SideToMove(b board.Board, moves []square.Move, reported *domain.Color) (domain.Color, bool) {
	if reported != nil && (*reported == domain.White || *reported == domain.Black) {
		return *reported, true
	}
	if len(moves) == 0 {
		return "", false
	}
	return b.At(moves[0].From).Color()
}
