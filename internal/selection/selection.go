// Package selection tracks the square a user has tentatively chosen as a
// move origin.
package selection

import (
	"encoding/json"

	"github.com/park285/Cheese-board-controller/internal/square"
)

// State is either Idle or Selected(square).
type State struct {
	selected bool
	sq       square.Square
}

func Idle() State { return State{} }

func Selected(sq square.Square) State { return State{selected: true, sq: sq} }

func (s State) IsIdle() bool { return !s.selected }

// Square returns the selected square, if any.
func (s State) Square() (square.Square, bool) { return s.sq, s.selected }

func (s State) String() string {
	if !s.selected {
		return "idle"
	}
	return "selected(" + s.sq.String() + ")"
}

// MarshalJSON encodes Idle as null and Selected as {"row":r,"col":c}.
func (s State) MarshalJSON() ([]byte, error) {
	if !s.selected {
		return []byte("null"), nil
	}
	return json.Marshal(s.sq)
}

// Next computes the state after a click on clicked. Off-board clicks
// deselect.
func Next(cur State, clicked square.Square) State {
	if !clicked.InBoard() {
		return Idle()
	}
	if cur.selected && cur.sq == clicked {
		return Idle()
	}
	return Selected(clicked)
}

// Machine is the mutable holder used by the controller. Not safe for
// concurrent use on its own.
type Machine struct {
	state State
}

func (m *Machine) State() State { return m.state }

// Click applies a click and returns the previous state, which callers use as
// the move origin.
func (m *Machine) Click(clicked square.Square) (prev State) {
	prev = m.state
	m.state = Next(m.state, clicked)
	return prev
}

func (m *Machine) Reset() { m.state = Idle() }
