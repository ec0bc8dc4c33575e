package selection

import (
	"encoding/json"
	"testing"

	"github.com/park285/Cheese-board-controller/internal/square"
)

func sq(t *testing.T, text string) square.Square {
	t.Helper()
	s, err := square.Decode(text)
	if err != nil {
		t.Fatalf("Decode(%q): %v", text, err)
	}
	return s
}

func TestClickSameSquareTwiceDeselects(t *testing.T) {
	var m Machine
	e2 := sq(t, "e2")
	if prev := m.Click(e2); !prev.IsIdle() {
		t.Fatalf("initial state should be idle, got %v", prev)
	}
	if got, ok := m.State().Square(); !ok || got != e2 {
		t.Fatalf("expected selected(e2), got %v", m.State())
	}
	prev := m.Click(e2)
	if got, _ := prev.Square(); got != e2 {
		t.Fatalf("previous state should carry e2, got %v", prev)
	}
	if !m.State().IsIdle() {
		t.Fatalf("expected idle after second click, got %v", m.State())
	}
}

func TestClickOtherSquareReplaces(t *testing.T) {
	var m Machine
	m.Click(sq(t, "e2"))
	m.Click(sq(t, "d2"))
	if got, ok := m.State().Square(); !ok || got != sq(t, "d2") {
		t.Fatalf("expected selected(d2), got %v", m.State())
	}
}

func TestOffBoardClickDeselects(t *testing.T) {
	var m Machine
	m.Click(sq(t, "e2"))
	m.Click(square.Square{Row: -1, Col: 4})
	if !m.State().IsIdle() {
		t.Fatalf("off-board click should deselect, got %v", m.State())
	}
	m.Click(square.Square{Row: 3, Col: 8})
	if !m.State().IsIdle() {
		t.Fatalf("off-board click from idle should stay idle, got %v", m.State())
	}
}

func TestStateJSON(t *testing.T) {
	raw, _ := json.Marshal(Idle())
	if string(raw) != "null" {
		t.Fatalf("idle JSON = %s", raw)
	}
	raw, _ = json.Marshal(Selected(square.Square{Row: 6, Col: 4}))
	if string(raw) != `{"row":6,"col":4}` {
		t.Fatalf("selected JSON = %s", raw)
	}
}
