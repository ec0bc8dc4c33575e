package board

import (
	"encoding/json"
	"errors"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/square"
)

func TestPieceCodeColorAndValidity(t *testing.T) {
	wp := Pawn | ColorWhite
	if c, ok := wp.Color(); !ok || c != domain.White {
		t.Fatalf("white pawn colour = %v, %v", c, ok)
	}
	bk := King | ColorBlack
	if c, ok := bk.Color(); !ok || c != domain.Black {
		t.Fatalf("black king colour = %v, %v", c, ok)
	}
	if _, ok := Empty.Color(); ok {
		t.Fatalf("empty square should have no colour")
	}
	for _, bad := range []PieceCode{0b11, ColorWhite, Pawn, Pawn | 0b11, 0b11100 | ColorWhite, 0b100000 | ColorWhite} {
		if bad.Valid() {
			t.Errorf("code %05b should be invalid", int(bad))
		}
	}
}

func TestUnmarshalFullGrid(t *testing.T) {
	start := StartPosition()
	raw, err := json.Marshal(start)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Board
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(start, got); diff != "" {
		t.Fatalf("board mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalRejectsPartialGrid(t *testing.T) {
	cases := []string{
		`[[0,0,0,0,0,0,0,0]]`,
		`[[0],[0],[0],[0],[0],[0],[0],[0]]`,
		`"not a board"`,
		`[[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,0],[0,0,0,0,0,0,0,3]]`,
	}
	for _, raw := range cases {
		var b Board
		if err := json.Unmarshal([]byte(raw), &b); !errors.Is(err, ErrMalformedBoard) {
			t.Errorf("Unmarshal(%s) err = %v; want ErrMalformedBoard", raw, err)
		}
	}
}

func TestStoreReplaceIsWholesale(t *testing.T) {
	s := NewStore()
	if s.Loaded() {
		t.Fatalf("new store should not be loaded")
	}
	if err := s.Replace(1, StartPosition()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	var next Board
	next[4][4] = Pawn | ColorWhite
	if err := s.Replace(2, next); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if diff := cmp.Diff(next, s.Current()); diff != "" {
		t.Fatalf("board should be exactly the new snapshot (-want +got):\n%s", diff)
	}
}

func TestStoreDiscardsStaleGeneration(t *testing.T) {
	s := NewStore()
	_ = s.Replace(5, StartPosition())
	var older Board
	if err := s.Replace(4, older); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("Replace(older) err = %v; want ErrStaleResponse", err)
	}
	if err := s.Replace(5, older); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("Replace(same gen) err = %v; want ErrStaleResponse", err)
	}
	if s.Current() != StartPosition() || s.Generation() != 5 {
		t.Fatalf("stale response must not overwrite board")
	}
}

func TestFromPositionMatchesStart(t *testing.T) {
	game := nchess.NewGame()
	got := FromPosition(game.Position().Board())
	if diff := cmp.Diff(StartPosition(), got); diff != "" {
		t.Fatalf("start position mismatch (-want +got):\n%s", diff)
	}
	if got.At(square.Square{Row: 6, Col: 4}) != Pawn|ColorWhite {
		t.Fatalf("expected white pawn on e2")
	}
	if got.At(square.Square{Row: 9, Col: 0}) != Empty {
		t.Fatalf("off-board lookup should be empty")
	}
}
