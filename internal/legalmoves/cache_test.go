package legalmoves

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/square"
)

type stubFetcher struct {
	moves []string
	err   error
	calls int
}

func (s *stubFetcher) LegalMoves(ctx context.Context, id domain.GameID) ([]string, error) {
	s.calls++
	return s.moves, s.err
}

func mustSquare(t *testing.T, text string) square.Square {
	t.Helper()
	sq, err := square.Decode(text)
	if err != nil {
		t.Fatalf("Decode(%q): %v", text, err)
	}
	return sq
}

func TestRefreshReplacesAndSkipsMalformed(t *testing.T) {
	f := &stubFetcher{moves: []string{"e2e4", "x9e4", "e2e3"}}
	c := New(f, nil)
	id := domain.GameIDFromUint64(7)

	got, err := c.Refresh(context.Background(), id)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	texts := make([]string, 0, len(got))
	for _, mv := range got {
		texts = append(texts, mv.Text)
	}
	if diff := cmp.Diff([]string{"e2e4", "e2e3"}, texts); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}

	f.moves = []string{"g1f3"}
	got, _ = c.Refresh(context.Background(), id)
	if len(got) != 1 || got[0].Text != "g1f3" {
		t.Fatalf("second refresh should replace the set, got %v", got)
	}
	if cur, fresh := c.Current(); !fresh || len(cur) != 1 {
		t.Fatalf("Current() = %v, %v", cur, fresh)
	}
}

func TestInvalidateMarksStale(t *testing.T) {
	c := New(&stubFetcher{moves: []string{"e2e4"}}, nil)
	_, _ = c.Refresh(context.Background(), domain.GameIDFromUint64(1))
	c.Invalidate()
	if _, fresh := c.Current(); fresh {
		t.Fatalf("set should be stale after Invalidate")
	}
}

func TestRefreshErrorLeavesStale(t *testing.T) {
	boom := errors.New("boom")
	f := &stubFetcher{moves: []string{"e2e4"}}
	c := New(f, nil)
	_, _ = c.Refresh(context.Background(), domain.GameIDFromUint64(1))
	f.err = boom
	if _, err := c.Refresh(context.Background(), domain.GameIDFromUint64(1)); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, fresh := c.Current(); fresh {
		t.Fatalf("failed refresh must not leave the set fresh")
	}
}

func TestMatchAndDestinations(t *testing.T) {
	var set []square.Move
	for _, text := range []string{"e2e4", "e2e3", "g1f3", "e7e8q", "e7e8n"} {
		mv, _ := square.ParseMove(text)
		set = append(set, mv)
	}
	mv, ok := Match(set, mustSquare(t, "e2"), mustSquare(t, "e4"))
	if !ok || mv.Text != "e2e4" {
		t.Fatalf("Match = %v, %v", mv, ok)
	}
	if _, ok := Match(set, mustSquare(t, "e2"), mustSquare(t, "e5")); ok {
		t.Fatalf("e2e5 should not match")
	}
	promo, ok := Match(set, mustSquare(t, "e7"), mustSquare(t, "e8"))
	if !ok || promo.Text != "e7e8q" {
		t.Fatalf("first promotion match should win, got %v", promo)
	}
	dests := Destinations(set, mustSquare(t, "e2"))
	want := []square.Square{mustSquare(t, "e4"), mustSquare(t, "e3")}
	if diff := cmp.Diff(want, dests); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
	if got := Destinations(set, mustSquare(t, "e7")); len(got) != 1 {
		t.Fatalf("promotion destinations should be deduplicated, got %v", got)
	}
}
