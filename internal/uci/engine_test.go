package uci

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

// fakeEngine answers isready and go the way a real engine would; every
// command it receives is echoed on the returned channel.
func fakeEngine(t *testing.T, reply string) (*Engine, <-chan string) {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	seen := make(chan string, 32)
	go func() {
		defer outW.Close()
		sc := bufio.NewScanner(inR)
		for sc.Scan() {
			line := sc.Text()
			seen <- line
			switch {
			case line == "uci":
				_, _ = io.WriteString(outW, "id name fake\nuciok\n")
			case line == "isready":
				_, _ = io.WriteString(outW, "readyok\n")
			case strings.HasPrefix(line, "go"):
				if reply != "" {
					_, _ = io.WriteString(outW, "info depth 12 score cp 31 pv e2e4 e7e5\n"+reply+"\n")
				}
			case line == "stop":
				_, _ = io.WriteString(outW, "bestmove a2a3\n")
			}
		}
	}()
	e := attach(inW, outR, nil)
	t.Cleanup(func() { _ = e.Close() })
	return e, seen
}

func drain(seen <-chan string, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, <-seen)
	}
	return out
}

func TestHandshakeAppliesOptions(t *testing.T) {
	e, seen := fakeEngine(t, "")
	if err := e.handshake(context.Background(), Options{Threads: 2, HashMB: 16, SkillLevel: 5}); err != nil { t.Fatalf("handshake: %v", err) }
	got := drain(seen, 5)
	want := []string{"uci", "setoption name Threads value 2", "setoption name Hash value 16", "setoption name Skill Level value 5", "isready"}
	for i := range want {
		if got[i] != want[i] { t.Fatalf("command %d = %q; want %q", i, got[i], want[i]) }
	}
}

func TestSearchReadsBestMoveAndInfo(t *testing.T) {
	e, seen := fakeEngine(t, "bestmove e2e4 ponder e7e5")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := e.Search(ctx, Position{Moves: []string{"d2d4", "d7d5"}}, 50*time.Millisecond)
	if err != nil { t.Fatalf("Search: %v", err) }
	if res != (Result{Move: "e2e4", Ponder: "e7e5", Depth: 12, ScoreCP: 31}) { t.Fatalf("res=%+v", res) }
	cmds := drain(seen, 2)
	if cmds[0] != "position startpos moves d2d4 d7d5" { t.Fatalf("position=%q", cmds[0]) }
	if cmds[1] != "go movetime 50" { t.Fatalf("go=%q", cmds[1]) }
}

func TestSearchFromFEN(t *testing.T) {
	e, seen := fakeEngine(t, "bestmove h7h8q")
	fen := "8/7P/8/8/8/8/k7/7K w - - 0 1"
	res, err := e.Search(context.Background(), Position{FEN: fen}, 0)
	if err != nil || res.Move != "h7h8q" { t.Fatalf("res=%+v err=%v", res, err) }
	cmds := drain(seen, 2)
	if cmds[0] != "position fen "+fen { t.Fatalf("position=%q", cmds[0]) }
	if cmds[1] != "go movetime 1000" { t.Fatalf("go=%q", cmds[1]) }
}

func TestSearchWithoutMove(t *testing.T) {
	e, _ := fakeEngine(t, "bestmove (none)")
	if _, err := e.Search(context.Background(), Position{}, 10*time.Millisecond); !errors.Is(err, ErrNoBestMove) { t.Fatalf("err=%v", err) }
}

func TestSearchCancelStopsEngine(t *testing.T) {
	e, seen := fakeEngine(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := e.Search(ctx, Position{}, time.Second); !errors.Is(err, context.DeadlineExceeded) { t.Fatalf("err=%v", err) }
	if cmds := drain(seen, 3); cmds[2] != "stop" { t.Fatalf("commands=%v", cmds) }

	// the stopped search's bestmove was drained; the engine is usable again
	if err := e.NewGame(context.Background()); err != nil { t.Fatalf("NewGame: %v", err) }
}

func TestEngineExitEndsSearch(t *testing.T) {
	inR, inW := io.Pipe()
	go func() { _, _ = io.Copy(io.Discard, inR) }()
	e := attach(inW, strings.NewReader("info string bye\n"), nil)
	defer e.Close()
	if _, err := e.Search(context.Background(), Position{}, 10*time.Millisecond); !errors.Is(err, ErrEngineStopped) { t.Fatalf("err=%v", err) }
}

func TestParseBestMove(t *testing.T) {
	if mv, ponder, ok := parseBestMove("bestmove e7e8q ponder a2a3"); !ok || mv != "e7e8q" || ponder != "a2a3" { t.Fatalf("mv=%q ponder=%q", mv, ponder) }
	if mv, ponder, ok := parseBestMove("bestmove g1f3"); !ok || mv != "g1f3" || ponder != "" { t.Fatalf("mv=%q ponder=%q", mv, ponder) }
	for _, line := range []string{"info depth 1", "bestmove", "bestmove 0000", "bestmove (none)"} {
		if _, _, ok := parseBestMove(line); ok { t.Errorf("parseBestMove(%q) should fail", line) }
	}
}

func TestReadInfoIgnoresMate(t *testing.T) {
	res := Result{ScoreCP: 7}
	readInfo("info depth 20 seldepth 30 score mate 3 nodes 1000", &res)
	if res.Depth != 20 || res.ScoreCP != 7 { t.Fatalf("res=%+v", res) }
}

func TestOptionsValidate(t *testing.T) {
	if err := (Options{HashMB: 16, SkillLevel: 21}).validate(); err == nil { t.Fatalf("expected skill level error") }
	if err := (Options{HashMB: 0}).validate(); err == nil { t.Fatalf("expected hash error") }
	if err := (Options{HashMB: 16, SkillLevel: 5}).validate(); err != nil { t.Fatalf("unexpected error: %v", err) }
}
