package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/park285/Cheese-board-controller/internal/arbiter"
	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
)

var errBoom = errors.New("boom")

// fakeService records every call. Gates, when set, block the matching call
// until closed; the entered channels signal that the call has started.
type fakeService struct {
	mu sync.Mutex

	createID   domain.GameID
	initial    board.Board
	fetched    board.Board
	afterMove  board.Board
	legal      []string
	legalErr   error
	best       string
	bestErr    error
	moveErr    error
	turn       domain.Color
	turnErr    error
	fetchGate  chan struct{}
	fetchStart chan struct{}
	moveGate   chan struct{}
	moveStart  chan struct{}
	creates    int
	fetches    int
	legalCalls int
	bestCalls  int
	turnCalls  int
	made       []string
	removed    []domain.GameID
}

func newFakeService() *fakeService {
	return &fakeService{
		createID:  domain.GameIDFromUint64(7),
		initial:   board.StartPosition(),
		fetched:   board.StartPosition(),
		afterMove: board.StartPosition(),
		legal:     []string{"e2e4", "e2e3"},
		best:      "e2e4",
		turn:      domain.White,
	}
}

func (f *fakeService) CreateSession(context.Context) (domain.GameID, board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	return f.createID, f.initial, nil
}

func (f *fakeService) FetchBoard(ctx context.Context, _ domain.GameID) (board.Board, error) {
	f.mu.Lock()
	f.fetches++
	gate, start, b := f.fetchGate, f.fetchStart, f.fetched
	f.mu.Unlock()
	if start != nil {
		close(start)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return board.Board{}, ctx.Err()
		}
	}
	return b, nil
}

func (f *fakeService) LegalMoves(context.Context, domain.GameID) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.legalCalls++
	if f.legalErr != nil {
		return nil, f.legalErr
	}
	return append([]string(nil), f.legal...), nil
}

func (f *fakeService) BestMove(context.Context, domain.GameID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bestCalls++
	return f.best, f.bestErr
}

func (f *fakeService) MakeMove(ctx context.Context, _ domain.GameID, move string) (board.Board, error) {
	f.mu.Lock()
	gate, start := f.moveGate, f.moveStart
	f.mu.Unlock()
	if start != nil {
		close(start)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return board.Board{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made = append(f.made, move)
	if f.moveErr != nil {
		return board.Board{}, f.moveErr
	}
	return f.afterMove, nil
}

func (f *fakeService) SideToMove(context.Context, domain.GameID) (domain.Color, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turnCalls++
	return f.turn, f.turnErr
}

func (f *fakeService) RemoveGame(_ context.Context, id domain.GameID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeService) movesMade() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.made...)
}

func (f *fakeService) set(fn func(*fakeService)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type recordingView struct {
	mu      sync.Mutex
	draws   []DrawRequest
	notices []Notice
}

func (v *recordingView) Redraw(r DrawRequest) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draws = append(v.draws, r)
}

func (v *recordingView) Notice(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.notices = append(v.notices, n)
}

func (v *recordingView) lastDraw(t *testing.T) DrawRequest {
	t.Helper()
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.draws) == 0 { t.Fatalf("no redraw emitted") }
	return v.draws[len(v.draws)-1]
}

func (v *recordingView) noticeKinds() []NoticeKind {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]NoticeKind, 0, len(v.notices))
	for _, n := range v.notices {
		out = append(out, n.Kind)
	}
	return out
}

func (v *recordingView) sawBoard(b board.Board) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range v.draws {
		if d.Board == b {
			return true
		}
	}
	return false
}

func fixedAssignment(a arbiter.Assignment) func() arbiter.Assignment {
	return func() arbiter.Assignment { return a }
}

// startedSession returns a session on game 7 with the start position loaded.
func startedSession(t *testing.T, svc *fakeService, opts Options) (*Session, *recordingView) {
	t.Helper()
	view := &recordingView{}
	s := New(svc, view, opts)
	if err := s.Start(context.Background()); err != nil { t.Fatalf("Start: %v", err) }
	return s, view
}
