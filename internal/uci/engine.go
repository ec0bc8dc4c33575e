// Package uci drives an external UCI engine process to pick a move for the
// development game service.
package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	handshakeTimeout = 4 * time.Second
	defaultMoveTime  = time.Second
	// searchSlack bounds how long past movetime we wait for "bestmove".
	searchSlack = 2 * time.Second
)

var (
	ErrNoBestMove    = errors.New("engine returned no best move")
	ErrEngineStopped = errors.New("engine output closed")
)

// Options are applied with setoption during the handshake. Zero Threads
// means one thread.
type Options struct {
	Threads    int
	HashMB     int
	SkillLevel int
}

func (o Options) validate() error {
	if o.SkillLevel < 0 || o.SkillLevel > 20 {
		return fmt.Errorf("skill level %d out of range 0-20", o.SkillLevel)
	}
	if o.HashMB <= 0 {
		return fmt.Errorf("hash size must be > 0: %d", o.HashMB)
	}
	return nil
}

func (o Options) commands() []string {
	threads := o.Threads
	if threads <= 0 {
		threads = 1
	}
	return []string{
		"setoption name Threads value " + strconv.Itoa(threads),
		"setoption name Hash value " + strconv.Itoa(o.HashMB),
		"setoption name Skill Level value " + strconv.Itoa(o.SkillLevel),
	}
}

// Position is what the engine searches: a FEN (empty for the standard start)
// followed by moves in coordinate notation.
type Position struct {
	FEN   string
	Moves []string
}

func (p Position) command() string {
	var sb strings.Builder
	if p.FEN == "" {
		sb.WriteString("position startpos")
	} else {
		sb.WriteString("position fen ")
		sb.WriteString(p.FEN)
	}
	if len(p.Moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(p.Moves, " "))
	}
	return sb.String()
}

// Result is the engine's answer. Depth and ScoreCP come from the last
// "info" line seen before "bestmove" and stay zero if none carried them.
type Result struct {
	Move    string
	Ponder  string
	Depth   int
	ScoreCP int
}

// Engine is one running engine process. A single goroutine reads its
// output; searches are serialized.
type Engine struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	logger *zap.Logger

	writeMu  sync.Mutex
	searchMu sync.Mutex
	closed   sync.Once
}

// Start launches binaryPath and completes the uci/isready handshake.
func Start(ctx context.Context, binaryPath string, opt Options, logger *zap.Logger) (*Engine, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}

	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	e := attach(stdin, stdout, logger)
	e.cmd = cmd
	if err := e.handshake(ctx, opt); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func attach(stdin io.WriteCloser, stdout io.Reader, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{stdin: stdin, lines: make(chan string, 64), logger: logger}
	go e.pump(stdout)
	return e
}

func (e *Engine) pump(r io.Reader) {
	defer close(e.lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		e.lines <- strings.TrimSpace(sc.Text())
	}
}

func (e *Engine) handshake(ctx context.Context, opt Options) error {
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()

	if err := e.send("uci"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if _, err := e.waitFor(ctx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	for _, c := range opt.commands() {
		if err := e.send(c); err != nil {
			return fmt.Errorf("apply options: %w", err)
		}
	}
	return e.ready(ctx)
}

// NewGame resets engine state between unrelated games.
func (e *Engine) NewGame(ctx context.Context) error {
	if err := e.send("ucinewgame"); err != nil {
		return fmt.Errorf("send ucinewgame: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, handshakeTimeout)
	defer cancel()
	return e.ready(ctx)
}

func (e *Engine) ready(ctx context.Context) error {
	if err := e.send("isready"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if _, err := e.waitFor(ctx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// Search runs "go movetime" on pos. A non-positive moveTime uses one second.
// If ctx ends first the search is stopped and its reply drained.
func (e *Engine) Search(ctx context.Context, pos Position, moveTime time.Duration) (Result, error) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	if moveTime <= 0 {
		moveTime = defaultMoveTime
	}
	if err := e.send(pos.command()); err != nil {
		return Result{}, fmt.Errorf("send position: %w", err)
	}
	if err := e.send("go movetime " + strconv.FormatInt(moveTime.Milliseconds(), 10)); err != nil {
		return Result{}, fmt.Errorf("send go: %w", err)
	}

	searchCtx, cancel := context.WithTimeout(ctx, moveTime+searchSlack)
	defer cancel()

	var res Result
	for {
		line, err := e.next(searchCtx)
		if err != nil {
			e.abort()
			e.logger.Warn("uci_search_failed", zap.Int("moves", len(pos.Moves)), zap.Error(err))
			return Result{}, err
		}
		switch {
		case strings.HasPrefix(line, "info "):
			readInfo(line, &res)
		case strings.HasPrefix(line, "bestmove"):
			mv, ponder, ok := parseBestMove(line)
			if !ok {
				return Result{}, ErrNoBestMove
			}
			res.Move, res.Ponder = mv, ponder
			e.logger.Debug("uci_bestmove", zap.String("move", mv), zap.Int("depth", res.Depth), zap.Int("score_cp", res.ScoreCP))
			return res, nil
		}
	}
}

// abort stops a search that timed out and discards lines up to its
// bestmove so the next search starts clean.
func (e *Engine) abort() {
	if err := e.send("stop"); err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), searchSlack)
	defer cancel()
	_, _ = e.waitFor(ctx, "bestmove")
}

func (e *Engine) Close() error {
	var err error
	e.closed.Do(func() {
		_ = e.send("quit")
		_ = e.stdin.Close()
		if e.cmd == nil {
			return
		}
		done := make(chan error, 1)
		go func() { done <- e.cmd.Wait() }()
		select {
		case err = <-done:
		case <-time.After(handshakeTimeout):
			_ = e.cmd.Process.Kill()
			err = <-done
		}
	})
	return err
}

func (e *Engine) send(line string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := io.WriteString(e.stdin, line+"\n")
	return err
}

func (e *Engine) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-e.lines:
		if !ok {
			return "", ErrEngineStopped
		}
		return line, nil
	}
}

func (e *Engine) waitFor(ctx context.Context, prefix string) (string, error) {
	for {
		line, err := e.next(ctx)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}

// parseBestMove reads "bestmove e2e4 [ponder e7e5]". Engines answer
// "(none)" or "0000" when there is nothing to play.
func parseBestMove(line string) (move, ponder string, ok bool) {
	f := strings.Fields(line)
	if len(f) < 2 || f[0] != "bestmove" || f[1] == "(none)" || f[1] == "0000" {
		return "", "", false
	}
	if len(f) >= 4 && f[2] == "ponder" {
		ponder = f[3]
	}
	return f[1], ponder, true
}

// readInfo picks depth and centipawn score out of an "info" line. Mate
// scores are left as they were.
func readInfo(line string, res *Result) {
	f := strings.Fields(line)
	for i := 1; i+1 < len(f); i++ {
		switch f[i] {
		case "depth":
			if n, err := strconv.Atoi(f[i+1]); err == nil {
				res.Depth = n
			}
		case "score":
			if i+2 < len(f) && f[i+1] == "cp" {
				if n, err := strconv.Atoi(f[i+2]); err == nil {
					res.ScoreCP = n
				}
			}
		}
	}
}
