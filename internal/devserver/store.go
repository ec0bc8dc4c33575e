package devserver

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/redis/go-redis/v9"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrIllegalMove  = errors.New("illegal move")
	ErrConflict     = errors.New("concurrent update")
)

const defaultGameTTL = 24 * time.Hour

// Game is the persisted record. Positions are always rebuilt from the move
// list so the stored state cannot drift from the rules library.
type Game struct {
	ID        string    `json:"id"`
	MovesUCI  []string  `json:"moves_uci"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps active games in Redis.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultGameTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// ParseRedisURL accepts redis:// and rediss:// URLs with an optional /db path.
func ParseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q", p)
		}
		db = n
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}

func gameKey(id string) string { return "dev:game:" + strings.TrimSpace(id) }

// Create allocates a fresh random id; collisions are retried.
func (s *Store) Create(ctx context.Context) (*Game, error) {
	for i := 0; i < 5; i++ {
		id, err := randomID()
		if err != nil {
			return nil, err
		}
		now := time.Now()
		g := &Game{ID: id, MovesUCI: []string{}, CreatedAt: now, UpdatedAt: now}
		raw, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		ok, err := s.rdb.SetNX(ctx, gameKey(id), raw, s.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return g, nil
		}
	}
	return nil, fmt.Errorf("failed to allocate game id")
}

func (s *Store) Get(ctx context.Context, id string) (*Game, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// ApplyMove appends a UCI move under WATCH so two racing requests for the
// same game cannot both land on the same position.
func (s *Store) ApplyMove(ctx context.Context, id, uci string) (*Game, *nchess.Game, error) {
	key := gameKey(id)
	var (
		out  *Game
		game *nchess.Game
	)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrGameNotFound
		}
		if err != nil {
			return err
		}
		var cur Game
		if err := json.Unmarshal(raw, &cur); err != nil {
			return err
		}
		g, err := Reconstruct(cur.MovesUCI)
		if err != nil {
			return err
		}
		if !isLegal(g, uci) {
			return ErrIllegalMove
		}
		if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			return fmt.Errorf("%w: %v", ErrIllegalMove, err)
		}
		cur.MovesUCI = append(cur.MovesUCI, uci)
		cur.UpdatedAt = time.Now()
		newRaw, err := json.Marshal(&cur)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		out, game = &cur, g
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, nil, ErrConflict
	}
	if err != nil {
		return nil, nil, err
	}
	return out, game, nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, gameKey(id)).Err()
}

// Reconstruct replays moves from the start position.
func Reconstruct(moves []string) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay %s: %w", mv, err)
		}
	}
	return game, nil
}

// LegalMoves lists the valid moves of the side to move in UCI form.
func LegalMoves(game *nchess.Game) []string {
	valid := game.ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, valid[i].String())
	}
	return out
}

func isLegal(game *nchess.Game, uci string) bool {
	for _, mv := range LegalMoves(game) {
		if mv == uci {
			return true
		}
	}
	return false
}

func randomID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
