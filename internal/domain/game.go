package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidGameID = errors.New("invalid game id")
	// ErrNoActiveGame means an operation needed a game id but none is set.
	ErrNoActiveGame = errors.New("no active game")
)

// GameID identifies a game session on the remote service. The zero value is
// the unset sentinel: no game has been created yet.
type GameID struct {
	v *big.Int
}

// ParseGameID accepts a non-negative decimal of any length.
func ParseGameID(s string) (GameID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return GameID{}, fmt.Errorf("%w: %q", ErrInvalidGameID, s)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return GameID{}, fmt.Errorf("%w: %q", ErrInvalidGameID, s)
	}
	return GameID{v: n}, nil
}

// GameIDFromUint64 is a convenience for tests and the devserver.
func GameIDFromUint64(n uint64) GameID {
	return GameID{v: new(big.Int).SetUint64(n)}
}

func (id GameID) IsSet() bool { return id.v != nil }

func (id GameID) String() string {
	if id.v == nil {
		return "unset"
	}
	return id.v.String()
}

func (id GameID) Equal(other GameID) bool {
	if id.v == nil || other.v == nil {
		return id.v == nil && other.v == nil
	}
	return id.v.Cmp(other.v) == 0
}

// MarshalJSON emits the id as a decimal string so no precision is lost in
// JavaScript clients. Unset encodes as null.
func (id GameID) MarshalJSON() ([]byte, error) {
	if id.v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(id.v.String())
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (id *GameID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*id = GameID{}
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := ParseGameID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
