// Package square maps algebraic square notation to board grid coordinates.
// Row 0 is rank 8 (the side printed at the top), column 0 is file a.
package square

import (
	"errors"
	"fmt"
)

var ErrInvalidSquareFormat = errors.New("invalid square format")

const Size = 8

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBoard reports whether both coordinates lie in [0,7].
func (s Square) InBoard() bool {
	return s.Row >= 0 && s.Row < Size && s.Col >= 0 && s.Col < Size
}

// String returns the algebraic form, or "-" for off-board coordinates.
func (s Square) String() string {
	text, err := Encode(s)
	if err != nil {
		return "-"
	}
	return text
}

// Decode parses two-character algebraic text such as "e2".
func Decode(text string) (Square, error) {
	if len(text) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquareFormat, text)
	}
	file, rank := text[0], text[1]
	if file < 'a' || file > 'h' || rank < '1' || rank > '8' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquareFormat, text)
	}
	return Square{Row: Size - int(rank-'0'), Col: int(file - 'a')}, nil
}

func Encode(s Square) (string, error) {
	if !s.InBoard() {
		return "", fmt.Errorf("%w: row=%d col=%d", ErrInvalidSquareFormat, s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col), byte('0' + Size - s.Row)}), nil
}

// All returns the 64 board squares in row-major order.
func All() []Square {
	out := make([]Square, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out = append(out, Square{Row: r, Col: c})
		}
	}
	return out
}
