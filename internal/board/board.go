package board

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/park285/Cheese-board-controller/internal/square"
)

var ErrMalformedBoard = errors.New("malformed board")

// Board is a full 8x8 snapshot, row-major, row 0 = rank 8.
type Board [square.Size][square.Size]PieceCode

func (b Board) At(sq square.Square) PieceCode {
	if !sq.InBoard() {
		return Empty
	}
	return b[sq.Row][sq.Col]
}

// UnmarshalJSON only accepts a complete grid of valid codes. A fixed-size
// array would silently zero-fill short rows.
func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [][]int
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBoard, err)
	}
	if len(rows) != square.Size {
		return fmt.Errorf("%w: %d rows", ErrMalformedBoard, len(rows))
	}
	var out Board
	for r, row := range rows {
		if len(row) != square.Size {
			return fmt.Errorf("%w: row %d has %d cells", ErrMalformedBoard, r, len(row))
		}
		for c, v := range row {
			code := PieceCode(v)
			if !code.Valid() {
				return fmt.Errorf("%w: code %d at row %d col %d", ErrMalformedBoard, v, r, c)
			}
			out[r][c] = code
		}
	}
	*b = out
	return nil
}

// StartPosition is the standard initial arrangement.
func StartPosition() Board {
	back := [8]PieceCode{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	var b Board
	for c := 0; c < square.Size; c++ {
		b[0][c] = back[c] | ColorBlack
		b[1][c] = Pawn | ColorBlack
		b[6][c] = Pawn | ColorWhite
		b[7][c] = back[c] | ColorWhite
	}
	return b
}
