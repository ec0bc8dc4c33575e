package board

import "github.com/park285/Cheese-board-controller/internal/domain"

// PieceCode packs the occupant of one square: the low two bits carry the
// colour, the next three bits the piece kind. Zero is an empty square.
type PieceCode int

const (
	Empty PieceCode = 0

	ColorWhite PieceCode = 0b01
	ColorBlack PieceCode = 0b10

	Pawn   PieceCode = 0b00100
	Bishop PieceCode = 0b01000
	Knight PieceCode = 0b01100
	Rook   PieceCode = 0b10000
	Queen  PieceCode = 0b10100
	King   PieceCode = 0b11000
)

const (
	colorMask PieceCode = 0b00011
	kindMask  PieceCode = 0b11100
)

func (p PieceCode) Kind() PieceCode { return p & kindMask }

// Color returns the occupant's side; ok is false for empty squares.
func (p PieceCode) Color() (domain.Color, bool) {
	switch p & colorMask {
	case ColorWhite:
		return domain.White, true
	case ColorBlack:
		return domain.Black, true
	default:
		return "", false
	}
}

// Valid reports whether p is empty or exactly one colour OR one kind.
func (p PieceCode) Valid() bool {
	if p == Empty {
		return true
	}
	if p&^(colorMask|kindMask) != 0 {
		return false
	}
	c := p & colorMask
	if c != ColorWhite && c != ColorBlack {
		return false
	}
	switch p.Kind() {
	case Pawn, Bishop, Knight, Rook, Queen, King:
		return true
	default:
		return false
	}
}
