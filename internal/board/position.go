package board

import nchess "github.com/corentings/chess/v2"

// FromPosition converts a rules-library board into the wire grid.
func FromPosition(b *nchess.Board) Board {
	var out Board
	if b == nil {
		return out
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			sq := nchess.NewSquare(nchess.File(c), nchess.Rank(7-r))
			out[r][c] = codeFor(b.Piece(sq))
		}
	}
	return out
}

func codeFor(p nchess.Piece) PieceCode {
	if p == nchess.NoPiece {
		return Empty
	}
	var kind PieceCode
	switch p.Type() {
	case nchess.Pawn:
		kind = Pawn
	case nchess.Bishop:
		kind = Bishop
	case nchess.Knight:
		kind = Knight
	case nchess.Rook:
		kind = Rook
	case nchess.Queen:
		kind = Queen
	case nchess.King:
		kind = King
	default:
		return Empty
	}
	if p.Color() == nchess.White {
		return kind | ColorWhite
	}
	return kind | ColorBlack
}
