package square

import "fmt"

// Move is an origin/destination pair. Text keeps the exact wire string so a
// move can be sent back unchanged, including a promotion suffix the
// controller does not interpret.
type Move struct {
	From Square
	To   Square
	Text string
}

// ParseMove reads "e2e4" style text. Only the first four characters take
// part in matching.
func ParseMove(text string) (Move, error) {
	if len(text) < 4 || len(text) > 5 {
		return Move{}, fmt.Errorf("%w: move %q", ErrInvalidSquareFormat, text)
	}
	from, err := Decode(text[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := Decode(text[2:4])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to, Text: text}, nil
}

// Connects reports whether the move goes from origin to dest.
func (m Move) Connects(origin, dest Square) bool {
	return m.From == origin && m.To == dest
}

func (m Move) String() string { return m.Text }
