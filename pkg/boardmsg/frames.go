// Package boardmsg defines the JSON frames exchanged with the board page
// over the WebSocket.
package boardmsg

const (
	TypeHello  = "hello"
	TypeClick  = "click"
	TypeReload = "reload"
	TypeNew    = "new"
	TypeDraw   = "draw"
	TypeNotice = "notice"
)

// Inbound is any frame sent by the page. Row and Col are pointers so a
// click without coordinates can be told apart from a click on (0,0).
type Inbound struct {
	Type   string `json:"type"`
	Row    *int   `json:"row,omitempty"`
	Col    *int   `json:"col,omitempty"`
	Engine string `json:"engine,omitempty"`
}

type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Hello is the first frame on every connection.
type Hello struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Nickname  string `json:"nickname"`
}

// Draw carries a full frame. Board cells use the service's piece codes;
// Selected is null when nothing is selected.
type Draw struct {
	Type         string    `json:"type"`
	GameID       string    `json:"game_id"`
	Board        [8][8]int `json:"board"`
	Selected     *Square   `json:"selected"`
	Destinations []Square  `json:"destinations"`
	Moves        []string  `json:"moves"`
}

type Notice struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}
