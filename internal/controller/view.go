package controller

import (
	"github.com/park285/Cheese-board-controller/internal/board"
	"github.com/park285/Cheese-board-controller/internal/domain"
	"github.com/park285/Cheese-board-controller/internal/selection"
	"github.com/park285/Cheese-board-controller/internal/square"
)

// DrawRequest is everything the rendering side needs to paint one frame.
// Moves and Destinations are empty while the legal set is stale.
type DrawRequest struct {
	GameID       domain.GameID
	Board        board.Board
	Selection    selection.State
	Moves        []square.Move
	Destinations []square.Square
}

type NoticeKind string

const (
	NoticeRemoteFailure NoticeKind = "remote_failure"
	NoticeMoveInFlight  NoticeKind = "move_in_flight"
	NoticeNoActiveGame  NoticeKind = "no_active_game"
	NoticeEngineFailure NoticeKind = "engine_failure"
)

// Notice is a transient user-visible message.
type Notice struct {
	Kind NoticeKind
	Text string
}

// View is the rendering collaborator. Calls may arrive from background
// goroutines; implementations must be safe for concurrent use.
type View interface {
	Redraw(DrawRequest)
	Notice(Notice)
}

// Messages renders notice text by catalog key; *msgcat.Catalog satisfies it.
type Messages interface {
	Render(key string, data any) (string, error)
}

var defaultNoticeText = map[NoticeKind]string{
	NoticeRemoteFailure: "The game service did not respond. Try again.",
	NoticeMoveInFlight:  "A move is still being processed.",
	NoticeNoActiveGame:  "No game is active.",
	NoticeEngineFailure: "The engine could not make a move.",
}
