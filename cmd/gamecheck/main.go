package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/park285/Cheese-board-controller/internal/gameapi"
)

var (
	okf   = color.New(color.FgGreen).PrintfFunc()
	warnf = color.New(color.FgYellow).PrintfFunc()
)

func fail(format string, args ...any) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// gamecheck exercises every route of a running game service once.
func main() {
	baseURL := os.Getenv("GAME_SERVICE_URL")
	if baseURL == "" {
		fail("GAME_SERVICE_URL is required")
	}
	client := gameapi.NewClient(baseURL, gameapi.WithTimeout(8*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, b, err := client.CreateSession(ctx)
	if err != nil {
		fail("/board error: %v", err)
	}
	okf("/board ok: id=%s e2=%d\n", id, b[6][4])

	moves, err := client.LegalMoves(ctx, id)
	if err != nil {
		fail("/legalmoves error: %v", err)
	}
	okf("/legalmoves ok: %d moves\n", len(moves))

	if side, err := client.SideToMove(ctx, id); err != nil {
		warnf("/turn error (optional route): %v\n", err)
	} else {
		okf("/turn ok: %s\n", side)
	}

	best, err := client.BestMove(ctx, id)
	if err != nil {
		fail("/bestmove error: %v", err)
	}
	okf("/bestmove ok: %s\n", best)

	after, err := client.MakeMove(ctx, id, best)
	if err != nil {
		fail("/makemove error: %v", err)
	}
	fetched, err := client.FetchBoard(ctx, id)
	if err != nil {
		fail("/retboard error: %v", err)
	}
	fmt.Printf("board after %s matches retboard: %v\n", best, after == fetched)

	if o, err := client.Opening(ctx, id); err == nil {
		okf("/opening ok: %s %s\n", o.Code, o.Title)
	}

	if err := client.RemoveGame(ctx, id); err != nil {
		warnf("/removegame error (optional route): %v\n", err)
	}
}
