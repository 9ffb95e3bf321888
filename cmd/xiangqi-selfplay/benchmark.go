package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"xiangqi/internal/config"
	"xiangqi/internal/xiangqi"
)

type outcome struct {
	decided bool
	redWon  bool
	plies   int
	reason  string
}

// playGame 走到分出胜负或达到 maxMoves；步数上限是唯一的和棋规则
func playGame(rt *config.Runtime, red, black PlayerConfig, maxMoves int, log zerolog.Logger) outcome {
	pos := xiangqi.NewInitialPosition()
	var nodes int64
	var thinking time.Duration

	for i := 0; i < maxMoves; i++ {
		if pos.IsGameOver() {
			break
		}
		cur := red
		if pos.SideToMove == xiangqi.Black {
			cur = black
		}

		res := rt.AI.Choose(context.Background(), pos, pos.SideToMove, cur.Difficulty, time.Time{})
		if !res.Found {
			break
		}
		nodes += res.Search.Nodes
		thinking += res.Search.TimeUsed
		log.Debug().
			Int("ply", i+1).
			Stringer("side", pos.SideToMove).
			Str("move", res.Move.String()).
			Str("source", res.Source).
			Int("score", res.Search.Score).
			Int("depth", res.Search.Depth).
			Int64("nodes", res.Search.Nodes).
			Msg("move")

		if _, err := pos.MakeMove(res.Move); err != nil {
			fmt.Printf("Error: %v\n", err)
			return outcome{plies: pos.MoveCount, reason: "engine error"}
		}
	}

	if thinking > 0 {
		fmt.Printf("Nodes: %d, Time: %v, NPS: %d\n", nodes, thinking.Round(time.Millisecond), int64(float64(nodes)/thinking.Seconds()))
	}
	if w, ok := pos.Winner(); ok {
		return outcome{decided: true, redWon: w == xiangqi.Red, plies: pos.MoveCount}
	}
	if pos.IsGameOver() {
		return outcome{plies: pos.MoveCount, reason: "stalemate"}
	}
	return outcome{plies: pos.MoveCount, reason: "move cap"}
}
