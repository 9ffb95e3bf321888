package game

import (
	"time"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

// GameState 对外给出的对局快照；Pos 是副本，调用方随便改
type GameState struct {
	ID         string
	Pos        *xiangqi.Position
	Difficulty engine.Difficulty
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Status struct {
	Over      bool
	Winner    xiangqi.Side
	HasWinner bool // 困毙判和时 Over=true 但没有赢家
	InCheck   bool // 走子方是否被将
}

func statusOf(pos *xiangqi.Position) Status {
	st := Status{
		Over:    pos.IsGameOver(),
		InCheck: pos.IsInCheck(pos.SideToMove),
	}
	st.Winner, st.HasWinner = pos.Winner()
	return st
}
