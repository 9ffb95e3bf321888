package engine

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

const (
	ttMoveScore   = 10_000_000
	captureScore  = 1_000_000
	killer1Score  = 900_000
	killer2Score  = 800_000
	historyMax    = 700_000
	historyCap    = 400_000 // 超过后整表减半
	captureWeight = 10
)

// 排序用的子力分，将的价值压低，免得“将吃子”总排在最后
var orderValue = [...]int{
	xiangqi.PieceNone:     0,
	xiangqi.PieceGeneral:  1500,
	xiangqi.PieceAdvisor:  200,
	xiangqi.PieceElephant: 200,
	xiangqi.PieceHorse:    400,
	xiangqi.PieceChariot:  900,
	xiangqi.PieceCannon:   450,
	xiangqi.PieceSoldier:  100,
}

// moveOrderer 杀手着法 + 历史表，只属于一个 searcher
type moveOrderer struct {
	killers [MaxPly][2]xiangqi.Move
	history [2][xiangqi.NumSquares][xiangqi.NumSquares]int
}

func newMoveOrderer() *moveOrderer {
	mo := &moveOrderer{}
	for i := range mo.killers {
		mo.killers[i][0] = xiangqi.NoMove
		mo.killers[i][1] = xiangqi.NoMove
	}
	return mo
}

// captureOrderScore 吃子：被吃子价值 - 吃子方价值，重权
func captureOrderScore(b *xiangqi.Board, m xiangqi.Move) (int, bool) {
	victim := b.Squares[m.To]
	if victim == 0 {
		return 0, false
	}
	attacker := b.Squares[m.From]
	return captureScore + (orderValue[victim.Type()]-orderValue[attacker.Type()])*captureWeight, true
}

func (mo *moveOrderer) score(b *xiangqi.Board, side xiangqi.Side, m, ttMove xiangqi.Move, ply int) int {
	if m.Equal(ttMove) {
		return ttMoveScore
	}
	if s, ok := captureOrderScore(b, m); ok {
		return s
	}
	if ply < MaxPly {
		if m.Equal(mo.killers[ply][0]) {
			return killer1Score
		}
		if m.Equal(mo.killers[ply][1]) {
			return killer2Score
		}
	}
	h := mo.history[side][m.From][m.To]
	if h > historyMax {
		h = historyMax
	}
	return h
}

// order 按分数从高到低排序（稳定排序，同分保持扫描顺序）
func (mo *moveOrderer) order(b *xiangqi.Board, side xiangqi.Side, moves []xiangqi.Move, ttMove xiangqi.Move, ply int) {
	if len(moves) < 2 {
		return
	}
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i] = mo.score(b, side, m, ttMove, ply)
	}
	sort.Stable(byScore{moves: moves, scores: scores})
}

// 非吃子着法引发截断：记杀手（两格，新的在前）并加历史分
func (mo *moveOrderer) recordCutoff(side xiangqi.Side, m xiangqi.Move, depth, ply int) {
	if ply < MaxPly && !m.Equal(mo.killers[ply][0]) {
		mo.killers[ply][1] = mo.killers[ply][0]
		mo.killers[ply][0] = m
	}
	mo.history[side][m.From][m.To] += depth * depth
	if mo.history[side][m.From][m.To] > historyCap {
		mo.ageHistory()
	}
}

func (mo *moveOrderer) ageHistory() {
	for s := range mo.history {
		for from := range mo.history[s] {
			for to := range mo.history[s][from] {
				mo.history[s][from][to] /= 2
			}
		}
	}
}

type byScore struct {
	moves  []xiangqi.Move
	scores []int
}

func (b byScore) Len() int           { return len(b.moves) }
func (b byScore) Less(i, j int) bool { return b.scores[i] > b.scores[j] }
func (b byScore) Swap(i, j int) {
	b.moves[i], b.moves[j] = b.moves[j], b.moves[i]
	b.scores[i], b.scores[j] = b.scores[j], b.scores[i]
}

// orderByCaptures 只看吃子的浅层排序（随机挑着法时用）
func orderByCaptures(pos *xiangqi.Position, moves []xiangqi.Move) {
	scores := make([]int, len(moves))
	for i, m := range moves {
		scores[i], _ = captureOrderScore(&pos.Board, m)
	}
	sort.Stable(byScore{moves: moves, scores: scores})
}

// moveToFront 把 m 挪到最前，其余保持原相对顺序
func moveToFront(moves []xiangqi.Move, m xiangqi.Move) bool {
	for i := range moves {
		if moves[i].Equal(m) {
			first := moves[i]
			copy(moves[1:i+1], moves[:i])
			moves[0] = first
			return true
		}
	}
	return false
}
