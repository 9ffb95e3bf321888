package book

import (
	"sort"

	"xiangqi/internal/xiangqi"
)

// OpeningTopN 从匹配到的开局着法里，按权重取前几个再加权随机
const OpeningTopN = 3

// Rand 注入的随机源（测试里用固定种子）
type Rand interface {
	Intn(n int) int
}

// OpeningEntry 一条开局着法：第几步（ply）、哪一方、坐标记谱、权重
type OpeningEntry struct {
	Ply    int
	Side   xiangqi.Side
	Move   string
	Weight int
}

// OpeningBook 按 (ply, side) 分组的开局表
type OpeningBook struct {
	entries map[bookKey][]OpeningEntry
	maxPly  int
}

type bookKey struct {
	ply  int
	side xiangqi.Side
}

// Candidate 当前局面下可走的开局着法
type Candidate struct {
	Move   xiangqi.Move
	Weight int
}

func NewOpeningBook(entries []OpeningEntry) *OpeningBook {
	b := &OpeningBook{entries: make(map[bookKey][]OpeningEntry)}
	for _, e := range entries {
		if e.Weight <= 0 {
			continue
		}
		k := bookKey{ply: e.Ply, side: e.Side}
		b.entries[k] = append(b.entries[k], e)
		if e.Ply > b.maxPly {
			b.maxPly = e.Ply
		}
	}
	return b
}

// DefaultOpeningBook 手写的常见开局：中炮、飞相、起马、仙人指路及其应着
func DefaultOpeningBook() *OpeningBook {
	return NewOpeningBook(defaultOpenings)
}

var defaultOpenings = []OpeningEntry{
	// 红方第一步
	{0, xiangqi.Red, "h2e2", 40}, // 炮二平五
	{0, xiangqi.Red, "b2e2", 25}, // 炮八平五
	{0, xiangqi.Red, "c0e2", 15}, // 相三进五
	{0, xiangqi.Red, "h0g2", 12}, // 马二进三
	{0, xiangqi.Red, "b0c2", 10}, // 马八进七
	{0, xiangqi.Red, "g3g4", 10}, // 兵七进一
	{0, xiangqi.Red, "c3c4", 8},  // 兵三进一

	// 黑方应着
	{1, xiangqi.Black, "h9g7", 35}, // 马 8 进 7
	{1, xiangqi.Black, "b9c7", 30}, // 马 2 进 3
	{1, xiangqi.Black, "h7e7", 20}, // 顺炮 / 列炮
	{1, xiangqi.Black, "c6c5", 10},
	{1, xiangqi.Black, "g6g5", 10},
	{1, xiangqi.Black, "c9e7", 8},

	// 红方第二步
	{2, xiangqi.Red, "h0g2", 30},
	{2, xiangqi.Red, "b0c2", 25},
	{2, xiangqi.Red, "i0h0", 15},
	{2, xiangqi.Red, "g3g4", 10},
	{2, xiangqi.Red, "c3c4", 10},

	// 黑方第二步
	{3, xiangqi.Black, "h9g7", 30},
	{3, xiangqi.Black, "b9c7", 25},
	{3, xiangqi.Black, "i9h9", 15},
	{3, xiangqi.Black, "g6g5", 10},
	{3, xiangqi.Black, "c6c5", 10},
}

// Candidates 与当前合法着法匹配上的开局着法，权重从高到低。
// 只认从初始局面一路走来的局面；从编码载入的中局即使 MoveCount=0 也不算开局。
func (b *OpeningBook) Candidates(pos *xiangqi.Position) []Candidate {
	if b == nil || pos.MoveCount > b.maxPly || !OnOpeningPath(pos) {
		return nil
	}
	entries := b.entries[bookKey{ply: pos.MoveCount, side: pos.SideToMove}]
	if len(entries) == 0 {
		return nil
	}
	var out []Candidate
	for _, e := range entries {
		m, err := xiangqi.ParseMove(e.Move)
		if err != nil || !pos.IsLegalMove(m) {
			continue
		}
		out = append(out, Candidate{Move: m, Weight: e.Weight})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

// OnOpeningPath 走子记录完整，且从初始局面重放记录能得到同一盘面和走子方
func OnOpeningPath(pos *xiangqi.Position) bool {
	if len(pos.History) != pos.MoveCount {
		return false
	}
	replay := xiangqi.NewInitialPosition()
	for _, m := range pos.History {
		if _, err := replay.MakeMove(m); err != nil {
			return false
		}
	}
	return replay.Board == pos.Board && replay.SideToMove == pos.SideToMove
}

// Pick 在前 OpeningTopN 个候选里按权重随机挑一个
func (b *OpeningBook) Pick(pos *xiangqi.Position, rng Rand) (xiangqi.Move, bool) {
	cands := b.Candidates(pos)
	if len(cands) == 0 {
		return xiangqi.NoMove, false
	}
	if len(cands) > OpeningTopN {
		cands = cands[:OpeningTopN]
	}
	total := 0
	for _, c := range cands {
		total += c.Weight
	}
	r := rng.Intn(total)
	for _, c := range cands {
		if r < c.Weight {
			return c.Move, true
		}
		r -= c.Weight
	}
	return cands[0].Move, true
}
