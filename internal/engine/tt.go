package engine

import "xiangqi/internal/xiangqi"

// Bound 置换表分数的界类型
type Bound uint8

const (
	BoundExact Bound = iota
	BoundLower       // 至少这么多（beta 截断）
	BoundUpper       // 至多这么多（没能超过 alpha）
)

// 简单 TT 条目
type ttEntry struct {
	Depth int
	Score int
	Bound Bound
	Move  xiangqi.Move
}

const defaultTTEntries = 1_000_000

// transTable 只属于一个 searcher，不加锁
type transTable struct {
	m          map[uint64]ttEntry
	maxEntries int
}

func newTransTable(maxEntries int) *transTable {
	if maxEntries <= 0 {
		maxEntries = defaultTTEntries
	}
	return &transTable{
		m:          make(map[uint64]ttEntry, initialTTCap(maxEntries)),
		maxEntries: maxEntries,
	}
}

func initialTTCap(maxEntries int) int {
	if maxEntries < 1<<14 {
		return maxEntries
	}
	return 1 << 14
}

func (t *transTable) probe(key uint64) (ttEntry, bool) {
	e, ok := t.m[key]
	return e, ok
}

// 存入 TT：满了就整表丢弃；同一局面只在深度不小于旧条目时覆盖
func (t *transTable) store(key uint64, depth, score int, bound Bound, mv xiangqi.Move) {
	if len(t.m) >= t.maxEntries {
		t.m = make(map[uint64]ttEntry, initialTTCap(t.maxEntries))
	}
	old, ok := t.m[key]
	if !ok || depth >= old.Depth {
		mv.Captured = 0
		t.m[key] = ttEntry{
			Depth: depth,
			Score: score,
			Bound: bound,
			Move:  mv,
		}
	}
}

func (t *transTable) len() int { return len(t.m) }

// 杀棋分按“距根的步数”存取：入表时换成相对当前节点，出表时再换回来
func scoreToTT(score, ply int) int {
	if score > mateScore-MaxPly {
		return score + ply
	}
	if score < -mateScore+MaxPly {
		return score - ply
	}
	return score
}

func scoreFromTT(score, ply int) int {
	if score > mateScore-MaxPly {
		return score - ply
	}
	if score < -mateScore+MaxPly {
		return score + ply
	}
	return score
}
