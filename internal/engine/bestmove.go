package engine

import (
	"context"
	"time"

	"xiangqi/internal/book"
	"xiangqi/internal/xiangqi"
)

// 学习库只记录明显占优（至少一车）或已看到杀棋的结果
const learnDecisiveScore = 900

// FindBestMove 对外入口：残局表/学习库 -> 开局库 -> 低难度随机 -> 结果缓存 -> 搜索。
// pos 不会被修改；side 与 pos.SideToMove 不同时按 side 走。
// 无子可动时返回 Found=false。
func (e *Engine) FindBestMove(ctx context.Context, pos *xiangqi.Position, side xiangqi.Side, d Difficulty, deadline time.Time) SearchResult {
	start := time.Now()
	root := pos.Clone()
	if root.SideToMove != side {
		root.SideToMove = side
		root.Hash = root.CalculateHash()
	}
	root.EnsureHash()

	if !root.HasGeneral(side) {
		return SearchResult{Move: xiangqi.NoMove, Source: SourceNone, TimeUsed: time.Since(start)}
	}
	moves := root.LegalMoves(side)
	switch len(moves) {
	case 0:
		return SearchResult{Move: xiangqi.NoMove, Source: SourceNone, TimeUsed: time.Since(start)}
	case 1:
		return SearchResult{Move: moves[0], Found: true, Source: SourceForced, PV: moves[:1], TimeUsed: time.Since(start)}
	}

	done := func(m xiangqi.Move, src Source) SearchResult {
		return SearchResult{Move: m, Found: true, Source: src, PV: []xiangqi.Move{m}, TimeUsed: time.Since(start)}
	}

	tier, curated := book.TierNone, false
	if e.endgames != nil {
		tier, curated = e.endgames.Lookup(root)
	}

	posKey := root.Encode()
	learnedMove := e.learnedMove(root, posKey)
	deterministic := curated || !learnedMove.IsNone()

	// 残局表或学习库命中时不走开局库，保证已知局面的走法确定
	if e.book != nil && !deterministic {
		if m, ok := e.book.Pick(root, e); ok {
			e.log.Debug().Str("move", m.String()).Int("ply", root.MoveCount).Msg("opening book move")
			return done(m, SourceBook)
		}
	}

	if rp, ok := d.randomPlay(); ok && !deterministic && e.Intn(100) < rp.percent {
		cands := append([]xiangqi.Move(nil), moves...)
		orderByCaptures(root, cands)
		n := rp.topN
		if n > len(cands) {
			n = len(cands)
		}
		m := cands[e.Intn(n)]
		e.log.Debug().Str("move", m.String()).Stringer("difficulty", d).Msg("random pick")
		return done(m, SourceRandom)
	}

	key := cacheKey{board: root.BoardKey(), side: side, difficulty: d}
	if ce, ok := e.cache.get(key); ok && root.IsLegalMove(ce.move) {
		res := done(ce.move, SourceCache)
		res.Score, res.Depth = ce.score, ce.depth
		return res
	}

	budget := BudgetFor(d, root.MoveCount, e.workers, len(moves), tier)
	if curated {
		e.log.Debug().Stringer("tier", tier).Int("depth", budget.MaxDepth).Dur("time", budget.TimeLimit).Msg("curated endgame")
	}
	res := e.Search(ctx, root, SearchConfig{
		MaxDepth:   budget.MaxDepth,
		TimeLimit:  budget.TimeLimit,
		Deadline:   deadline,
		Parallel:   e.parallel,
		PreferMove: learnedMove,
	})
	if !res.Found {
		return res
	}
	if res.Depth > 0 {
		e.cache.put(key, res.Move, res.Score, res.Depth)
	}
	e.learn(posKey, res)
	res.TimeUsed = time.Since(start)
	return res
}

func (e *Engine) learnedMove(root *xiangqi.Position, posKey string) xiangqi.Move {
	if e.learned == nil {
		return xiangqi.NoMove
	}
	lm, ok, err := e.learned.Get(posKey)
	if err != nil {
		e.log.Warn().Err(err).Msg("learned store lookup failed")
		return xiangqi.NoMove
	}
	if !ok {
		return xiangqi.NoMove
	}
	m, err := xiangqi.ParseMove(lm.Move)
	if err != nil || !root.IsLegalMove(m) {
		return xiangqi.NoMove
	}
	return m
}

func (e *Engine) learn(posKey string, res SearchResult) {
	if e.learned == nil || res.Depth < e.learnMinDepth {
		return
	}
	if res.Score < learnDecisiveScore {
		return
	}
	lm := book.LearnedMove{Move: res.Move.String(), Score: res.Score, Depth: res.Depth}
	if err := e.learned.Put(posKey, lm); err != nil {
		e.log.Warn().Err(err).Msg("learned store write failed")
	}
}
