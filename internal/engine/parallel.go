package engine

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"xiangqi/internal/xiangqi"
)

const (
	parallelMinDepth = 3
	parallelMinMoves = 6
)

func (e *Engine) parallelEligible(depth, moves int) bool {
	return depth >= parallelMinDepth && moves >= parallelMinMoves && e.workers > 1
}

// searchRootParallel 每个根着法一个任务，交给有上限的工作池；
// 每个任务有自己的局面副本、TT 和排序表，全窗口搜 depth-1。
// 超时的任务结果直接丢弃。
func (e *Engine) searchRootParallel(ctx context.Context, root *xiangqi.Position, moves []xiangqi.Move, depth int,
	deadline time.Time, timeUp *atomic.Bool, useTT bool, nodes *atomic.Int64) rootOutcome {

	type rootResult struct {
		score int
		ok    bool
	}
	results := make([]rootResult, len(moves))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, m := range moves {
		if timeUp.Load() {
			break
		}
		i, m := i, m
		g.Go(func() error {
			if timeUp.Load() {
				return nil
			}
			// 每个 goroutine 用自己的局面和 TT，避免加锁和 map 竞争
			pos := root.Clone()
			pos.MakeMoveFast(m)
			w := e.newSearcher(gctx, pos, deadline, timeUp, useTT)
			score := -w.negamax(depth-1, 1, -scoreInf, scoreInf)
			nodes.Add(w.nodes)
			if timeUp.Load() {
				return nil
			}
			results[i] = rootResult{score: score, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	out := rootOutcome{move: xiangqi.NoMove, score: -scoreInf, complete: true}
	for i, r := range results {
		if !r.ok {
			out.complete = false
			continue
		}
		// 同分取排序靠前的着法，保证结果与调度顺序无关
		if !out.found || r.score > out.score {
			out.score = r.score
			out.move = moves[i]
			out.found = true
		}
	}
	return out
}
