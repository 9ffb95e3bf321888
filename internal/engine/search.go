package engine

import (
	"context"
	"sync/atomic"
	"time"

	"xiangqi/internal/xiangqi"
)

const (
	// MaxPly 搜索最深层数（含将军延伸）
	MaxPly = 64

	defaultMaxDepth = 3

	// 根节点渴望窗口半宽，depth >= aspirationMinDepth 时启用
	aspirationWindow   = 80
	aspirationMinDepth = 3
)

// Source 着法来源
type Source int

const (
	SourceNone   Source = iota // 没有合法着法
	SourceSearch               // 内置搜索
	SourceBook                 // 开局库
	SourceCache                // 结果缓存
	SourceRandom               // 低难度随机
	SourceForced               // 只有一步可走
)

var sourceNames = [...]string{"none", "search", "book", "cache", "random", "forced"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "unknown"
	}
	return sourceNames[s]
}

// 搜索配置
type SearchConfig struct {
	MaxDepth  int           // 最大搜索深度（ply），<=0 取 3
	TimeLimit time.Duration // 搜索时间上限（0 表示不限制）
	Deadline  time.Time     // 绝对截止时间，与 TimeLimit 取较早者

	DisableTT bool // 关掉置换表（只影响节点数，不影响结果）
	Parallel  bool // 允许并行根节点

	// PreferMove 根节点第一个搜的着法（例如学习库命中）
	PreferMove xiangqi.Move
}

// 搜索结果
type SearchResult struct {
	Move     xiangqi.Move   // 最佳着法
	Found    bool           // false 表示无子可动（终局），不是错误
	Score    int            // 走子方视角的分数
	Depth    int            // 最后一次完整完成的深度
	Nodes    int64          // 节点数（含并行工作协程）
	TimeUsed time.Duration  // 花费时间
	Source   Source         // 着法来源
	PV       []xiangqi.Move // 主变
}

// Mate 是否是杀棋分
func (r SearchResult) Mate() bool { return IsMateScore(r.Score) }

type rootOutcome struct {
	move     xiangqi.Move
	score    int
	found    bool // 至少搜完了一个根着法
	complete bool // 本层所有根着法都搜完且未超时
}

// searcher 一次顶层搜索（或一个并行工作协程）私有的状态
type searcher struct {
	ctx      context.Context
	pos      *xiangqi.Position
	tt       *transTable
	ord      *moveOrderer
	nodes    int64
	mask     int64
	deadline time.Time
	timeUp   *atomic.Bool // 同一次顶层搜索共享，一旦置位不再复位
}

func (e *Engine) newSearcher(ctx context.Context, pos *xiangqi.Position, deadline time.Time, timeUp *atomic.Bool, useTT bool) *searcher {
	s := &searcher{
		ctx:      ctx,
		pos:      pos,
		ord:      newMoveOrderer(),
		mask:     e.checkMask,
		deadline: deadline,
		timeUp:   timeUp,
	}
	if useTT {
		s.tt = newTransTable(e.ttMaxEntries)
	}
	return s
}

// Search 根节点：迭代加深。pos 不会被修改。
func (e *Engine) Search(ctx context.Context, pos *xiangqi.Position, cfg SearchConfig) SearchResult {
	start := time.Now()
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	if cfg.MaxDepth > MaxPly/2 {
		cfg.MaxDepth = MaxPly / 2
	}

	root := pos.Clone()
	root.EnsureHash()
	side := root.SideToMove

	if !root.HasGeneral(side) {
		return SearchResult{Move: xiangqi.NoMove, Score: -mateScore, Source: SourceNone, TimeUsed: time.Since(start)}
	}
	moves := root.LegalMoves(side)
	if len(moves) == 0 {
		score := 0
		if root.IsInCheck(side) {
			score = -mateScore
		}
		return SearchResult{Move: xiangqi.NoMove, Score: score, Source: SourceNone, TimeUsed: time.Since(start)}
	}

	deadline := cfg.Deadline
	if cfg.TimeLimit > 0 {
		if d := start.Add(cfg.TimeLimit); deadline.IsZero() || d.Before(deadline) {
			deadline = d
		}
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	timeUp := new(atomic.Bool)
	s := e.newSearcher(ctx, root, deadline, timeUp, !cfg.DisableTT)
	var workerNodes atomic.Int64

	s.ord.order(&root.Board, side, moves, xiangqi.NoMove, 0)
	if !cfg.PreferMove.IsNone() {
		moveToFront(moves, cfg.PreferMove)
	}

	res := SearchResult{Move: xiangqi.NoMove, Source: SourceSearch}
	prevScore := 0
	for depth := 1; depth <= cfg.MaxDepth; depth++ {
		if timeUp.Load() {
			break
		}

		var out rootOutcome
		if cfg.Parallel && e.parallelEligible(depth, len(moves)) {
			out = e.searchRootParallel(ctx, root, moves, depth, deadline, timeUp, !cfg.DisableTT, &workerNodes)
			if !out.found && !timeUp.Load() {
				e.log.Debug().Int("depth", depth).Msg("parallel root produced nothing, searching sequentially")
				out = s.searchRoot(moves, depth, -scoreInf, scoreInf)
			} else if out.complete && s.tt != nil {
				s.tt.store(root.Hash, depth, scoreToTT(out.score, 0), BoundExact, out.move)
			}
		} else {
			out = s.aspirate(moves, depth, prevScore)
		}

		if !out.complete {
			// 超时：这一层作废，沿用上一层完整结果；一层都没完成时才用半成品
			if !res.Found && out.found {
				res.Move, res.Score, res.Found = out.move, out.score, true
			}
			break
		}

		res.Move, res.Score, res.Depth, res.Found = out.move, out.score, depth, true
		prevScore = out.score
		moveToFront(moves, out.move)

		e.log.Debug().
			Int("depth", depth).
			Int("score", out.score).
			Str("move", out.move.String()).
			Int64("nodes", s.nodes+workerNodes.Load()).
			Dur("elapsed", time.Since(start)).
			Msg("iteration done")

		// 已经看到杀棋（或被杀）且在当前深度之内，再加深没有意义
		if IsMateScore(out.score) && mateScore-abs(out.score) <= depth {
			break
		}
	}

	if !res.Found {
		// 连第一层都没搜完：退回排序后的第一步，它来自合法着法生成
		res.Move = moves[0]
		res.Score = s.evaluate(0)
		res.Found = true
	}
	res.Nodes = s.nodes + workerNodes.Load()
	res.TimeUsed = time.Since(start)
	res.PV = s.principalVariation(res.Move, res.Depth)
	return res
}

// aspirate depth>=3 时先用上一层分数 ±80 的窄窗口，落在窗口外再全窗口重搜这一层
func (s *searcher) aspirate(moves []xiangqi.Move, depth, prevScore int) rootOutcome {
	if depth < aspirationMinDepth {
		return s.searchRoot(moves, depth, -scoreInf, scoreInf)
	}
	alpha, beta := prevScore-aspirationWindow, prevScore+aspirationWindow
	out := s.searchRoot(moves, depth, alpha, beta)
	if !out.complete {
		return out
	}
	if out.score <= alpha || out.score >= beta {
		out = s.searchRoot(moves, depth, -scoreInf, scoreInf)
	}
	return out
}

// searchRoot 顺序根搜索（PVS）
func (s *searcher) searchRoot(moves []xiangqi.Move, depth, alpha, beta int) rootOutcome {
	pos := s.pos
	alphaOrig := alpha
	out := rootOutcome{move: xiangqi.NoMove, score: -scoreInf}

	for i, m := range moves {
		u := pos.MakeMoveFast(m)
		var score int
		if i == 0 {
			score = -s.negamax(depth-1, 1, -beta, -alpha)
		} else {
			score = -s.negamax(depth-1, 1, -alpha-1, -alpha)
			if score > alpha && score < beta && !s.timeUp.Load() {
				score = -s.negamax(depth-1, 1, -beta, -alpha)
			}
		}
		pos.UnmakeMove(u)

		if s.timeUp.Load() {
			return out
		}
		if score > out.score {
			out.score = score
			out.move = m
			out.found = true
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			break
		}
	}

	out.complete = true
	if s.tt != nil {
		s.tt.store(pos.Hash, depth, scoreToTT(out.score, 0), boundFor(out.score, alphaOrig, beta), out.move)
	}
	return out
}

func boundFor(score, alphaOrig, beta int) Bound {
	switch {
	case score <= alphaOrig:
		return BoundUpper
	case score >= beta:
		return BoundLower
	}
	return BoundExact
}

// tick 数节点，每 mask+1 个节点看一次钟
func (s *searcher) tick() bool {
	s.nodes++
	if s.nodes&s.mask == 0 {
		if (!s.deadline.IsZero() && time.Now().After(s.deadline)) || s.ctx.Err() != nil {
			s.timeUp.Store(true)
		}
	}
	return s.timeUp.Load()
}

// evaluate 走子方视角的静态分；无子可动时按步数给杀棋分或 0
func (s *searcher) evaluate(ply int) int {
	pos := s.pos
	side := pos.SideToMove
	if !pos.HasLegalMove(side) {
		if pos.IsInCheck(side) {
			return -mateScore + ply
		}
		return 0
	}
	return sideSign(side) * (evaluateMaterialPositional(pos) + evaluateChecks(pos))
}

// negamax + alpha-beta + PVS，分数总是走子方视角
func (s *searcher) negamax(depth, ply, alpha, beta int) int {
	if s.tick() {
		// 超时：返回当前静态评估（不完美，但能保证退出）
		return s.evaluate(ply)
	}

	pos := s.pos
	side := pos.SideToMove
	if !pos.HasGeneral(side) {
		return -mateScore + ply
	}
	if ply >= MaxPly-1 {
		return s.evaluate(ply)
	}

	inCheck := pos.IsInCheck(side)
	if depth <= 0 {
		if !inCheck {
			return s.evaluate(ply)
		}
		// 将军延伸一层，避免地平线效应
		depth = 1
	}

	alphaOrig := alpha
	ttMove := xiangqi.NoMove
	if s.tt != nil {
		if e, ok := s.tt.probe(pos.Hash); ok {
			ttMove = e.Move
			if e.Depth >= depth {
				score := scoreFromTT(e.Score, ply)
				switch e.Bound {
				case BoundExact:
					return score
				case BoundLower:
					if score > alpha {
						alpha = score
					}
				case BoundUpper:
					if score < beta {
						beta = score
					}
				}
				if alpha >= beta {
					return score
				}
			}
		}
	}

	moves := pos.LegalMoves(side)
	if len(moves) == 0 {
		if inCheck {
			return -mateScore + ply
		}
		return 0
	}
	s.ord.order(&pos.Board, side, moves, ttMove, ply)

	best := -scoreInf
	bestMove := xiangqi.NoMove
	for i, m := range moves {
		capture := pos.Board.Squares[m.To] != 0
		u := pos.MakeMoveFast(m)
		var score int
		if i == 0 {
			score = -s.negamax(depth-1, ply+1, -beta, -alpha)
		} else {
			score = -s.negamax(depth-1, ply+1, -alpha-1, -alpha)
			if score > alpha && score < beta && !s.timeUp.Load() {
				score = -s.negamax(depth-1, ply+1, -beta, -alpha)
			}
		}
		pos.UnmakeMove(u)

		if s.timeUp.Load() {
			if bestMove.IsNone() {
				return s.evaluate(ply)
			}
			return best
		}
		if score > best {
			best = score
			bestMove = m
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			if !capture {
				s.ord.recordCutoff(side, m, depth, ply)
			}
			break
		}
	}

	if s.tt != nil {
		s.tt.store(pos.Hash, depth, scoreToTT(best, ply), boundFor(best, alphaOrig, beta), bestMove)
	}
	return best
}

// principalVariation 沿着置换表里的最佳着法走出主变
func (s *searcher) principalVariation(first xiangqi.Move, depth int) []xiangqi.Move {
	pv := []xiangqi.Move{first}
	if s.tt == nil || first.IsNone() {
		return pv
	}
	pos := s.pos.Clone()
	pos.MakeMoveFast(first)
	for len(pv) < depth {
		e, ok := s.tt.probe(pos.Hash)
		if !ok || e.Move.IsNone() || !pos.IsLegalMove(e.Move) {
			break
		}
		pv = append(pv, e.Move)
		pos.MakeMoveFast(e.Move)
	}
	return pv
}
