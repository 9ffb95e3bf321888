package xiangqi

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalMove   = errors.New("illegal move")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// MakeMove 校验合法性后原地走子；返回的 Move 带有吃子快照，交给 UnmakeMove 复原
func (p *Position) MakeMove(m Move) (Move, error) {
	if !p.IsLegalMove(m) {
		return m, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	return p.MakeMoveFast(m), nil
}

// MakeMoveFast 不做合法性检查，供搜索在已生成的合法着法上使用
func (p *Position) MakeMoveFast(m Move) Move {
	pc := p.Board.Squares[m.From]
	captured := p.Board.Squares[m.To]
	m.Captured = captured

	// 增量 Zobrist：移除 from 的子、移除被吃子（若有）、加入 to 的子、切换走子方。
	h := p.EnsureHash()
	h ^= keyOf(pc, m.From)
	if captured != 0 {
		h ^= keyOf(captured, m.To)
	}
	h ^= keyOf(pc, m.To)
	h ^= redToMoveKey

	p.Board.Squares[m.To] = pc
	p.Board.Squares[m.From] = 0
	p.SideToMove = opposite(p.SideToMove)
	p.MoveCount++
	p.History = append(p.History, m)
	p.Hash = h
	return m
}

// UnmakeMove 撤销 MakeMove/MakeMoveFast 返回的那一步
func (p *Position) UnmakeMove(m Move) {
	pc := p.Board.Squares[m.To]

	h := p.Hash
	h ^= redToMoveKey
	h ^= keyOf(pc, m.To)
	if m.Captured != 0 {
		h ^= keyOf(m.Captured, m.To)
	}
	h ^= keyOf(pc, m.From)

	p.Board.Squares[m.From] = pc
	p.Board.Squares[m.To] = m.Captured
	p.SideToMove = opposite(p.SideToMove)
	p.MoveCount--
	if n := len(p.History); n > 0 {
		p.History = p.History[:n-1]
	}
	p.Hash = h
}

// UndoLast 撤销历史中的最后一步
func (p *Position) UndoLast() (Move, error) {
	n := len(p.History)
	if n == 0 {
		return NoMove, ErrNothingToUndo
	}
	m := p.History[n-1]
	p.UnmakeMove(m)
	return m, nil
}

// ApplyMove 写时复制：校验后返回新局面，原局面不变
func (p *Position) ApplyMove(m Move) (*Position, error) {
	if !p.IsLegalMove(m) {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	np := p.Clone()
	np.MakeMoveFast(m)
	return np, nil
}

// Clone 深拷贝（历史切片独立）
func (p *Position) Clone() *Position {
	np := *p
	if p.History != nil {
		np.History = make([]Move, len(p.History), len(p.History)+16)
		copy(np.History, p.History)
	}
	return &np
}

// Equal 比较盘面、走子方与步数（不比较历史）
func (p *Position) Equal(o *Position) bool {
	return p.Board == o.Board && p.SideToMove == o.SideToMove && p.MoveCount == o.MoveCount
}

// Perft 统计 depth 层内的叶子节点数，用于自检走法生成
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	moves := p.LegalMoves(p.SideToMove)
	if depth == 1 {
		return uint64(len(moves))
	}
	var n uint64
	for _, m := range moves {
		u := p.MakeMoveFast(m)
		n += p.Perft(depth - 1)
		p.UnmakeMove(u)
	}
	return n
}
