package xiangqi

var (
	orthoDirs = [4][2]int{{-1, 0}, {0, -1}, {0, +1}, {+1, 0}}
	diagDirs  = [4][2]int{{-1, -1}, {-1, +1}, {+1, -1}, {+1, +1}}
)

// 马的 8 种“日”字：终点 + 马腿，按目标格下标升序排列
var horseLegMoves = [8]struct {
	Dr, Dc int // 终点
	Br, Bc int // 马腿
}{
	{-2, -1, -1, 0},
	{-2, +1, -1, 0},
	{-1, -2, 0, -1},
	{-1, +2, 0, +1},
	{+1, -2, 0, -1},
	{+1, +2, 0, +1},
	{+2, -1, +1, 0},
	{+2, +1, +1, 0},
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// countBetween 同一行/列上 from 与 to 之间（不含两端）的棋子数
func countBetween(b *Board, from, to int) int {
	fr, fc := rowOf(from), colOf(from)
	tr, tc := rowOf(to), colOf(to)
	dr, dc := sign(tr-fr), sign(tc-fc)
	n := 0
	for r, c := fr+dr, fc+dc; r != tr || c != tc; r, c = r+dr, c+dc {
		if b.Squares[indexOf(r, c)] != 0 {
			n++
		}
	}
	return n
}

// CanPieceMove 纯函数：只看棋子本身的走法（几何 + 蹩腿/塞眼/炮架），
// 不管目标格是不是己方子、走后是否被将军或王对脸。
func CanPieceMove(b *Board, pt PieceType, side Side, from, to int) bool {
	if !validSquare(from) || !validSquare(to) || from == to {
		return false
	}
	fr, fc := rowOf(from), colOf(from)
	tr, tc := rowOf(to), colOf(to)
	dr, dc := tr-fr, tc-fc

	switch pt {
	case PieceGeneral:
		return abs(dr)+abs(dc) == 1 && inPalace(side, tr, tc)
	case PieceAdvisor:
		return abs(dr) == 1 && abs(dc) == 1 && inPalace(side, tr, tc)
	case PieceElephant:
		if abs(dr) != 2 || abs(dc) != 2 || !onOwnHalf(side, tr) {
			return false
		}
		return b.Squares[indexOf(fr+dr/2, fc+dc/2)] == 0 // 塞象眼
	case PieceHorse:
		var leg int
		switch {
		case abs(dr) == 2 && abs(dc) == 1:
			leg = indexOf(fr+dr/2, fc)
		case abs(dr) == 1 && abs(dc) == 2:
			leg = indexOf(fr, fc+dc/2)
		default:
			return false
		}
		return b.Squares[leg] == 0 // 蹩马腿
	case PieceChariot:
		if (dr != 0) == (dc != 0) {
			return false
		}
		return countBetween(b, from, to) == 0
	case PieceCannon:
		if (dr != 0) == (dc != 0) {
			return false
		}
		n := countBetween(b, from, to)
		if b.Squares[to] == 0 {
			return n == 0
		}
		return n == 1 // 炮架
	case PieceSoldier:
		if dc == 0 && dr == soldierDir(side) {
			return true
		}
		if dr == 0 && abs(dc) == 1 {
			return crossedRiver(side, fr)
		}
		return false
	}
	return false
}

// IsLegalMove 判断当前走子方走 m 是否合法
func (p *Position) IsLegalMove(m Move) bool {
	if !validSquare(m.From) || !validSquare(m.To) || m.From == m.To {
		return false
	}
	pc := p.Board.Squares[m.From]
	if pc == 0 || pc.Side() != p.SideToMove {
		return false
	}
	dst := p.Board.Squares[m.To]
	if dst != 0 && dst.Side() == pc.Side() {
		return false
	}
	if !CanPieceMove(&p.Board, pc.Type(), pc.Side(), m.From, m.To) {
		return false
	}
	return !exposesGeneral(&p.Board, m.From, m.To)
}

// exposesGeneral 在棋盘副本上走一步，看是否送将或造成王对脸
func exposesGeneral(board *Board, from, to int) bool {
	b := *board
	pc := b.Squares[from]
	side := pc.Side()
	b.Squares[to] = pc
	b.Squares[from] = 0

	if generalsFacing(&b) {
		return true
	}
	gsq := generalSquare(&b, side)
	if gsq < 0 {
		return false
	}
	return isAttacked(&b, gsq, opposite(side))
}

// 生成某个棋子的几何目标格（升序），不过滤己方子
func pieceTargets(b *Board, from int, buf []int) []int {
	pc := b.Squares[from]
	side := pc.Side()
	row, col := rowOf(from), colOf(from)
	out := buf[:0]

	switch pc.Type() {
	case PieceGeneral:
		for _, d := range orthoDirs {
			r, c := row+d[0], col+d[1]
			if onBoard(r, c) && inPalace(side, r, c) {
				out = append(out, indexOf(r, c))
			}
		}
	case PieceAdvisor:
		for _, d := range diagDirs {
			r, c := row+d[0], col+d[1]
			if onBoard(r, c) && inPalace(side, r, c) {
				out = append(out, indexOf(r, c))
			}
		}
	case PieceElephant:
		for _, d := range diagDirs {
			r, c := row+2*d[0], col+2*d[1]
			if !onBoard(r, c) || !onOwnHalf(side, r) {
				continue
			}
			if b.Squares[indexOf(row+d[0], col+d[1])] != 0 {
				continue
			}
			out = append(out, indexOf(r, c))
		}
	case PieceHorse:
		for _, m := range horseLegMoves {
			r, c := row+m.Dr, col+m.Dc
			if !onBoard(r, c) {
				continue
			}
			if b.Squares[indexOf(row+m.Br, col+m.Bc)] != 0 {
				continue
			}
			out = append(out, indexOf(r, c))
		}
	case PieceChariot:
		for _, d := range orthoDirs {
			for r, c := row+d[0], col+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
				to := indexOf(r, c)
				out = append(out, to)
				if b.Squares[to] != 0 {
					break
				}
			}
		}
		sortSquares(out)
	case PieceCannon:
		for _, d := range orthoDirs {
			r, c := row+d[0], col+d[1]
			// 走子阶段：直到第一个棋子
			for ; onBoard(r, c); r, c = r+d[0], c+d[1] {
				to := indexOf(r, c)
				if b.Squares[to] != 0 {
					break
				}
				out = append(out, to)
			}
			// 吃子阶段：越过炮架，遇到第一子
			for r, c = r+d[0], c+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
				to := indexOf(r, c)
				if b.Squares[to] != 0 {
					out = append(out, to)
					break
				}
			}
		}
		sortSquares(out)
	case PieceSoldier:
		dir := soldierDir(side)
		crossed := crossedRiver(side, row)
		if dir < 0 && onBoard(row+dir, col) {
			out = append(out, indexOf(row+dir, col))
		}
		if crossed {
			if col > 0 {
				out = append(out, indexOf(row, col-1))
			}
			if col < Cols-1 {
				out = append(out, indexOf(row, col+1))
			}
		}
		if dir > 0 && onBoard(row+dir, col) {
			out = append(out, indexOf(row+dir, col))
		}
	}
	return out
}

// 小数组插入排序
func sortSquares(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// LegalMoves 生成 side 一方全部合法着法，按“先行后列”的扫描顺序（起点，再终点）
func (p *Position) LegalMoves(side Side) []Move {
	moves := make([]Move, 0, 48)
	p.forEachLegal(side, func(m Move) bool {
		moves = append(moves, m)
		return true
	})
	return moves
}

// HasLegalMove 找到一个合法着法即返回
func (p *Position) HasLegalMove(side Side) bool {
	found := false
	p.forEachLegal(side, func(Move) bool {
		found = true
		return false
	})
	return found
}

func (p *Position) forEachLegal(side Side, fn func(Move) bool) {
	var buf [20]int
	b := &p.Board
	for from := 0; from < NumSquares; from++ {
		pc := b.Squares[from]
		if pc == 0 || pc.Side() != side {
			continue
		}
		for _, to := range pieceTargets(b, from, buf[:]) {
			dst := b.Squares[to]
			if dst != 0 && dst.Side() == side {
				continue
			}
			if exposesGeneral(b, from, to) {
				continue
			}
			if !fn(Move{From: from, To: to}) {
				return
			}
		}
	}
}
