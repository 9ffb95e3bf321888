package xiangqi

// IsAttacked 判断 bySide 是否有棋子能“吃到” sq 这个格子。
// 只看几何走法（炮需炮架），不考虑攻击方走后自己是否被将军。
// 从目标格向外反查，避免对全盘每个子生成走法。
func (p *Position) IsAttacked(sq int, bySide Side) bool {
	if !validSquare(sq) || bySide == NoSide {
		return false
	}
	return isAttacked(&p.Board, sq, bySide)
}

func isAttacked(b *Board, sq int, by Side) bool {
	row, col := rowOf(sq), colOf(sq)

	is := func(r, c int, pt PieceType) bool {
		if !onBoard(r, c) {
			return false
		}
		pc := b.Squares[indexOf(r, c)]
		return pc != 0 && pc.Side() == by && pc.Type() == pt
	}

	// 车 / 炮：沿四个方向，第一个子是车即被攻击；越过第一个子后的第二个子是炮即被攻击
	for _, d := range orthoDirs {
		r, c := row+d[0], col+d[1]
		for onBoard(r, c) && b.Squares[indexOf(r, c)] == 0 {
			r, c = r+d[0], c+d[1]
		}
		if !onBoard(r, c) {
			continue
		}
		if is(r, c, PieceChariot) {
			return true
		}
		for r, c = r+d[0], c+d[1]; onBoard(r, c); r, c = r+d[0], c+d[1] {
			if b.Squares[indexOf(r, c)] != 0 {
				if is(r, c, PieceCannon) {
					return true
				}
				break
			}
		}
	}

	// 马：马在 sq-(Dr,Dc)，马腿在马的位置 +(Br,Bc)
	for _, m := range horseLegMoves {
		hr, hc := row-m.Dr, col-m.Dc
		if !is(hr, hc, PieceHorse) {
			continue
		}
		if b.Squares[indexOf(hr+m.Br, hc+m.Bc)] == 0 {
			return true
		}
	}

	// 兵：正后方一格；过河兵还可以从左右吃过来
	dir := soldierDir(by)
	if is(row-dir, col, PieceSoldier) {
		return true
	}
	if crossedRiver(by, row) {
		if is(row, col-1, PieceSoldier) || is(row, col+1, PieceSoldier) {
			return true
		}
	}

	if inPalace(by, row, col) {
		for _, d := range orthoDirs {
			if is(row+d[0], col+d[1], PieceGeneral) {
				return true
			}
		}
		for _, d := range diagDirs {
			if is(row+d[0], col+d[1], PieceAdvisor) {
				return true
			}
		}
	}

	if onOwnHalf(by, row) {
		for _, d := range diagDirs {
			if is(row+2*d[0], col+2*d[1], PieceElephant) && b.Squares[indexOf(row+d[0], col+d[1])] == 0 {
				return true
			}
		}
	}
	return false
}

func generalSquare(b *Board, side Side) int {
	for sq, pc := range b.Squares {
		if pc != 0 && pc.Side() == side && pc.Type() == PieceGeneral {
			return sq
		}
	}
	return -1
}

// GeneralSquare 返回 side 方将/帅所在格，不存在返回 -1
func (p *Position) GeneralSquare(side Side) int {
	return generalSquare(&p.Board, side)
}

func (p *Position) HasGeneral(side Side) bool {
	return generalSquare(&p.Board, side) >= 0
}

func generalsFacing(b *Board) bool {
	red := generalSquare(b, Red)
	black := generalSquare(b, Black)
	if red < 0 || black < 0 {
		// 有一方已经没有将，不存在对脸
		return false
	}
	if colOf(red) != colOf(black) {
		return false
	}
	return countBetween(b, black, red) == 0
}

// GeneralsFacing 两将同列且中间无子
func (p *Position) GeneralsFacing() bool {
	return generalsFacing(&p.Board)
}

// IsInCheck 判断 side 这一方的将是否被对方攻击
func (p *Position) IsInCheck(side Side) bool {
	gsq := generalSquare(&p.Board, side)
	if gsq < 0 {
		return false
	}
	return isAttacked(&p.Board, gsq, opposite(side))
}

// IsCheckmate 走子方被将军且无合法着法
func (p *Position) IsCheckmate() bool {
	side := p.SideToMove
	return p.IsInCheck(side) && !p.HasLegalMove(side)
}

// IsStalemate 走子方未被将军但无合法着法（按和棋处理）
func (p *Position) IsStalemate() bool {
	side := p.SideToMove
	return !p.IsInCheck(side) && !p.HasLegalMove(side)
}

func (p *Position) IsGameOver() bool {
	if !p.HasGeneral(Red) || !p.HasGeneral(Black) {
		return true
	}
	return !p.HasLegalMove(p.SideToMove)
}

// Winner 返回胜方；对局未结束或困毙和棋时 ok=false
func (p *Position) Winner() (Side, bool) {
	redAlive, blackAlive := p.HasGeneral(Red), p.HasGeneral(Black)
	switch {
	case !redAlive && !blackAlive:
		return NoSide, false
	case !redAlive:
		return Black, true
	case !blackAlive:
		return Red, true
	}
	if p.IsCheckmate() {
		return opposite(p.SideToMove), true
	}
	return NoSide, false
}
