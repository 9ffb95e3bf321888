package engine

import "xiangqi/internal/xiangqi"

const (
	// 一个足够大的值，当成正负无穷
	scoreInf = 1_000_000_000

	// 被将死的分数（再按步数修正，越快的杀越好）
	mateScore = 1_000_000

	// 将军方加分 / 被将方扣分
	checkBonus = 40
)

// ======= 基础子力估值 =======

var pieceValue = [...]int{
	xiangqi.PieceNone:     0,
	xiangqi.PieceGeneral:  10000,
	xiangqi.PieceAdvisor:  200,
	xiangqi.PieceElephant: 200,
	xiangqi.PieceHorse:    420,
	xiangqi.PieceChariot:  900,
	xiangqi.PieceCannon:   450,
	xiangqi.PieceSoldier:  100,
}

// PieceValue 子力基础分
func PieceValue(pt xiangqi.PieceType) int {
	if pt <= xiangqi.PieceNone || int(pt) >= len(pieceValue) {
		return 0
	}
	return pieceValue[pt]
}

// IsMateScore 分数是否落在杀棋区间
func IsMateScore(score int) bool {
	return score > mateScore-MaxPly || score < -mateScore+MaxPly
}

// Evaluate 从红方视角的评价：正数红方好，负数黑方好。
// 终局（将被吃 / 将死 / 困毙）直接塌缩成 ±mateScore 或 0。
func Evaluate(pos *xiangqi.Position) int {
	switch {
	case !pos.HasGeneral(xiangqi.Red):
		return -mateScore
	case !pos.HasGeneral(xiangqi.Black):
		return mateScore
	}
	stm := pos.SideToMove
	if !pos.HasLegalMove(stm) {
		if pos.IsInCheck(stm) {
			return sideSign(stm) * -mateScore
		}
		return 0
	}
	return evaluateMaterialPositional(pos) + evaluateChecks(pos)
}

func sideSign(side xiangqi.Side) int {
	if side == xiangqi.Black {
		return -1
	}
	return 1
}

// 材料 + “简单位置分” 一起算
func evaluateMaterialPositional(pos *xiangqi.Position) int {
	score := 0
	for sq := 0; sq < xiangqi.NumSquares; sq++ {
		pc := pos.Board.Squares[sq]
		if pc == 0 {
			continue
		}
		side := pc.Side()
		pt := pc.Type()
		r, c := sq/xiangqi.Cols, sq%xiangqi.Cols
		val := pieceValue[pt] + piecePositionalBonus(pt, side, r, c)
		score += sideSign(side) * val
	}
	return score
}

// 当前谁被将军
func evaluateChecks(pos *xiangqi.Position) int {
	score := 0
	if pos.IsInCheck(xiangqi.Red) {
		score -= checkBonus
	}
	if pos.IsInCheck(xiangqi.Black) {
		score += checkBonus
	}
	return score
}

// 计算某个棋子在 (row, col) 的位置加成（从该子所属方视角）
func piecePositionalBonus(pt xiangqi.PieceType, side xiangqi.Side, row, col int) int {
	midCol := xiangqi.Cols / 2
	// 自家方向上的“前进距离”，0 表示还在底线
	advance := rankFromSide(side, row)
	centerBonus := 4 - abs(col-midCol)

	switch pt {
	case xiangqi.PieceSoldier:
		return soldierPosBonus(side, row, advance, centerBonus)
	case xiangqi.PieceHorse:
		// 马：靠中比边强，行上也别太贴边
		rowDist := abs(2*row-(xiangqi.Rows-1)) / 2
		return centerBonus*6 + (4-rowDist)*3
	case xiangqi.PieceChariot:
		// 车：中路 + 离开底线
		b := centerBonus * 3
		if advance > 0 {
			b += 6
		}
		return b
	case xiangqi.PieceCannon:
		// 炮：中路“炮位”，当头炮再加分
		b := 0
		if col >= midCol-1 && col <= midCol+1 {
			b += 12
		}
		if col == midCol {
			b += 10
		}
		if advance >= 2 && advance <= 5 {
			b += 6
		}
		return b
	case xiangqi.PieceAdvisor, xiangqi.PieceElephant:
		if col == midCol {
			return 4
		}
		return 0
	case xiangqi.PieceGeneral:
		// 将：待在中路底线最稳
		b := 0
		if col == midCol {
			b += 6
		}
		b -= advance * 8
		return b
	}
	return 0
}

func soldierPosBonus(side xiangqi.Side, row, advance, centerBonus int) int {
	// 未过河的兵价值低
	if !crossed(side, row) {
		return advance * 2
	}
	b := 60 + (advance-5)*12
	b += centerBonus * 6
	// 兵到底线（老兵）失去前进能力
	if advance == xiangqi.Rows-1 {
		b -= 40
	}
	return b
}

// 距己方底线的行数
func rankFromSide(side xiangqi.Side, row int) int {
	if side == xiangqi.Black {
		return row
	}
	return xiangqi.Rows - 1 - row
}

func crossed(side xiangqi.Side, row int) bool {
	if side == xiangqi.Black {
		return row >= xiangqi.RiverRow
	}
	return row < xiangqi.RiverRow
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
