package xiangqi

import "unicode"

const (
	Rows       = 10
	Cols       = 9
	NumSquares = Rows * Cols

	// 河界：0..4 为黑方半场，5..9 为红方半场
	RiverRow = 5
)

func indexOf(row, col int) int { return row*Cols + col }
func rowOf(sq int) int         { return sq / Cols }
func colOf(sq int) int         { return sq % Cols }

// Square 把 (row, col) 转成格子下标
func Square(row, col int) int { return indexOf(row, col) }

func onBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

func validSquare(sq int) bool {
	return sq >= 0 && sq < NumSquares
}

func opposite(side Side) Side {
	if side == Red {
		return Black
	}
	if side == Black {
		return Red
	}
	return NoSide
}

// 兵的前进方向：红向上(-1)，黑向下(+1)
func soldierDir(side Side) int {
	if side == Red {
		return -1
	}
	if side == Black {
		return +1
	}
	return 0
}

// 是否在自己半场
func onOwnHalf(side Side, row int) bool {
	if side == Red {
		return row >= RiverRow
	}
	if side == Black {
		return row < RiverRow
	}
	return false
}

// 兵是否已过河
func crossedRiver(side Side, row int) bool {
	return side != NoSide && !onOwnHalf(side, row)
}

// 是否在九宫
func inPalace(side Side, row, col int) bool {
	if col < 3 || col > 5 {
		return false
	}
	if side == Black {
		return row >= 0 && row <= 2
	}
	if side == Red {
		return row >= 7 && row <= 9
	}
	return false
}

var letterToPieceType = map[rune]PieceType{
	'k': PieceGeneral,
	'a': PieceAdvisor,
	'b': PieceElephant,
	'n': PieceHorse,
	'r': PieceChariot,
	'c': PieceCannon,
	'p': PieceSoldier,
}

var pieceTypeToLetter = [numPieceTypes]rune{0, 'k', 'a', 'b', 'n', 'r', 'c', 'p'}

func pieceToChar(p Piece) rune {
	if p == 0 {
		return '.'
	}
	pt := p.Type()
	if pt <= PieceNone || int(pt) >= numPieceTypes {
		return '.'
	}
	base := pieceTypeToLetter[pt]
	if p.Side() == Red {
		return unicode.ToUpper(base)
	}
	return base
}

// 标准开局
const InitialFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w"

func NewInitialPosition() *Position {
	pos, err := DecodePosition(InitialFEN)
	if err != nil {
		panic("initial position: " + err.Error())
	}
	return pos
}

// NewEmptyPosition 空棋盘，红方先走；用于摆残局
func NewEmptyPosition(side Side) *Position {
	pos := &Position{SideToMove: side}
	pos.Hash = pos.CalculateHash()
	return pos
}

// Put 摆子（p=0 即清空该格），并重算哈希
func (p *Position) Put(row, col int, pc Piece) {
	if !onBoard(row, col) {
		return
	}
	p.Board.Squares[indexOf(row, col)] = pc
	p.Hash = p.CalculateHash()
}

func (p *Position) PieceAt(row, col int) Piece {
	return p.Board.At(row, col)
}

// TotalPieces 盘面棋子总数
func (p *Position) TotalPieces() int {
	n := 0
	for _, pc := range p.Board.Squares {
		if pc != 0 {
			n++
		}
	}
	return n
}
