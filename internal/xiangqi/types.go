package xiangqi

import "fmt"

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Black:
		return "black"
	}
	return "none"
}

// Opponent 返回对手一方
func (s Side) Opponent() Side {
	return opposite(s)
}

type PieceType int8

const (
	PieceNone     PieceType = iota
	PieceGeneral            // 帅 / 将
	PieceAdvisor            // 仕 / 士
	PieceElephant           // 相 / 象
	PieceHorse              // 马
	PieceChariot            // 车
	PieceCannon             // 炮
	PieceSoldier            // 兵 / 卒

	numPieceTypes = 8
)

var pieceTypeNames = [numPieceTypes]string{"none", "general", "advisor", "elephant", "horse", "chariot", "cannon", "soldier"}

func (pt PieceType) String() string {
	if pt < 0 || int(pt) >= numPieceTypes {
		return "invalid"
	}
	return pieceTypeNames[pt]
}

type Piece int8 // 0=空；>0 红；<0 黑；abs=PieceType

func MakePiece(side Side, pt PieceType) Piece {
	if pt == PieceNone || side == NoSide {
		return 0
	}
	if side == Red {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p == 0 {
		return NoSide
	}
	if p > 0 {
		return Red
	}
	return Black
}

func (p Piece) String() string {
	if p == 0 {
		return "."
	}
	return string(pieceToChar(p))
}

type Board struct {
	Squares [NumSquares]Piece
}

// At 返回 (row, col) 上的棋子，越界返回空
func (b *Board) At(row, col int) Piece {
	if !onBoard(row, col) {
		return 0
	}
	return b.Squares[indexOf(row, col)]
}

// Move 只由四个坐标决定身份；Captured 由 MakeMove 填写，供 UnmakeMove 复原
type Move struct {
	From     int   `json:"from"`
	To       int   `json:"to"`
	Captured Piece `json:"-"`
}

// NoMove 表示“没有着法”
var NoMove = Move{From: -1, To: -1}

func NewMove(fromRow, fromCol, toRow, toCol int) Move {
	return Move{From: indexOf(fromRow, fromCol), To: indexOf(toRow, toCol)}
}

func (m Move) FromRow() int { return rowOf(m.From) }
func (m Move) FromCol() int { return colOf(m.From) }
func (m Move) ToRow() int   { return rowOf(m.To) }
func (m Move) ToCol() int   { return colOf(m.To) }

// Equal 只比较坐标，不比较吃子快照
func (m Move) Equal(o Move) bool {
	return m.From == o.From && m.To == o.To
}

func (m Move) IsNone() bool {
	return m.From < 0 || m.To < 0
}

func (m Move) String() string {
	if m.IsNone() || !validSquare(m.From) || !validSquare(m.To) {
		return "0000"
	}
	return SquareName(m.From) + SquareName(m.To)
}

func (m Move) GoString() string {
	return fmt.Sprintf("Move{(%d,%d)->(%d,%d)}", m.FromRow(), m.FromCol(), m.ToRow(), m.ToCol())
}

// Position = 棋盘 + 轮到谁走 + 步数 + 走子历史
type Position struct {
	Board      Board
	SideToMove Side
	MoveCount  int
	History    []Move
	Hash       uint64
}
