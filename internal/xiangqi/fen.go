package xiangqi

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// 紧凑编码：10 行用“/”隔开（自上而下），空位用数字压缩；空格后 w/b 表示先后
func (p *Position) Encode() string {
	var sb strings.Builder
	sb.Grow(96)
	p.writeBoard(&sb)
	sb.WriteByte(' ')
	if p.SideToMove == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	return sb.String()
}

// BoardKey 只含盘面部分，不含走子方
func (p *Position) BoardKey() string {
	var sb strings.Builder
	sb.Grow(90)
	p.writeBoard(&sb)
	return sb.String()
}

func (p *Position) writeBoard(sb *strings.Builder) {
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < Cols; c++ {
			pc := p.Board.Squares[indexOf(r, c)]
			if pc == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(pieceToChar(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
}

var ErrInvalidFEN = errors.New("invalid FEN")

// DecodePosition 解析紧凑编码；失败时不产生任何局面
func DecodePosition(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 || len(fields) > 2 {
		return nil, fmt.Errorf("%w: expected board and optional side, got %d fields", ErrInvalidFEN, len(fields))
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != Rows {
		return nil, fmt.Errorf("%w: %d ranks", ErrInvalidFEN, len(rows))
	}
	var b Board
	for r := 0; r < Rows; r++ {
		c := 0
		for _, ch := range rows[r] {
			if c >= Cols {
				return nil, fmt.Errorf("%w: rank %d too long", ErrInvalidFEN, r)
			}
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			pt, ok := letterToPieceType[unicode.ToLower(ch)]
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			side := Black
			if unicode.IsUpper(ch) {
				side = Red
			}
			b.Squares[indexOf(r, c)] = MakePiece(side, pt)
			c++
		}
		if c != Cols {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, r, c)
		}
	}
	var generals [2]int
	for _, pc := range b.Squares {
		if pc != 0 && pc.Type() == PieceGeneral {
			generals[pc.Side()]++
		}
	}
	if generals[Red] > 1 || generals[Black] > 1 {
		return nil, fmt.Errorf("%w: more than one general per side", ErrInvalidFEN)
	}
	stm := Red
	if len(fields) == 2 {
		switch fields[1] {
		case "w", "r":
			stm = Red
		case "b":
			stm = Black
		default:
			return nil, fmt.Errorf("%w: side %q", ErrInvalidFEN, fields[1])
		}
	}
	pos := &Position{
		Board:      b,
		SideToMove: stm,
	}
	pos.Hash = pos.CalculateHash()
	return pos, nil
}
