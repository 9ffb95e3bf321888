package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadNotation 坐标记谱字符串无法解析
var ErrBadNotation = errors.New("bad move notation")

// SquareName 坐标记谱：列 a..i 对应 col 0..8，行数字 = 9-row（红方底线为 0）
func SquareName(sq int) string {
	if !validSquare(sq) {
		return "--"
	}
	return string([]byte{byte('a' + colOf(sq)), byte('0' + (Rows - 1 - rowOf(sq)))})
}

func ParseSquare(s string) (int, error) {
	if len(s) != 2 {
		return -1, fmt.Errorf("%w: square %q", ErrBadNotation, s)
	}
	f, r := s[0], s[1]
	if f >= 'A' && f <= 'I' {
		f += 'a' - 'A'
	}
	if f < 'a' || f > 'i' || r < '0' || r > '9' {
		return -1, fmt.Errorf("%w: square %q", ErrBadNotation, s)
	}
	return indexOf(Rows-1-int(r-'0'), int(f-'a')), nil
}

// ParseMove 解析 "h2e2" 形式的着法；只做格式转换，不检查合法性
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return NoMove, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:])
	if err != nil {
		return NoMove, err
	}
	return Move{From: from, To: to}, nil
}
