package ucci

import (
	"fmt"
	"strings"

	"xiangqi/internal/xiangqi"
)

// orientation 外部引擎坐标可能相对内部棋盘翻转或旋转
type orientation struct {
	name             string
	flipRow, flipCol bool
}

// 第一遍只认标准坐标；第二遍依次尝试其他三种朝向
var altOrientations = []orientation{
	{name: "vertical flip", flipRow: true},
	{name: "rotate 180", flipRow: true, flipCol: true},
	{name: "horizontal mirror", flipCol: true},
}

func (o orientation) apply(m xiangqi.Move) xiangqi.Move {
	fr, fc, tr, tc := m.FromRow(), m.FromCol(), m.ToRow(), m.ToCol()
	if o.flipRow {
		fr, tr = xiangqi.Rows-1-fr, xiangqi.Rows-1-tr
	}
	if o.flipCol {
		fc, tc = xiangqi.Cols-1-fc, xiangqi.Cols-1-tc
	}
	return xiangqi.NewMove(fr, fc, tr, tc)
}

// DecodeMove 把外部引擎的着法串解析成当前局面的合法着法。
// 标准坐标合法就直接用；否则在其他朝向里找，恰好一个合法才接受。
func DecodeMove(pos *xiangqi.Position, token string) (xiangqi.Move, error) {
	tok := strings.ReplaceAll(strings.TrimSpace(token), "-", "")
	raw, err := xiangqi.ParseMove(tok)
	if err != nil {
		return xiangqi.NoMove, fmt.Errorf("%w: bad move token %q: %v", ErrProtocol, token, err)
	}
	if pos.IsLegalMove(raw) {
		return raw, nil
	}

	found := xiangqi.NoMove
	via := ""
	for _, o := range altOrientations {
		m := o.apply(raw)
		if !pos.IsLegalMove(m) || m.Equal(found) {
			continue
		}
		if !found.IsNone() {
			return xiangqi.NoMove, fmt.Errorf("%w: move %q is ambiguous (%s / %s)", ErrProtocol, token, via, o.name)
		}
		found, via = m, o.name
	}
	if found.IsNone() {
		return xiangqi.NoMove, fmt.Errorf("%w: move %q is not legal in %s", ErrProtocol, token, pos.Encode())
	}
	return found, nil
}
