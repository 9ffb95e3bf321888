package xiangqi

// Zobrist 键按 (颜色, 兵种, 格子) 各一个，另加“红方走子”键。
// 包初始化时用固定种子生成，同一盘面在不同进程里哈希相同。
var (
	pieceKeys    [2][numPieceTypes][NumSquares]uint64
	redToMoveKey uint64
)

// splitMix64 固定种子的键生成器
type splitMix64 uint64

func (s *splitMix64) next() uint64 {
	*s += 0x9E3779B97F4A7C15
	z := uint64(*s)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	rng := splitMix64(0x5851F42D4C957F2D)
	for side := range pieceKeys {
		for pt := PieceGeneral; pt <= PieceSoldier; pt++ {
			for sq := range pieceKeys[side][pt] {
				pieceKeys[side][pt][sq] = rng.next()
			}
		}
	}
	redToMoveKey = rng.next()
}

// keyOf 空格返回 0，异或进哈希等于没动
func keyOf(pc Piece, sq int) uint64 {
	if pc == 0 {
		return 0
	}
	return pieceKeys[pc.Side()][pc.Type()][sq]
}

// CalculateHash 从头算整盘哈希
func (p *Position) CalculateHash() uint64 {
	var h uint64
	if p.SideToMove == Red {
		h = redToMoveKey
	}
	for sq, pc := range p.Board.Squares {
		h ^= keyOf(pc, sq)
	}
	return h
}

// EnsureHash 哈希为 0 视为未初始化，补算一次
func (p *Position) EnsureHash() uint64 {
	if p.Hash == 0 {
		p.Hash = p.CalculateHash()
	}
	return p.Hash
}
