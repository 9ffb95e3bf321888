package book

import (
	"fmt"
	"strings"
	"unicode"

	"xiangqi/internal/xiangqi"
)

// Tier 残局难度档
type Tier int

const (
	TierNone Tier = iota
	TierSimple
	TierMedium
	TierHard
)

func (t Tier) String() string {
	switch t {
	case TierSimple:
		return "simple"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	}
	return "none"
}

// 复杂度权重：大子重、小子轻，将不计
var complexityWeight = map[rune]int{
	'r': 9,
	'c': 5,
	'n': 5,
	'b': 2,
	'a': 2,
	'p': 1,
	'k': 0,
}

// ComplexityScore 按棋子类型加权的字符计数，只看盘面部分
func ComplexityScore(encoding string) int {
	board := encoding
	if i := strings.IndexByte(board, ' '); i >= 0 {
		board = board[:i]
	}
	score := 0
	for _, ch := range board {
		score += complexityWeight[unicode.ToLower(ch)]
	}
	return score
}

// TierPolicy 把复杂度分映射到档位；阈值只是调参，可以整体替换
type TierPolicy interface {
	Tier(score int) Tier
}

// ThresholdPolicy score<=SimpleMax 为简单，<=MediumMax 为中等，其余为困难
type ThresholdPolicy struct {
	SimpleMax int
	MediumMax int
}

func (p ThresholdPolicy) Tier(score int) Tier {
	switch {
	case score <= p.SimpleMax:
		return TierSimple
	case score <= p.MediumMax:
		return TierMedium
	}
	return TierHard
}

var DefaultTierPolicy = ThresholdPolicy{SimpleMax: 8, MediumMax: 14}

// EndgameSet 手选的残局盘面，载入时按复杂度分好档
type EndgameSet struct {
	tiers map[string]Tier // 键为盘面编码（不含走子方）
}

// NewEndgameSet 解析并分档；任何一条编码不合法都返回错误
func NewEndgameSet(encodings []string, policy TierPolicy) (*EndgameSet, error) {
	if policy == nil {
		policy = DefaultTierPolicy
	}
	s := &EndgameSet{tiers: make(map[string]Tier, len(encodings))}
	for _, enc := range encodings {
		pos, err := xiangqi.DecodePosition(enc)
		if err != nil {
			return nil, fmt.Errorf("endgame %q: %w", enc, err)
		}
		key := pos.BoardKey()
		s.tiers[key] = policy.Tier(ComplexityScore(key))
	}
	return s, nil
}

// DefaultEndgameSet 内置残局表，编码在编译期固定，解析失败属于程序错误
func DefaultEndgameSet() *EndgameSet {
	s, err := NewEndgameSet(DefaultEndgames, DefaultTierPolicy)
	if err != nil {
		panic(err)
	}
	return s
}

// DefaultEndgames 几个实战里容易走错的经典残局
var DefaultEndgames = []string{
	"3ak4/4a4/9/9/9/9/9/9/9/3K1R3 w",    // 单车胜双士
	"4k4/4a4/9/4P4/9/9/9/9/4N4/3K5 w",   // 马兵胜单士
	"3k5/4a4/9/9/9/9/9/4C4/4A4/5K3 w",   // 炮仕胜单士
	"3aka3/9/4n4/9/9/9/9/9/9/4K1R2 w",   // 车胜马双士
	"3aka3/9/9/3P1P3/9/9/9/9/9/5K3 w",   // 双兵对双士
	"3aka3/9/4r4/9/4P4/9/9/9/9/3K1R3 w", // 车兵对车士
	"4k4/4a4/9/9/9/9/9/9/9/3KN4 b",      // 马对单士
	"2bk5/9/4b4/9/4P4/9/9/4C4/9/5K3 w",  // 炮兵对双象
}

func (s *EndgameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tiers)
}

// Lookup 当前盘面是否是手选残局，返回其档位
func (s *EndgameSet) Lookup(pos *xiangqi.Position) (Tier, bool) {
	if s == nil {
		return TierNone, false
	}
	t, ok := s.tiers[pos.BoardKey()]
	return t, ok
}

// Tiers 各档位的残局数量
func (s *EndgameSet) Tiers() map[Tier]int {
	out := make(map[Tier]int)
	if s == nil {
		return out
	}
	for _, t := range s.tiers {
		out[t]++
	}
	return out
}
