package engine

import (
	"fmt"
	"strings"
	"time"

	"xiangqi/internal/book"
)

// Difficulty 难度档位
type Difficulty int

const (
	Beginner Difficulty = iota
	Easy
	Medium
	Hard
	Master
)

var difficultyNames = [...]string{"beginner", "easy", "medium", "hard", "master"}

func (d Difficulty) String() string {
	if d < Beginner || d > Master {
		return fmt.Sprintf("difficulty(%d)", int(d))
	}
	return difficultyNames[d]
}

func (d Difficulty) Valid() bool { return d >= Beginner && d <= Master }

// ParseDifficulty 按名字解析（不区分大小写）
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range difficultyNames {
		if n == s {
			return Difficulty(i), nil
		}
	}
	return Medium, fmt.Errorf("unknown difficulty %q", s)
}

// 两个低档位有一定概率不搜索，直接在浅层排序的前 N 步里随机挑
type randomPlay struct {
	percent int // 触发概率（百分比）
	topN    int
}

func (d Difficulty) randomPlay() (randomPlay, bool) {
	switch d {
	case Beginner:
		return randomPlay{percent: 50, topN: 5}, true
	case Easy:
		return randomPlay{percent: 25, topN: 3}, true
	}
	return randomPlay{}, false
}

// SearchBudget 每步的搜索预算
type SearchBudget struct {
	MaxDepth  int
	TimeLimit time.Duration
}

var baseBudgets = [...]SearchBudget{
	Beginner: {MaxDepth: 2, TimeLimit: 300 * time.Millisecond},
	Easy:     {MaxDepth: 3, TimeLimit: 600 * time.Millisecond},
	Medium:   {MaxDepth: 4, TimeLimit: 1500 * time.Millisecond},
	Hard:     {MaxDepth: 6, TimeLimit: 3 * time.Second},
	Master:   {MaxDepth: 8, TimeLimit: 6 * time.Second},
}

const maxBudgetDepth = 24

// BudgetFor 根据难度、已走步数、可用并行度、分支数和残局档位给出预算
func BudgetFor(d Difficulty, moveCount, workers, branching int, tier book.Tier) SearchBudget {
	if !d.Valid() {
		d = Medium
	}
	b := baseBudgets[d]

	switch {
	case moveCount < 10:
		// 开局变化少，省点时间
		b.TimeLimit = b.TimeLimit * 3 / 4
	case moveCount >= 20 && moveCount <= 80:
		// 中局最吃计算
		b.TimeLimit = b.TimeLimit * 5 / 4
	}

	// 并行根节点能多算一层
	if workers >= 4 && d >= Hard {
		b.MaxDepth++
	}

	switch {
	case branching > 0 && branching <= 12:
		b.MaxDepth += 2
	case branching > 0 && branching <= 24:
		b.MaxDepth++
	case branching > 45 && d < Master:
		b.MaxDepth--
	}

	switch tier {
	case book.TierSimple:
		b.MaxDepth++
		b.TimeLimit = b.TimeLimit * 5 / 4
	case book.TierMedium:
		b.MaxDepth += 2
		b.TimeLimit = b.TimeLimit * 3 / 2
	case book.TierHard:
		b.MaxDepth += 3
		b.TimeLimit *= 2
	}

	if b.MaxDepth < 1 {
		b.MaxDepth = 1
	}
	if b.MaxDepth > maxBudgetDepth {
		b.MaxDepth = maxBudgetDepth
	}
	return b
}
