package engine

import (
	"testing"
	"time"

	"xiangqi/internal/book"
	"xiangqi/internal/xiangqi"
)

func TestTransTableDropsWholeTableOnOverflow(t *testing.T) {
	tt := newTransTable(4)
	for k := uint64(1); k <= 4; k++ {
		tt.store(k, 1, 10, BoundExact, xiangqi.NoMove)
	}
	if tt.len() != 4 {
		t.Fatalf("expected 4 entries, got %d", tt.len())
	}
	tt.store(5, 1, 10, BoundExact, xiangqi.NoMove)
	if tt.len() != 1 {
		t.Fatalf("overflow should drop the table, got %d entries", tt.len())
	}
	if _, ok := tt.probe(1); ok {
		t.Fatalf("old entry survived the drop")
	}
}

func TestTransTableKeepsDeeperEntry(t *testing.T) {
	tt := newTransTable(16)
	m := xiangqi.NewMove(7, 7, 7, 4)
	tt.store(9, 5, 100, BoundExact, m)
	tt.store(9, 2, -50, BoundUpper, xiangqi.NoMove)
	e, ok := tt.probe(9)
	if !ok || e.Depth != 5 || e.Score != 100 || !e.Move.Equal(m) {
		t.Fatalf("shallower store replaced a deeper entry: %+v", e)
	}
	tt.store(9, 5, 70, BoundLower, m)
	if e, _ := tt.probe(9); e.Score != 70 || e.Bound != BoundLower {
		t.Fatalf("equal depth store should overwrite: %+v", e)
	}
}

func TestMateScoreAdjustment(t *testing.T) {
	// 在第 3 层看到“第 5 层被杀”，存入后在第 7 层取出应变成“第 9 层被杀”
	stored := scoreToTT(-mateScore+5, 3)
	if got := scoreFromTT(stored, 7); got != -mateScore+9 {
		t.Fatalf("mated score: got %d want %d", got, -mateScore+9)
	}
	stored = scoreToTT(mateScore-4, 2)
	if got := scoreFromTT(stored, 2); got != mateScore-4 {
		t.Fatalf("round trip at the same ply changed the score: %d", got)
	}
	if scoreToTT(123, 9) != 123 || scoreFromTT(-123, 9) != -123 {
		t.Fatalf("ordinary scores must not be adjusted")
	}
}

func TestMoveOrdering(t *testing.T) {
	pos, _ := xiangqi.DecodePosition("5k3/9/9/9/9/9/4p4/9/4R2r1/3K5 w")
	mo := newMoveOrderer()
	moves := pos.LegalMoves(xiangqi.Red)
	ttMove := xiangqi.NewMove(8, 4, 8, 0)
	killer := xiangqi.NewMove(8, 4, 8, 1)
	mo.recordCutoff(xiangqi.Red, killer, 3, 0)

	mo.order(&pos.Board, xiangqi.Red, moves, ttMove, 0)
	want := []xiangqi.Move{
		ttMove,
		xiangqi.NewMove(8, 4, 8, 7), // 吃车
		xiangqi.NewMove(8, 4, 6, 4), // 吃卒
		killer,
	}
	for i, m := range want {
		if !moves[i].Equal(m) {
			t.Fatalf("position %d: got %s want %s (order %v)", i, moves[i], m, moves)
		}
	}
}

func TestKillersAndHistoryAging(t *testing.T) {
	mo := newMoveOrderer()
	a := xiangqi.NewMove(9, 0, 8, 0)
	b := xiangqi.NewMove(9, 8, 8, 8)
	mo.recordCutoff(xiangqi.Red, a, 2, 4)
	mo.recordCutoff(xiangqi.Red, b, 2, 4)
	if !mo.killers[4][0].Equal(b) || !mo.killers[4][1].Equal(a) {
		t.Fatalf("killers should be most recent first: %v", mo.killers[4])
	}
	mo.recordCutoff(xiangqi.Red, b, 2, 4)
	if !mo.killers[4][1].Equal(a) {
		t.Fatalf("repeating the first killer must not evict the second")
	}
	if got := mo.history[xiangqi.Red][b.From][b.To]; got != 8 {
		t.Fatalf("history should grow by depth squared, got %d", got)
	}

	mo.history[xiangqi.Red][a.From][a.To] = historyCap
	mo.recordCutoff(xiangqi.Red, a, 2, 5)
	if got := mo.history[xiangqi.Red][a.From][a.To]; got != (historyCap+4)/2 {
		t.Fatalf("history should be halved past the cap, got %d", got)
	}
	if got := mo.history[xiangqi.Red][b.From][b.To]; got != 4 {
		t.Fatalf("aging should halve every entry, got %d", got)
	}
}

// mirror 红黑互换并上下翻转
func mirror(pos *xiangqi.Position) *xiangqi.Position {
	out := xiangqi.NewEmptyPosition(pos.SideToMove.Opponent())
	for r := 0; r < xiangqi.Rows; r++ {
		for c := 0; c < xiangqi.Cols; c++ {
			pc := pos.PieceAt(r, c)
			if pc == 0 {
				continue
			}
			out.Put(xiangqi.Rows-1-r, c, xiangqi.MakePiece(pc.Side().Opponent(), pc.Type()))
		}
	}
	return out
}

func TestEvaluateSymmetry(t *testing.T) {
	if got := Evaluate(xiangqi.NewInitialPosition()); got != 0 {
		t.Fatalf("start position should be balanced, got %d", got)
	}
	for _, fen := range []string{
		"r1bakabr1/9/1cn3nc1/p1p1p1p1p/9/2P6/P3P1P1P/1CN1C1N2/9/R1BAKABR1 b",
		"3aka3/9/4n4/9/9/9/9/9/9/4K1R2 w",
		"2bk5/9/4b4/9/4P4/9/9/4C4/9/5K3 w",
	} {
		pos, _ := xiangqi.DecodePosition(fen)
		if a, b := Evaluate(pos), Evaluate(mirror(pos)); a != -b {
			t.Fatalf("%s: eval %d, mirrored %d", fen, a, b)
		}
	}
}

func TestEvaluateTerminal(t *testing.T) {
	mated, _ := xiangqi.DecodePosition("3k4R/8R/9/9/9/9/9/9/9/5K3 b")
	if got := Evaluate(mated); got != mateScore {
		t.Fatalf("black is mated: got %d want %d", got, mateScore)
	}
	stale, _ := xiangqi.DecodePosition("3k5/8R/9/9/9/9/9/9/9/4K4 b")
	if got := Evaluate(stale); got != 0 {
		t.Fatalf("stalemate should be 0, got %d", got)
	}
	noRed, _ := xiangqi.DecodePosition("4k4/9/9/9/9/9/9/9/9/R8 w")
	if got := Evaluate(noRed); got != -mateScore {
		t.Fatalf("missing red general: got %d", got)
	}
}

func TestEvaluateMaterial(t *testing.T) {
	up, _ := xiangqi.DecodePosition("3k5/9/9/9/9/9/9/9/9/4K3R w")
	if Evaluate(up) < PieceValue(xiangqi.PieceChariot)/2 {
		t.Fatalf("a chariot up should be clearly winning, got %d", Evaluate(up))
	}
	crossed, _ := xiangqi.DecodePosition("3k5/9/9/9/4P4/9/9/9/9/5K3 w")
	home, _ := xiangqi.DecodePosition("3k5/9/9/9/9/9/4P4/9/9/5K3 w")
	if Evaluate(crossed) <= Evaluate(home) {
		t.Fatalf("a soldier past the river should be worth more")
	}
}

func TestBudgetFor(t *testing.T) {
	prev := SearchBudget{}
	for d := Beginner; d <= Master; d++ {
		b := BudgetFor(d, 30, 1, 35, book.TierNone)
		if b.MaxDepth < prev.MaxDepth || b.TimeLimit < prev.TimeLimit {
			t.Fatalf("%v budget %+v is weaker than the previous tier %+v", d, b, prev)
		}
		prev = b
	}

	base := BudgetFor(Medium, 30, 1, 35, book.TierNone)
	for _, tier := range []book.Tier{book.TierSimple, book.TierMedium, book.TierHard} {
		b := BudgetFor(Medium, 30, 1, 35, tier)
		if b.MaxDepth <= base.MaxDepth || b.TimeLimit <= base.TimeLimit {
			t.Fatalf("tier %v should raise the budget: %+v vs %+v", tier, b, base)
		}
	}

	if b := BudgetFor(Hard, 30, 8, 35, book.TierNone); b.MaxDepth != BudgetFor(Hard, 30, 1, 35, book.TierNone).MaxDepth+1 {
		t.Fatalf("parallel workers should add a ply for hard")
	}
	if b := BudgetFor(Medium, 30, 1, 8, book.TierNone); b.MaxDepth <= base.MaxDepth {
		t.Fatalf("narrow positions should search deeper")
	}
	if b := BudgetFor(Difficulty(99), 0, 1, 35, book.TierNone); b.MaxDepth < 1 || b.TimeLimit <= 0 {
		t.Fatalf("invalid difficulty should fall back to a sane budget: %+v", b)
	}
	if b := BudgetFor(Master, 30, 8, 4, book.TierHard); b.MaxDepth > maxBudgetDepth {
		t.Fatalf("depth not capped: %d", b.MaxDepth)
	}
}

func TestParseDifficulty(t *testing.T) {
	for d := Beginner; d <= Master; d++ {
		got, err := ParseDifficulty(d.String())
		if err != nil || got != d {
			t.Fatalf("%v: got %v, %v", d, got, err)
		}
	}
	if got, err := ParseDifficulty(" HARD "); err != nil || got != Hard {
		t.Fatalf("case and spaces should be ignored: %v %v", got, err)
	}
	if _, err := ParseDifficulty("grandmaster"); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

func TestResultCache(t *testing.T) {
	c := newResultCache(2, time.Minute)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	k1 := cacheKey{board: "a", side: xiangqi.Red, difficulty: Easy}
	k2 := cacheKey{board: "a", side: xiangqi.Black, difficulty: Easy}
	k3 := cacheKey{board: "b", side: xiangqi.Red, difficulty: Easy}
	m := xiangqi.NewMove(7, 7, 7, 4)

	c.put(k1, m, 10, 3)
	if e, ok := c.get(k1); !ok || !e.move.Equal(m) || e.depth != 3 {
		t.Fatalf("get after put: %+v %v", e, ok)
	}
	if _, ok := c.get(k2); ok {
		t.Fatalf("side must be part of the key")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.get(k1); ok {
		t.Fatalf("entry should have expired")
	}

	c.put(k2, m, 0, 1)
	if c.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.len())
	}
	c.put(k3, m, 0, 1)
	if c.len() != 1 {
		t.Fatalf("overflow should evict wholesale, got %d", c.len())
	}
	if _, ok := c.get(k3); !ok {
		t.Fatalf("the entry that triggered eviction must be kept")
	}
}
