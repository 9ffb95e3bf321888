package engine

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"xiangqi/internal/book"
)

// DefaultTimeCheckInterval 每搜多少个节点看一次钟，必须是 2 的幂
const DefaultTimeCheckInterval = 1024

// Options 构造 Engine 用的全部依赖；零值可用
type Options struct {
	Logger zerolog.Logger

	// Rand 为 nil 时用系统熵初始化；测试里传 frand.NewCustom 的固定种子
	Rand *frand.RNG

	Workers      int  // 并行根节点的工作协程数，<=0 时取 max(2, NumCPU-1)
	Parallel     bool // 是否允许并行根节点
	TTMaxEntries int

	CacheSize int
	CacheTTL  time.Duration

	TimeCheckInterval int

	Book     *book.OpeningBook
	Endgames *book.EndgameSet
	Learned  book.LearnedStore

	// LearnMinDepth 只有不浅于这个深度的决定性结果才写入学习库
	LearnMinDepth int
}

// Engine 显式的搜索上下文：缓存、开局库、残局表、学习库、随机数都挂在这里，
// 每次顶层搜索再各自建 TT / 杀手 / 历史表。
type Engine struct {
	log zerolog.Logger

	rngMu sync.Mutex
	rng   *frand.RNG

	workers      int
	parallel     bool
	ttMaxEntries int
	checkMask    int64

	cache    *resultCache
	book     *book.OpeningBook
	endgames *book.EndgameSet
	learned  book.LearnedStore

	learnMinDepth int
}

func New(opts Options) *Engine {
	e := &Engine{
		log:           opts.Logger,
		rng:           opts.Rand,
		workers:       opts.Workers,
		parallel:      opts.Parallel,
		ttMaxEntries:  opts.TTMaxEntries,
		book:          opts.Book,
		endgames:      opts.Endgames,
		learned:       opts.Learned,
		learnMinDepth: opts.LearnMinDepth,
	}
	if e.rng == nil {
		e.rng = frand.New()
	}
	if e.workers <= 0 {
		e.workers = DefaultWorkers()
	}
	if e.ttMaxEntries <= 0 {
		e.ttMaxEntries = defaultTTEntries
	}
	if e.learnMinDepth <= 0 {
		e.learnMinDepth = 4
	}
	interval := opts.TimeCheckInterval
	if interval <= 0 || interval&(interval-1) != 0 {
		interval = DefaultTimeCheckInterval
	}
	e.checkMask = int64(interval - 1)
	e.cache = newResultCache(opts.CacheSize, opts.CacheTTL)
	return e
}

// DefaultWorkers 硬件并行度减一，至少 2
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n < 2 {
		n = 2
	}
	return n
}

func (e *Engine) Workers() int { return e.workers }

// Intn 加锁的随机数；frand.RNG 本身不是并发安全的
func (e *Engine) Intn(n int) int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.rng.Intn(n)
}

// ClearCache 清空跨调用的结果缓存
func (e *Engine) ClearCache() {
	e.cache.clear()
}
