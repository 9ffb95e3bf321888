package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xiangqi/internal/engine"
	"xiangqi/internal/ucci"
	"xiangqi/internal/xiangqi"
)

// FallbackNote 外部引擎失败、改用内置引擎时附在结果上的说明
const FallbackNote = "fell back to built-in engine"

const SourceExternal = "external"

// ExternalEngine *ucci.Client 满足这个接口
type ExternalEngine interface {
	Init(ctx context.Context) error
	BestMove(ctx context.Context, pos *xiangqi.Position, movetime time.Duration, depth int) (xiangqi.Move, error)
	Close() error
}

// Dialer 启动并返回一个外部引擎连接
type Dialer func(ctx context.Context) (ExternalEngine, error)

// ProcessDialer 用 ucci.Start 启动外部进程；进程活到 AIPlayer.Close 为止
func ProcessDialer(path string, args []string, opts ucci.Options) Dialer {
	return func(context.Context) (ExternalEngine, error) {
		c, err := ucci.Start(context.Background(), path, args, opts)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type AIOptions struct {
	Logger zerolog.Logger
	Engine *engine.Engine

	// External 为 nil 时只用内置引擎
	External Dialer
	MoveTime time.Duration // 外部引擎每步思考时间
	Depth    int

	// DisableOnFailure 外部引擎失败一次就在整个会话里停用；否则下次重新拉起
	DisableOnFailure bool
}

// AIResult 一步电脑着法
type AIResult struct {
	Move   xiangqi.Move
	Found  bool
	Source string
	Note   string
	Search engine.SearchResult // 内置引擎走的才有
}

// AIPlayer 先问外部引擎，失败就退回内置搜索；外部失败永不向上报错
type AIPlayer struct {
	log      zerolog.Logger
	eng      *engine.Engine
	dial     Dialer
	moveTime time.Duration
	depth    int
	disable  bool

	mu       sync.Mutex
	ext      ExternalEngine
	disabled bool
}

func NewAIPlayer(opts AIOptions) *AIPlayer {
	a := &AIPlayer{
		log:      opts.Logger,
		eng:      opts.Engine,
		dial:     opts.External,
		moveTime: opts.MoveTime,
		depth:    opts.Depth,
		disable:  opts.DisableOnFailure,
	}
	if a.eng == nil {
		a.eng = engine.New(engine.Options{Logger: opts.Logger})
	}
	if a.moveTime <= 0 {
		a.moveTime = time.Second
	}
	return a
}

func (a *AIPlayer) Engine() *engine.Engine { return a.eng }

// ExternalUsable 是否还会尝试外部引擎
func (a *AIPlayer) ExternalUsable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dial != nil && !a.disabled
}

// Choose 为 side 选一步。无子可走时 Found=false。
func (a *AIPlayer) Choose(ctx context.Context, pos *xiangqi.Position, side xiangqi.Side, d engine.Difficulty, deadline time.Time) AIResult {
	note := ""
	if m, tried, err := a.tryExternal(ctx, pos, side, deadline); tried {
		if err == nil {
			return AIResult{Move: m, Found: true, Source: SourceExternal}
		}
		a.log.Warn().Err(err).Msg("external engine failed, using built-in search")
		note = FallbackNote
	}

	res := a.eng.FindBestMove(ctx, pos, side, d, deadline)
	return AIResult{
		Move:   res.Move,
		Found:  res.Found,
		Source: res.Source.String(),
		Note:   note,
		Search: res,
	}
}

func (a *AIPlayer) tryExternal(ctx context.Context, pos *xiangqi.Position, side xiangqi.Side, deadline time.Time) (xiangqi.Move, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dial == nil || a.disabled {
		return xiangqi.NoMove, false, nil
	}

	moveTime := a.moveTime
	if !deadline.IsZero() {
		left := time.Until(deadline)
		if left <= 0 {
			return xiangqi.NoMove, false, nil
		}
		if left < moveTime {
			moveTime = left
		}
	}

	root := pos
	if pos.SideToMove != side {
		root = pos.Clone()
		root.SideToMove = side
		root.Hash = root.CalculateHash()
	}
	if !root.HasLegalMove(side) {
		return xiangqi.NoMove, false, nil
	}

	m, err := a.askExternal(ctx, root, moveTime)
	if err != nil {
		a.dropExternal()
		return xiangqi.NoMove, true, err
	}
	return m, true, nil
}

func (a *AIPlayer) askExternal(ctx context.Context, root *xiangqi.Position, moveTime time.Duration) (xiangqi.Move, error) {
	if a.ext == nil {
		ext, err := a.dial(ctx)
		if err != nil {
			return xiangqi.NoMove, fmt.Errorf("start external engine: %w", err)
		}
		a.ext = ext
		if err := ext.Init(ctx); err != nil {
			return xiangqi.NoMove, fmt.Errorf("init external engine: %w", err)
		}
	}
	m, err := a.ext.BestMove(ctx, root, moveTime, a.depth)
	if err != nil {
		return xiangqi.NoMove, err
	}
	if !root.IsLegalMove(m) {
		return xiangqi.NoMove, fmt.Errorf("%w: external engine suggested %s", xiangqi.ErrIllegalMove, m)
	}
	return m, nil
}

// dropExternal 关掉坏掉的连接；按配置决定是否永久停用
func (a *AIPlayer) dropExternal() {
	if a.ext != nil {
		if err := a.ext.Close(); err != nil && !errors.Is(err, ucci.ErrClosed) {
			a.log.Debug().Err(err).Msg("closing failed external engine")
		}
		a.ext = nil
	}
	if a.disable {
		a.disabled = true
		a.log.Warn().Msg("external engine disabled for this session")
	}
}

func (a *AIPlayer) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ext == nil {
		return nil
	}
	err := a.ext.Close()
	a.ext = nil
	return err
}
