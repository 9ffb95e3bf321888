package ucci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xiangqi/internal/xiangqi"
)

var (
	ErrTimeout  = errors.New("ucci: timed out waiting for engine")
	ErrProtocol = errors.New("ucci: protocol violation")
	ErrNotReady = errors.New("ucci: engine not initialized")
	ErrUnusable = errors.New("ucci: engine marked unusable")
	ErrClosed   = errors.New("ucci: client closed")
)

// Dialect 握手用的命令族：UCI（皮卡鱼等）或 UCCI（象眼等）
type Dialect int

const (
	DialectUCI Dialect = iota
	DialectUCCI
)

func (d Dialect) String() string {
	if d == DialectUCCI {
		return "ucci"
	}
	return "uci"
}

// handshake 返回握手命令和期待的应答
func (d Dialect) handshake() (cmd, ok string) {
	if d == DialectUCCI {
		return "ucci", "ucciok"
	}
	return "uci", "uciok"
}

func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uci":
		return DialectUCI, nil
	case "ucci":
		return DialectUCCI, nil
	}
	return DialectUCI, fmt.Errorf("unknown engine dialect %q", s)
}

// State 协议状态机
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateSearching
	StateFailed
	StateClosed
)

var stateNames = [...]string{"uninitialized", "ready", "searching", "failed", "closed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

const (
	DefaultTimeout = 5 * time.Second
	lineBuffer     = 64
)

type Options struct {
	Logger  zerolog.Logger
	Dialect Dialect

	// Timeout 每次等待应答的上限；等 bestmove 时再加上 movetime
	Timeout time.Duration
}

// Client 一个长期存活的外部引擎连接。所有读都经过后台读协程，
// 调用方用 select + 计时器等待，不会无限阻塞。
type Client struct {
	log     zerolog.Logger
	dialect Dialect
	timeout time.Duration

	mu    sync.Mutex // 串行化命令
	state State
	w     io.WriteCloser

	lines   chan string
	readErr error // lines 关闭前写入
	done    chan struct{}

	closeOnce sync.Once
	wait      func() error // 进程模式下等待子进程退出
}

// NewClient 接管 r / w 并启动读协程
func NewClient(r io.Reader, w io.WriteCloser, opts Options) *Client {
	c := &Client{
		log:     opts.Logger,
		dialect: opts.Dialect,
		timeout: opts.Timeout,
		w:       w,
		lines:   make(chan string, lineBuffer),
		done:    make(chan struct{}),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	go c.readLoop(r)
	return c
}

func (c *Client) readLoop(r io.Reader) {
	sc := bufio.NewScanner(r)
	defer close(c.lines)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case c.lines <- line:
		case <-c.done:
			c.readErr = ErrClosed
			return
		}
	}
	if err := sc.Err(); err != nil {
		c.readErr = err
		return
	}
	c.readErr = io.EOF
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Init 握手 + isready。失败后客户端永久不可用。
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateFailed:
		return ErrUnusable
	case StateReady:
		return nil
	}
	cmd, ok := c.dialect.handshake()
	if err := c.send(cmd); err != nil {
		return c.fail(err)
	}
	if _, err := c.waitFor(ctx, c.timeout, exactToken(ok)); err != nil {
		return c.fail(err)
	}
	if err := c.syncReady(ctx); err != nil {
		return c.fail(err)
	}
	c.state = StateReady
	c.log.Debug().Stringer("dialect", c.dialect).Msg("external engine ready")
	return nil
}

// BestMove 送局面并让引擎思考；movetime<=0 或 depth<=0 时省略对应参数。
// 返回的着法已经过规则引擎确认。
func (c *Client) BestMove(ctx context.Context, pos *xiangqi.Position, movetime time.Duration, depth int) (xiangqi.Move, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return xiangqi.NoMove, ErrClosed
	case StateFailed:
		return xiangqi.NoMove, ErrUnusable
	case StateUninitialized:
		return xiangqi.NoMove, ErrNotReady
	}

	if err := c.syncReady(ctx); err != nil {
		return xiangqi.NoMove, c.fail(err)
	}
	if err := c.send(PositionCommand(pos)); err != nil {
		return xiangqi.NoMove, c.fail(err)
	}
	if err := c.send(GoCommand(movetime, depth)); err != nil {
		return xiangqi.NoMove, c.fail(err)
	}
	c.state = StateSearching

	wait := c.timeout
	if movetime > 0 {
		wait += movetime
	}
	line, err := c.waitFor(ctx, wait, func(l string) bool { return strings.HasPrefix(l, "bestmove") })
	if err != nil {
		return xiangqi.NoMove, c.fail(err)
	}
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" {
		return xiangqi.NoMove, c.fail(fmt.Errorf("%w: %q", ErrProtocol, line))
	}
	m, err := DecodeMove(pos, fields[1])
	if err != nil {
		return xiangqi.NoMove, c.fail(err)
	}
	c.state = StateReady
	c.log.Debug().Str("bestmove", fields[1]).Str("move", m.String()).Msg("external engine answered")
	return m, nil
}

// Close 发 quit 并关闭写端；进程模式下等子进程退出
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if c.state != StateFailed {
			_ = c.send("quit")
		}
		c.state = StateClosed
		c.mu.Unlock()

		close(c.done)
		err = c.w.Close()
		if c.wait != nil {
			if werr := c.wait(); werr != nil && err == nil {
				err = werr
			}
		}
	})
	return err
}

func (c *Client) syncReady(ctx context.Context) error {
	if err := c.send("isready"); err != nil {
		return err
	}
	_, err := c.waitFor(ctx, c.timeout, exactToken("readyok"))
	return err
}

// send 写一行命令。引擎不读 stdin 时写会卡住，所以写也放进协程并受超时约束；
// 超时后连接失效，Close 关掉写端时卡住的写会返回。
func (c *Client) send(cmd string) error {
	c.log.Trace().Str("cmd", cmd).Msg("-> engine")
	written := make(chan error, 1)
	go func() {
		_, err := io.WriteString(c.w, cmd+"\n")
		written <- err
	}()
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case err := <-written:
		if err != nil {
			return fmt.Errorf("ucci: write %q: %w", cmd, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: write %q blocked for %v", ErrTimeout, cmd, c.timeout)
	}
}

// waitFor 丢弃无关行（id / option / info），直到 match 命中、超时、ctx 取消或输出关闭
func (c *Client) waitFor(ctx context.Context, d time.Duration, match func(string) bool) (string, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-c.lines:
			if !ok {
				return "", fmt.Errorf("%w: engine output closed: %v", ErrProtocol, c.readErr)
			}
			c.log.Trace().Str("line", line).Msg("<- engine")
			if match(line) {
				return line, nil
			}
		case <-timer.C:
			return "", fmt.Errorf("%w after %v", ErrTimeout, d)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// fail 任何 I/O 错误、超时或应答错误都让连接永久失效
func (c *Client) fail(err error) error {
	c.state = StateFailed
	c.log.Warn().Err(err).Msg("external engine failed")
	return err
}

func exactToken(tok string) func(string) bool {
	return func(l string) bool {
		f := strings.Fields(l)
		return len(f) > 0 && f[0] == tok
	}
}

// PositionCommand position fen <局面> - - 0 <回合数>
func PositionCommand(pos *xiangqi.Position) string {
	return fmt.Sprintf("position fen %s - - 0 %d", pos.Encode(), pos.MoveCount/2+1)
}

func GoCommand(movetime time.Duration, depth int) string {
	var sb strings.Builder
	sb.WriteString("go")
	if movetime > 0 {
		fmt.Fprintf(&sb, " movetime %d", movetime.Milliseconds())
	}
	if depth > 0 {
		fmt.Fprintf(&sb, " depth %d", depth)
	}
	return sb.String()
}
