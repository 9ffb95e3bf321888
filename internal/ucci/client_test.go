package ucci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"xiangqi/internal/xiangqi"
)

// fakeEngine 进程内的假引擎：读客户端发来的命令，按 handle 回复
type fakeEngine struct {
	out *io.PipeWriter

	mu  sync.Mutex
	got []string
}

func (f *fakeEngine) reply(lines ...string) {
	for _, l := range lines {
		fmt.Fprintln(f.out, l)
	}
}

func (f *fakeEngine) hangup() { f.out.Close() }

func (f *fakeEngine) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.got...)
}

func startFake(t *testing.T, dialect Dialect, handle func(f *fakeEngine, cmd string)) (*Client, *fakeEngine) {
	t.Helper()
	cmdR, cmdW := io.Pipe()
	outR, outW := io.Pipe()
	f := &fakeEngine{out: outW}
	go func() {
		defer outW.Close()
		sc := bufio.NewScanner(cmdR)
		for sc.Scan() {
			cmd := sc.Text()
			f.mu.Lock()
			f.got = append(f.got, cmd)
			f.mu.Unlock()
			handle(f, cmd)
		}
	}()
	c := NewClient(outR, cmdW, Options{Dialect: dialect, Timeout: 300 * time.Millisecond})
	t.Cleanup(func() { c.Close() })
	return c, f
}

// answering 正常应答，go 之后先吐几行 info 再给 bestmove
func answering(bestmove string) func(f *fakeEngine, cmd string) {
	return func(f *fakeEngine, cmd string) {
		switch strings.Fields(cmd)[0] {
		case "uci":
			f.reply("id name fake", "option name Hash type spin default 16", "uciok")
		case "ucci":
			f.reply("id name fake", "ucciok")
		case "isready":
			f.reply("readyok")
		case "go":
			f.reply("info depth 1 score cp 12 pv "+bestmove, "info depth 2 score cp 8", "bestmove "+bestmove+" ponder h9g7")
		}
	}
}

func TestInitAndBestMove(t *testing.T) {
	c, f := startFake(t, DialectUCI, answering("h2e2"))
	ctx := context.Background()
	if c.State() != StateUninitialized {
		t.Fatalf("new client state = %v", c.State())
	}
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("state after Init = %v", c.State())
	}

	pos := xiangqi.NewInitialPosition()
	m, err := c.BestMove(ctx, pos, 100*time.Millisecond, 3)
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if m.String() != "h2e2" {
		t.Fatalf("got %s want h2e2", m)
	}
	if c.State() != StateReady {
		t.Fatalf("state after BestMove = %v", c.State())
	}

	cmds := strings.Join(f.commands(), "\n")
	for _, want := range []string{
		"uci",
		"isready",
		"position fen " + xiangqi.InitialFEN + " - - 0 1",
		"go movetime 100 depth 3",
	} {
		if !strings.Contains(cmds, want) {
			t.Fatalf("engine never received %q; got:\n%s", want, cmds)
		}
	}
}

func TestUCCIHandshake(t *testing.T) {
	c, f := startFake(t, DialectUCCI, answering("b0c2"))
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := f.commands(); len(got) == 0 || got[0] != "ucci" {
		t.Fatalf("first command = %v, want ucci", got)
	}
	m, err := c.BestMove(context.Background(), xiangqi.NewInitialPosition(), 0, 4)
	if err != nil || m.String() != "b0c2" {
		t.Fatalf("BestMove = %s, %v", m, err)
	}
}

func TestInitTimeoutMarksUnusable(t *testing.T) {
	c, _ := startFake(t, DialectUCI, func(*fakeEngine, string) {})
	err := c.Init(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %v, want failed", c.State())
	}
	if _, err := c.BestMove(context.Background(), xiangqi.NewInitialPosition(), 0, 1); !errors.Is(err, ErrUnusable) {
		t.Fatalf("expected ErrUnusable, got %v", err)
	}
	if err := c.Init(context.Background()); !errors.Is(err, ErrUnusable) {
		t.Fatalf("re-Init should not revive the engine: %v", err)
	}
}

func TestBestMoveBeforeInit(t *testing.T) {
	c, _ := startFake(t, DialectUCI, answering("h2e2"))
	if _, err := c.BestMove(context.Background(), xiangqi.NewInitialPosition(), 0, 1); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestBadReplies(t *testing.T) {
	cases := []struct {
		name   string
		handle func(f *fakeEngine, cmd string)
		want   error
	}{
		{"garbage move", answering("zz99"), ErrProtocol},
		{"illegal move", answering("e5e4"), ErrProtocol},
		{"no move", answering("(none)"), ErrProtocol},
		{"engine exits", func(f *fakeEngine, cmd string) {
			if strings.HasPrefix(cmd, "go") {
				f.hangup()
				return
			}
			answering("h2e2")(f, cmd)
		}, ErrProtocol},
		{"never answers", func(f *fakeEngine, cmd string) {
			if !strings.HasPrefix(cmd, "go") {
				answering("h2e2")(f, cmd)
			}
		}, ErrTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := startFake(t, DialectUCI, tc.handle)
			if err := c.Init(context.Background()); err != nil {
				t.Fatalf("Init: %v", err)
			}
			m, err := c.BestMove(context.Background(), xiangqi.NewInitialPosition(), 10*time.Millisecond, 1)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v (move %s)", tc.want, err, m)
			}
			if !m.IsNone() {
				t.Fatalf("failed call returned a move: %s", m)
			}
			if c.State() != StateFailed {
				t.Fatalf("state = %v, want failed", c.State())
			}
		})
	}
}

func TestBestMoveHonoursContext(t *testing.T) {
	c, _ := startFake(t, DialectUCI, func(f *fakeEngine, cmd string) {
		if !strings.HasPrefix(cmd, "go") {
			answering("h2e2")(f, cmd)
		}
	})
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.BestMove(ctx, xiangqi.NewInitialPosition(), time.Second, 0); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestClosedClient(t *testing.T) {
	c, f := startFake(t, DialectUCI, answering("h2e2"))
	if err := c.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if c.State() != StateClosed {
		t.Fatalf("state = %v", c.State())
	}
	if _, err := c.BestMove(context.Background(), xiangqi.NewInitialPosition(), 0, 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	// 假引擎异步记录命令，稍等一下
	deadline := time.Now().Add(time.Second)
	for {
		got := f.commands()
		if got[len(got)-1] == "quit" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("last command = %q, want quit", got[len(got)-1])
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCommands(t *testing.T) {
	if got := GoCommand(0, 5); got != "go depth 5" {
		t.Fatalf("GoCommand depth only = %q", got)
	}
	if got := GoCommand(1500*time.Millisecond, 0); got != "go movetime 1500" {
		t.Fatalf("GoCommand movetime only = %q", got)
	}
	pos := xiangqi.NewInitialPosition()
	pos, _ = pos.ApplyMove(xiangqi.NewMove(7, 7, 7, 4))
	pos, _ = pos.ApplyMove(xiangqi.NewMove(0, 7, 2, 6))
	want := "position fen " + pos.Encode() + " - - 0 2"
	if got := PositionCommand(pos); got != want {
		t.Fatalf("PositionCommand = %q want %q", got, want)
	}
	for _, s := range []string{"uci", "UCCI", ""} {
		if _, err := ParseDialect(s); err != nil {
			t.Fatalf("ParseDialect(%q): %v", s, err)
		}
	}
	if _, err := ParseDialect("xboard"); err == nil {
		t.Fatalf("expected error for unknown dialect")
	}
}

func TestStalledStdinTimesOut(t *testing.T) {
	// 没人读命令管道，写会一直卡住
	_, cmdW := io.Pipe()
	outR, outW := io.Pipe()
	defer outW.Close()
	c := NewClient(outR, cmdW, Options{Timeout: 100 * time.Millisecond})

	done := make(chan error, 1)
	go func() { done <- c.Init(context.Background()) }()
	select {
	case err := <-done:
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Init blocked on a stalled write")
	}
	if c.State() != StateFailed {
		t.Fatalf("state = %v, want failed", c.State())
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close blocked")
	}
}
