package ucci

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// 子进程收到 quit 后最多等这么久，之后直接杀掉
const quitGrace = 2 * time.Second

// Start 启动外部引擎进程并返回未握手的 Client；ctx 结束时进程被杀掉
func Start(ctx context.Context, path string, args []string, opts Options) (*Client, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ucci: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ucci: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ucci: start %s: %w", path, err)
	}
	opts.Logger.Info().Str("path", path).Int("pid", cmd.Process.Pid).Msg("external engine started")

	c := NewClient(stdout, stdin, opts)
	c.wait = func() error {
		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()
		select {
		case err := <-exited:
			return err
		case <-time.After(quitGrace):
			_ = cmd.Process.Kill()
			return <-exited
		}
	}
	return c, nil
}
