package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"xiangqi/internal/engine"
	"xiangqi/internal/ucci"
)

type Config struct {
	Difficulty string `json:"difficulty"`

	Workers         int  `json:"workers"` // <=0 取硬件并行度减一
	Parallel        bool `json:"parallel"`
	TTMaxEntries    int  `json:"tt_max_entries"`
	CacheSize       int  `json:"cache_size"`
	CacheTTLSeconds int  `json:"cache_ttl_seconds"`

	UseOpeningBook bool `json:"use_opening_book"`
	UseEndgames    bool `json:"use_endgames"`

	// LearnedDir 空串关闭学习库；":memory:" 只放内存
	LearnedDir        string `json:"learned_dir"`
	LearnedTTLHours   int    `json:"learned_ttl_hours"`
	LearnMinDepth     int    `json:"learn_min_depth"`
	TimeCheckInterval int    `json:"time_check_interval"`

	External ExternalConfig `json:"external"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // console | json
}

// ExternalConfig 外部引擎；Path 为空表示不用
type ExternalConfig struct {
	Path             string   `json:"path"`
	Args             []string `json:"args"`
	Dialect          string   `json:"dialect"` // uci | ucci
	TimeoutMs        int      `json:"timeout_ms"`
	MoveTimeMs       int      `json:"move_time_ms"`
	Depth            int      `json:"depth"`
	DisableOnFailure bool     `json:"disable_on_failure"`
}

func DefaultConfig() Config {
	return Config{
		Difficulty: "medium",

		Workers:         0,
		Parallel:        true,
		TTMaxEntries:    1_000_000,
		CacheSize:       4096,
		CacheTTLSeconds: 600,

		UseOpeningBook: true,
		UseEndgames:    true,

		LearnedDir:        "",
		LearnedTTLHours:   24 * 30,
		LearnMinDepth:     4,
		TimeCheckInterval: engine.DefaultTimeCheckInterval,

		External: ExternalConfig{
			Dialect:          "uci",
			TimeoutMs:        int(ucci.DefaultTimeout / time.Millisecond),
			MoveTimeMs:       1000,
			DisableOnFailure: true,
		},

		LogLevel:  "info",
		LogFormat: "console",
	}
}

// Load 读 JSON 配置；未出现的字段保留默认值。path 为空或文件不存在时返回默认配置。
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := engine.ParseDifficulty(c.Difficulty); err != nil {
		return err
	}
	if c.TTMaxEntries < 0 || c.CacheSize < 0 || c.CacheTTLSeconds < 0 {
		return errors.New("config: cache sizes must not be negative")
	}
	if c.LearnedTTLHours < 0 || c.LearnMinDepth < 0 {
		return errors.New("config: learned store settings must not be negative")
	}
	if n := c.TimeCheckInterval; n < 0 || (n > 0 && n&(n-1) != 0) {
		return fmt.Errorf("config: time_check_interval %d is not a power of two", n)
	}
	if _, err := ucci.ParseDialect(c.External.Dialect); err != nil {
		return err
	}
	if c.External.TimeoutMs < 0 || c.External.MoveTimeMs < 0 || c.External.Depth < 0 {
		return errors.New("config: external engine limits must not be negative")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

func (c Config) DifficultyLevel() engine.Difficulty {
	d, _ := engine.ParseDifficulty(c.Difficulty)
	return d
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) LearnedTTL() time.Duration {
	return time.Duration(c.LearnedTTLHours) * time.Hour
}

func (e ExternalConfig) Enabled() bool { return e.Path != "" }

func (e ExternalConfig) UCCIOptions(log zerolog.Logger) ucci.Options {
	d, _ := ucci.ParseDialect(e.Dialect)
	return ucci.Options{
		Logger:  log.With().Str("component", "external").Logger(),
		Dialect: d,
		Timeout: time.Duration(e.TimeoutMs) * time.Millisecond,
	}
}

func (e ExternalConfig) MoveTime() time.Duration {
	return time.Duration(e.MoveTimeMs) * time.Millisecond
}

// NewLogger 按配置构造日志；console 格式写到 w 上的 ConsoleWriter
func NewLogger(c Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.LogFormat == "json" {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
