package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// InMemoryDir 作为目录名时，badger 只在内存里运行
const InMemoryDir = ":memory:"

const learnedPrefix = "learned/"

// LearnedMove 一次深搜得出的决定性结论
type LearnedMove struct {
	Move  string `json:"move"`
	Score int    `json:"score"`
	Depth int    `json:"depth"`
}

// LearnedStore 以局面编码（含走子方）为键
type LearnedStore interface {
	Get(key string) (LearnedMove, bool, error)
	Put(key string, lm LearnedMove) error
	Close() error
}

// BadgerLearned badger 持久化的学习库，条目带 TTL
type BadgerLearned struct {
	db  *badger.DB
	ttl time.Duration
	log zerolog.Logger
}

// OpenLearned 打开（或创建）dir 下的学习库；dir 为 InMemoryDir 时不落盘
func OpenLearned(dir string, ttl time.Duration, log zerolog.Logger) (*BadgerLearned, error) {
	if dir == "" {
		return nil, errors.New("learned store: empty directory")
	}
	opts := badger.DefaultOptions(dir)
	if dir == InMemoryDir {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // badger 自己的日志太吵

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("learned store: open %s: %w", dir, err)
	}
	log.Debug().Str("dir", dir).Dur("ttl", ttl).Msg("learned store opened")
	return &BadgerLearned{db: db, ttl: ttl, log: log}, nil
}

func (s *BadgerLearned) Get(key string) (LearnedMove, bool, error) {
	var lm LearnedMove
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(learnedPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &lm)
		})
	})
	if err != nil {
		return LearnedMove{}, false, fmt.Errorf("learned store: get: %w", err)
	}
	return lm, found, nil
}

// Put 写入；已有条目只在新结果不浅于旧结果时覆盖
func (s *BadgerLearned) Put(key string, lm LearnedMove) error {
	data, err := json.Marshal(lm)
	if err != nil {
		return err
	}
	k := []byte(learnedPrefix + key)
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var old LearnedMove
			if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &old) }); err == nil && old.Depth > lm.Depth {
				return nil
			}
		}
		e := badger.NewEntry(k, data)
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("learned store: put: %w", err)
	}
	s.log.Debug().Str("key", key).Str("move", lm.Move).Int("depth", lm.Depth).Msg("learned position recorded")
	return nil
}

func (s *BadgerLearned) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MemoryLearned 纯内存实现，不过期
type MemoryLearned struct {
	mu sync.RWMutex
	m  map[string]LearnedMove
}

func NewMemoryLearned() *MemoryLearned {
	return &MemoryLearned{m: make(map[string]LearnedMove)}
}

func (s *MemoryLearned) Get(key string) (LearnedMove, bool, error) {
	s.mu.RLock()
	lm, ok := s.m[key]
	s.mu.RUnlock()
	return lm, ok, nil
}

func (s *MemoryLearned) Put(key string, lm LearnedMove) error {
	s.mu.Lock()
	if old, ok := s.m[key]; !ok || lm.Depth >= old.Depth {
		s.m[key] = lm
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryLearned) Close() error { return nil }

func (s *MemoryLearned) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
