package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameOver     = errors.New("game is over")
)

type session struct {
	mu         sync.Mutex // 同一盘棋的操作串行；电脑思考时只锁这一盘
	id         string
	pos        *xiangqi.Position
	difficulty engine.Difficulty
	createdAt  time.Time
	updatedAt  time.Time
}

func (s *session) snapshot() *GameState {
	return &GameState{
		ID:         s.id,
		Pos:        s.pos.Clone(),
		Difficulty: s.difficulty,
		Status:     statusOf(s.pos),
		CreatedAt:  s.createdAt,
		UpdatedAt:  s.updatedAt,
	}
}

// Manager 内存里的对局表
type Manager struct {
	log zerolog.Logger
	ai  *AIPlayer

	mu    sync.RWMutex
	games map[string]*session
}

func NewManager(ai *AIPlayer, log zerolog.Logger) *Manager {
	if ai == nil {
		ai = NewAIPlayer(AIOptions{Logger: log})
	}
	return &Manager{log: log, ai: ai, games: make(map[string]*session)}
}

func (m *Manager) NewGame(d engine.Difficulty) *GameState {
	g, _ := m.NewGameFrom(xiangqi.InitialFEN, d)
	return g
}

// NewGameFrom 从紧凑编码开局；编码非法时返回包着 ErrInvalidFEN 的错误
func (m *Manager) NewGameFrom(encoding string, d engine.Difficulty) (*GameState, error) {
	pos, err := xiangqi.DecodePosition(encoding)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &session{
		id:         uuid.NewString(),
		pos:        pos,
		difficulty: d,
		createdAt:  now,
		updatedAt:  now,
	}
	m.mu.Lock()
	m.games[s.id] = s
	m.mu.Unlock()
	m.log.Debug().Str("game", s.id).Stringer("difficulty", d).Msg("new game")
	return s.snapshot(), nil
}

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return s, nil
}

func (m *Manager) Get(id string) (*GameState, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// LegalMoves 当前走子方的全部合法着法
func (m *Manager) LegalMoves(id string) ([]xiangqi.Move, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos.LegalMoves(s.pos.SideToMove), nil
}

// Play 人走一步；非法着法返回包着 xiangqi.ErrIllegalMove 的错误，局面不变
func (m *Manager) Play(id string, mv xiangqi.Move) (*GameState, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos.IsGameOver() {
		return nil, ErrGameOver
	}
	if _, err := s.pos.MakeMove(mv); err != nil {
		return nil, err
	}
	s.updatedAt = time.Now()
	return s.snapshot(), nil
}

// Undo 悔一步
func (m *Manager) Undo(id string) (*GameState, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.pos.UndoLast(); err != nil {
		return nil, err
	}
	s.updatedAt = time.Now()
	return s.snapshot(), nil
}

// AIMove 让电脑替走子方走一步并落子。deadline 为零值时只受难度预算限制。
func (m *Manager) AIMove(ctx context.Context, id string, deadline time.Time) (*GameState, AIResult, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, AIResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos.IsGameOver() {
		return nil, AIResult{}, ErrGameOver
	}

	res := m.ai.Choose(ctx, s.pos, s.pos.SideToMove, s.difficulty, deadline)
	if !res.Found {
		return nil, res, ErrGameOver
	}
	if _, err := s.pos.MakeMove(res.Move); err != nil {
		return nil, res, err
	}
	s.updatedAt = time.Now()
	m.log.Debug().Str("game", id).Str("move", res.Move.String()).Str("source", res.Source).Msg("ai move")
	return s.snapshot(), res, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	delete(m.games, id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
