package config

import (
	"github.com/rs/zerolog"

	"xiangqi/internal/book"
	"xiangqi/internal/engine"
	"xiangqi/internal/game"
)

// Runtime 按配置装配好的引擎和电脑棋手；用完调 Close
type Runtime struct {
	Engine *engine.Engine
	AI     *game.AIPlayer

	learned book.LearnedStore
}

func (c Config) Build(log zerolog.Logger) (*Runtime, error) {
	opts := engine.Options{
		Logger:            log.With().Str("component", "engine").Logger(),
		Workers:           c.Workers,
		Parallel:          c.Parallel,
		TTMaxEntries:      c.TTMaxEntries,
		CacheSize:         c.CacheSize,
		CacheTTL:          c.CacheTTL(),
		TimeCheckInterval: c.TimeCheckInterval,
		LearnMinDepth:     c.LearnMinDepth,
	}
	if c.UseOpeningBook {
		opts.Book = book.DefaultOpeningBook()
	}
	if c.UseEndgames {
		opts.Endgames = book.DefaultEndgameSet()
	}
	rt := &Runtime{}
	if c.LearnedDir != "" {
		store, err := book.OpenLearned(c.LearnedDir, c.LearnedTTL(), log.With().Str("component", "learned").Logger())
		if err != nil {
			return nil, err
		}
		rt.learned = store
		opts.Learned = store
	}
	rt.Engine = engine.New(opts)

	aiOpts := game.AIOptions{
		Logger:           log.With().Str("component", "ai").Logger(),
		Engine:           rt.Engine,
		MoveTime:         c.External.MoveTime(),
		Depth:            c.External.Depth,
		DisableOnFailure: c.External.DisableOnFailure,
	}
	if c.External.Enabled() {
		aiOpts.External = game.ProcessDialer(c.External.Path, c.External.Args, c.External.UCCIOptions(log))
	}
	rt.AI = game.NewAIPlayer(aiOpts)
	return rt, nil
}

func (rt *Runtime) Close() error {
	err := rt.AI.Close()
	if rt.learned != nil {
		if lerr := rt.learned.Close(); lerr != nil && err == nil {
			err = lerr
		}
	}
	return err
}
