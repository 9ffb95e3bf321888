package main

import (
	"flag"
	"fmt"
	"os"

	"xiangqi/internal/config"
	"xiangqi/internal/engine"
)

type PlayerConfig struct {
	Name       string
	Difficulty engine.Difficulty
}

func main() {
	cfgPath := flag.String("config", "", "path to JSON config file")
	totalGames := flag.Int("games", 4, "number of games to play")
	redLevel := flag.String("a", "easy", "difficulty of player A")
	blackLevel := flag.String("b", "medium", "difficulty of player B")
	maxMoves := flag.Int("maxmoves", 200, "max plies per game before it is scored a draw")
	parallel := flag.Bool("parallel", true, "allow parallel root search")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg.Parallel = *parallel
	log := config.NewLogger(cfg, os.Stderr)

	a, err := engine.ParseDifficulty(*redLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("player A")
	}
	b, err := engine.ParseDifficulty(*blackLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("player B")
	}

	rt, err := cfg.Build(log)
	if err != nil {
		log.Fatal().Err(err).Msg("build engine")
	}
	defer rt.Close()

	playerA := PlayerConfig{Name: "A (" + a.String() + ")", Difficulty: a}
	playerB := PlayerConfig{Name: "B (" + b.String() + ")", Difficulty: b}

	aWins, bWins, draws := 0, 0, 0
	for g := 0; g < *totalGames; g++ {
		// 轮流执红
		red, black := playerA, playerB
		if g%2 == 1 {
			red, black = playerB, playerA
		}
		fmt.Printf("\n=== Game %d: Red [%s] vs Black [%s] ===\n", g+1, red.Name, black.Name)

		out := playGame(rt, red, black, *maxMoves, log)
		switch {
		case !out.decided:
			draws++
			fmt.Printf("Result: Draw after %d plies (%s)\n", out.plies, out.reason)
		case out.redWon == (g%2 == 0):
			aWins++
			fmt.Printf("Result: %s wins in %d plies\n", playerA.Name, out.plies)
		default:
			bWins++
			fmt.Printf("Result: %s wins in %d plies\n", playerB.Name, out.plies)
		}
	}

	fmt.Printf("\n=== Final Score ===\n")
	fmt.Printf("%s: %d\n", playerA.Name, aWins)
	fmt.Printf("%s: %d\n", playerB.Name, bWins)
	fmt.Printf("Draws: %d\n", draws)
}
