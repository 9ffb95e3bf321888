package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"xiangqi/internal/book"
	"xiangqi/internal/engine"
	"xiangqi/internal/xiangqi"
)

func main() {
	fen := flag.String("fen", xiangqi.InitialFEN, "position in compact board encoding")
	perft := flag.Int("perft", 3, "perft depth (0 to skip)")
	flag.Parse()

	pos, err := xiangqi.DecodePosition(*fen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("FEN:", pos.Encode())
	moves := pos.LegalMoves(pos.SideToMove)
	fmt.Println("Legal moves:", len(moves))
	fmt.Println("In check:", pos.IsInCheck(pos.SideToMove))
	fmt.Println("Eval (red):", engine.Evaluate(pos))
	fmt.Println("Complexity:", book.ComplexityScore(pos.BoardKey()))
	if w, ok := pos.Winner(); ok {
		fmt.Println("Winner:", w)
	}

	for d := 1; d <= *perft; d++ {
		start := time.Now()
		n := pos.Perft(d)
		fmt.Printf("perft(%d) = %d (%v)\n", d, n, time.Since(start).Round(time.Millisecond))
	}
}
