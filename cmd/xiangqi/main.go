// Command xiangqi is the minimal composition root spec.md §1 allows: it
// wires Engine, an optional opening book and a search budget together
// and runs one search, the way a UCI front end would without
// implementing the protocol itself (explicitly out of scope).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hezhaoyun/xiangqigo/engine"
)

func main() {
	var (
		bookPath = flag.String("book", "", "path to an opening book file")
		ttMB     = flag.Int("ttmb", 64, "transposition table size in megabytes")
		seed     = flag.Int64("seed", 0, "Zobrist key seed, for reproducible runs")
		depth    = flag.Int("depth", 0, "maximum search depth (0 = unbounded)")
		moveTime = flag.Duration("movetime", 5*time.Second, "search time budget")
		moves    = flag.String("moves", "", "comma-separated f1r1f2r2 moves to play before searching")
		print    = flag.Bool("print", false, "print an ASCII board diagram before searching")
	)
	flag.Parse()

	e := engine.NewEngine(*ttMB, *seed)
	e.ResetToInitialPosition()

	if *bookPath != "" {
		data, err := os.ReadFile(*bookPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read book:", err)
			os.Exit(1)
		}
		if err := e.LoadBook(data); err != nil {
			fmt.Fprintln(os.Stderr, "load book:", err)
			os.Exit(1)
		}
	}

	if *moves != "" {
		for _, mv := range splitNonEmpty(*moves, ',') {
			if err := e.Play(mv); err != nil {
				fmt.Fprintln(os.Stderr, "play:", err)
				os.Exit(1)
			}
		}
	}

	if *print {
		fmt.Print(e.String())
	}

	if mv, ok := e.BookMove(); ok {
		fmt.Println("book move:", mv)
		return
	}

	info := e.Search(context.Background(), engine.SearchLimits{
		MoveTime: *moveTime,
		Depth:    *depth,
	})
	fmt.Printf("depth %d score %d nodes %d time %dms pv", info.Depth, info.Score, info.Nodes, info.TimeMs)
	for _, m := range info.PV {
		fmt.Printf(" %s", m)
	}
	fmt.Println()
}

func splitNonEmpty(s string, sep byte) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
