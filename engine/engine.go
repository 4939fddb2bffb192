// Package engine provides the search, transposition table and history
// heuristic, and the Engine façade that ties board state, evaluation,
// search and the opening book together for a caller such as a protocol
// adapter (itself out of scope here), grounded on the teacher's
// engine.Engine composition.
package engine

import (
	"context"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/hezhaoyun/xiangqigo/book"
	"github.com/hezhaoyun/xiangqigo/common"
)

// Engine is the façade spec.md §6 names: NewEngine, ResetToInitialPosition
// (Reset), Play, Undo, Search and LoadBook. SessionID is an ambient,
// non-functional addition — a per-instance identifier attached to log
// lines, grounded on the pack's other complete Xiangqi repo's pattern of
// minting a uuid.NewString() per game session.
type Engine struct {
	SessionID string

	pos *common.Position
	tt  *TransTable
	bk  *book.Book

	Logger *log.Logger
}

// NewEngine constructs an engine with a ttMegabytes-sized transposition
// table and a Zobrist key table seeded from seed, so that two engines
// built with the same seed search identically, per spec.md §6's
// determinism requirement.
func NewEngine(ttMegabytes int, seed int64) *Engine {
	common.SeedZobrist(seed)
	e := &Engine{
		SessionID: uuid.NewString(),
		pos:       common.SetupInitial(),
		tt:        NewTransTable(ttMegabytes),
		Logger:    log.New(os.Stdout, "", 0),
	}
	return e
}

// ResetToInitialPosition discards all history and returns to the
// standard starting array with Red to move.
func (e *Engine) ResetToInitialPosition() {
	e.pos = common.SetupInitial()
}

// Play applies a move in the external f1r1f2r2 wire format (spec.md §6).
// It returns an *common.IllegalMoveError if the string does not decode to
// one of the current position's legal moves.
func (e *Engine) Play(moveStr string) error {
	m, ok := common.ParseMove(e.pos, moveStr)
	if !ok {
		return &common.IllegalMoveError{Move: moveStr}
	}
	legal := common.GenerateLegalMoves(e.pos, nil)
	found := false
	for _, lm := range legal {
		if lm == m {
			found = true
			break
		}
	}
	if !found {
		return &common.IllegalMoveError{Move: moveStr}
	}
	if !e.pos.MakeMove(m) {
		e.pos.UndoMove()
		return &common.IllegalMoveError{Move: moveStr}
	}
	return nil
}

// String renders the current board as an ASCII diagram via
// common.Position.String, for diagnostics and the CLI's -print flag.
func (e *Engine) String() string {
	return e.pos.String()
}

// Undo reverses the most recently played move.
func (e *Engine) Undo() {
	e.pos.UndoMove()
}

// LoadBook parses data (a fully-read book file) and installs it as the
// engine's opening book adapter. A corrupt file leaves any previously
// loaded book untouched and returns the error, per spec.md §7's
// "fall back to no book" behavior.
func (e *Engine) LoadBook(data []byte) error {
	if err := book.VerifyFile(data); err != nil {
		return err
	}
	b, err := book.Load(data)
	if err != nil {
		return err
	}
	e.bk = b
	return nil
}

// BookMove consults the loaded opening book for the current position,
// returning the chosen move in wire format and true if the book has an
// entry for this position's hash.
func (e *Engine) BookMove() (string, bool) {
	if e.bk == nil {
		return "", false
	}
	from, to, ok := e.bk.Probe(e.pos.Hash, uint64(e.pos.FiftyCounter))
	if !ok {
		return "", false
	}
	m, ok := common.MoveFromSquares(e.pos, from, to)
	if !ok {
		return "", false
	}
	return m.String(), true
}

// Search runs iterative-deepening alpha-beta search from the current
// position under limits, logging one line per improved root move via
// e.Logger in the teacher's "depth D score S nodes N time T pv ..."
// shape, tagged with SessionID so concurrent engine instances in a test
// harness can be told apart in interleaved log output.
func (e *Engine) Search(ctx context.Context, limits SearchLimits) Info {
	s := NewSearch(e.pos, e.tt)
	s.Progress = func(i Info) {
		e.Logger.Printf("[%s] depth %d score %d nodes %d time %dms pv %s",
			e.SessionID, i.Depth, i.Score, i.Nodes, i.TimeMs, formatPV(i.PV))
	}
	return s.Run(ctx, limits)
}

func formatPV(pv []common.Move) string {
	s := ""
	for i, m := range pv {
		if i > 0 {
			s += " "
		}
		s += m.String()
	}
	return s
}
