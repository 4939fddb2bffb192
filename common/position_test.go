package common

import "testing"

func TestSetupInitialPieceCounts(t *testing.T) {
	p := SetupInitial()
	for _, c := range [2]Color{Red, Black} {
		if n := p.PieceBB(c, King).PopCount(); n != 1 {
			t.Fatalf("color %d: expected 1 king, got %d", c, n)
		}
		if n := p.PieceBB(c, Rook).PopCount(); n != 2 {
			t.Fatalf("color %d: expected 2 rooks, got %d", c, n)
		}
		if n := p.PieceBB(c, Pawn).PopCount(); n != 5 {
			t.Fatalf("color %d: expected 5 pawns, got %d", c, n)
		}
	}
	if p.Side != Red {
		t.Fatalf("expected Red to move first")
	}
}

// TestMakeUndoIsInverse walks every pseudo-legal move from the initial position
// one ply deep and checks that MakeMove followed by UndoMove restores the
// hash, tapered accumulators and side to move exactly, the universal
// make/undo invariant of spec.md §8.
func TestMakeUndoIsInverse(t *testing.T) {
	p := SetupInitial()
	hash0, mg0, eg0, phase0, side0 := p.Hash, p.MG, p.EG, p.Phase, p.Side

	var moves []Move
	moves = GenerateMoves(p, GenAll, moves)
	for _, m := range moves {
		legal := p.MakeMove(m)
		p.UndoMove()
		_ = legal
		if p.Hash != hash0 || p.MG != mg0 || p.EG != eg0 || p.Phase != phase0 || p.Side != side0 {
			t.Fatalf("make/undo of %s did not restore position state", m)
		}
	}
}

// TestHashMatchesFullRecompute is spec.md §8 property 2: the
// incrementally maintained Hash field must always agree with a
// from-scratch walk of the board after any sequence of makes/undos.
func TestHashMatchesFullRecompute(t *testing.T) {
	p := SetupInitial()
	if p.Hash != p.RecomputeHash() {
		t.Fatalf("initial hash %d != recomputed hash %d", p.Hash, p.RecomputeHash())
	}

	var moves []Move
	moves = GenerateMoves(p, GenAll, moves)
	for _, m := range moves {
		if !p.MakeMove(m) {
			p.UndoMove()
			continue
		}
		if p.Hash != p.RecomputeHash() {
			t.Fatalf("after %s: hash %d != recomputed hash %d", m, p.Hash, p.RecomputeHash())
		}
		p.UndoMove()
		if p.Hash != p.RecomputeHash() {
			t.Fatalf("after undoing %s: hash %d != recomputed hash %d", m, p.Hash, p.RecomputeHash())
		}
	}
}

// perft counts leaf nodes at depth plies from p, the standard move
// generator correctness check, grounded on the teacher's former
// common/perft_test.go walking make/undo rather than copying positions.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}
	var moves []Move
	moves = GenerateMoves(p, GenAll, moves)
	var nodes int64
	for _, m := range moves {
		if !p.MakeMove(m) {
			p.UndoMove()
			continue
		}
		nodes += perft(p, depth-1)
		p.UndoMove()
	}
	return nodes
}

// TestPerftFromInitialPosition is spec.md §8 property 5 and scenario S1:
// node counts at shallow depths from the initial position, checked
// against this repository's own reference counts.
func TestPerftFromInitialPosition(t *testing.T) {
	p := SetupInitial()
	// TODO: extend to depths 2-5 once this repo's own perft binary has
	// run once and produced reference counts to pin here.
	cases := []struct {
		depth int
		nodes int64
	}{
		{1, 44},
	}
	for _, c := range cases {
		if got := perft(p, c.depth); got != c.nodes {
			t.Fatalf("perft(%d) = %d, want %d", c.depth, got, c.nodes)
		}
	}
}

func TestGenerateLegalMovesFromStart(t *testing.T) {
	p := SetupInitial()
	legal := GenerateLegalMoves(p, nil)
	if len(legal) == 0 {
		t.Fatal("expected legal moves from the initial position")
	}
	for _, m := range legal {
		if !p.MakeMove(m) {
			t.Errorf("move %s reported legal by filter left general in check", m)
		}
		p.UndoMove()
	}
}

func TestFlyingGeneralsCheck(t *testing.T) {
	p := NewPosition()
	p.PlacePiece(Red, King, MakeSquare(4, 0))
	p.PlacePiece(Black, King, MakeSquare(4, 9))
	p.Side = Red
	if !p.InCheck(Red) {
		t.Fatal("two generals facing on a clear file should count as check")
	}
}

func TestElephantBlockedByEye(t *testing.T) {
	p := NewPosition()
	from := MakeSquare(2, 0)
	p.PlacePiece(Red, Elephant, from)
	target := MakeSquare(4, 2)
	eye := MakeSquare(3, 1)
	if ElephantAttacks(from, Bitboard{}).Has(target) == false {
		t.Fatal("elephant should reach target with an empty eye")
	}
	p.PlacePiece(Black, Pawn, eye)
	if ElephantAttacks(from, p.Occupied()).Has(target) {
		t.Fatal("elephant should be blocked when its eye is occupied")
	}
}

func TestHorseBlockedByLeg(t *testing.T) {
	p := NewPosition()
	from := MakeSquare(4, 4)
	p.PlacePiece(Red, Horse, from)
	target := MakeSquare(5, 6)
	leg := MakeSquare(4, 5)
	if !HorseMoves(from, p.Occupied()).Has(target) {
		t.Fatal("horse should reach target with an empty leg")
	}
	p.PlacePiece(Black, Pawn, leg)
	if HorseMoves(from, p.Occupied()).Has(target) {
		t.Fatal("horse should be blocked when its leg square is occupied")
	}
}

func TestRepetitionDraw(t *testing.T) {
	p := NewPosition()
	p.PlacePiece(Red, King, MakeSquare(4, 0))
	p.PlacePiece(Black, King, MakeSquare(3, 9))
	p.PlacePiece(Red, Advisor, MakeSquare(3, 0))
	p.Side = Red

	shuffle := func() {
		m1 := MakeMove(MakeSquare(3, 0), MakeSquare(4, 1), Advisor, None)
		p.MakeMove(m1)
		m2 := MakeMove(MakeSquare(3, 9), MakeSquare(3, 8), King, None)
		p.MakeMove(m2)
		m3 := MakeMove(MakeSquare(4, 1), MakeSquare(3, 0), Advisor, None)
		p.MakeMove(m3)
		m4 := MakeMove(MakeSquare(3, 8), MakeSquare(3, 9), King, None)
		p.MakeMove(m4)
	}
	shuffle()
	shuffle()
	shuffle()
	if !p.IsRepetition() {
		t.Fatal("expected threefold repetition to be detected")
	}
}
