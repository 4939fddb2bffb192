package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hezhaoyun/xiangqigo/common"
)

func TestSearchFindsALegalMoveFromStart(t *testing.T) {
	pos := common.SetupInitial()
	tt := NewTransTable(4)
	s := NewSearch(pos, tt)

	info := s.Run(context.Background(), SearchLimits{Depth: 3})
	if len(info.PV) == 0 {
		t.Fatal("expected a non-empty principal variation")
	}

	legal := common.GenerateLegalMoves(pos, nil)
	found := false
	for _, m := range legal {
		if m == info.PV[0] {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("search returned a move not in the legal move list: %s", info.PV[0])
	}
}

func TestSearchRespectsMoveTime(t *testing.T) {
	pos := common.SetupInitial()
	tt := NewTransTable(4)
	s := NewSearch(pos, tt)

	start := time.Now()
	s.Run(context.Background(), SearchLimits{MoveTime: 50 * time.Millisecond})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("search overran its move time budget: %s", elapsed)
	}
}

// TestSearchDetectsMateInOne is spec.md §8 property 7: a constructed
// mate-in-1 position returns a score at or beyond the mate threshold used
// elsewhere in this package (mateIn(MaxPly)) with a one-move PV.
//
// Black has a bare King at (4,9), permanently confined to the middle
// file of its palace because Red Rooks on files 3 and 5 cover both
// flanks. Red's Rook at (2,8) swings onto (4,8), checking the King; the
// King cannot flee to (3,9)/(5,9) (covered by the flank rooks) and
// cannot capture the checking Rook because a Horse at (6,7) covers
// (4,8) as well.
func TestSearchDetectsMateInOne(t *testing.T) {
	p := common.NewPosition()
	p.PlacePiece(common.Red, common.King, common.MakeSquare(0, 0))
	p.PlacePiece(common.Red, common.Rook, common.MakeSquare(3, 5))
	p.PlacePiece(common.Red, common.Rook, common.MakeSquare(5, 5))
	p.PlacePiece(common.Red, common.Rook, common.MakeSquare(2, 8))
	p.PlacePiece(common.Red, common.Horse, common.MakeSquare(6, 7))
	p.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	p.Side = common.Red

	s := NewSearch(p, NewTransTable(4))
	info := s.Run(context.Background(), SearchLimits{Depth: 3})

	if info.Score < mateIn(MaxPly) {
		t.Fatalf("expected a mate score, got %d", info.Score)
	}
	if len(info.PV) != 1 {
		t.Fatalf("expected a one-move PV for mate in 1, got %v", info.PV)
	}
}

// TestSearchDetectsForcedMateWithinThreeMoves exercises the deeper side
// of spec.md §8 property 7 and scenario S6: a forced mate that needs more
// than one Red move still scores at or above MATE-6 (spec.md S6's
// 29994) with a PV no longer than a mate-in-3 would produce (5 plies).
//
// Black again has a bare King, boxed into the middle file by Rooks on
// files 3 and 5. Red's Cannon swings to (4,6); the King's only flight
// square is (4,8), forced. Red's Horse then jumps to (4,7), screening the
// Cannon so it checks the King on (4,8); a second Horse on (2,6) covers
// (4,7) so the King cannot capture the screening Horse, and the Cannon
// covers (4,9) through the same screen, leaving the King with no move.
func TestSearchDetectsForcedMateWithinThreeMoves(t *testing.T) {
	p := common.NewPosition()
	p.PlacePiece(common.Red, common.King, common.MakeSquare(5, 1))
	p.PlacePiece(common.Red, common.Rook, common.MakeSquare(3, 5))
	p.PlacePiece(common.Red, common.Rook, common.MakeSquare(5, 5))
	p.PlacePiece(common.Red, common.Horse, common.MakeSquare(5, 9))
	p.PlacePiece(common.Red, common.Horse, common.MakeSquare(2, 6))
	p.PlacePiece(common.Red, common.Cannon, common.MakeSquare(4, 0))
	p.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	p.Side = common.Red

	s := NewSearch(p, NewTransTable(4))
	info := s.Run(context.Background(), SearchLimits{Depth: 6})

	const mateInThreeFloor = valueMate - 6
	if info.Score < mateInThreeFloor {
		t.Fatalf("expected a forced-mate score >= %d, got %d", mateInThreeFloor, info.Score)
	}
	if len(info.PV) == 0 || len(info.PV) > 5 {
		t.Fatalf("expected a PV no longer than a mate-in-3 (5 plies), got %d moves", len(info.PV))
	}
}

// TestSearchScoresThreefoldRepetitionAsDrawAtRoot is spec.md §8 scenario
// S4: a position that is already a draw by repetition when it is Red's
// turn to move scores 0 regardless of search depth.
func TestSearchScoresThreefoldRepetitionAsDrawAtRoot(t *testing.T) {
	p := common.NewPosition()
	p.PlacePiece(common.Red, common.King, common.MakeSquare(4, 0))
	p.PlacePiece(common.Black, common.King, common.MakeSquare(3, 9))
	p.PlacePiece(common.Red, common.Advisor, common.MakeSquare(3, 0))
	p.Side = common.Red

	shuffle := func() {
		p.MakeMove(common.MakeMove(common.MakeSquare(3, 0), common.MakeSquare(4, 1), common.Advisor, common.None))
		p.MakeMove(common.MakeMove(common.MakeSquare(3, 9), common.MakeSquare(3, 8), common.King, common.None))
		p.MakeMove(common.MakeMove(common.MakeSquare(4, 1), common.MakeSquare(3, 0), common.Advisor, common.None))
		p.MakeMove(common.MakeMove(common.MakeSquare(3, 8), common.MakeSquare(3, 9), common.King, common.None))
	}
	shuffle()
	shuffle()
	shuffle()
	if !p.IsRepetition() {
		t.Fatal("setup failed to reach threefold repetition")
	}

	for _, depth := range []int{1, 5} {
		tt := NewTransTable(4)
		info := NewSearch(p, tt).Run(context.Background(), SearchLimits{Depth: depth})
		if info.Score != valueDraw {
			t.Fatalf("depth %d: expected a draw score at a repeated root, got %d", depth, info.Score)
		}
	}
}

// TestSearchScoresSixtyMoveDrawAtRoot is spec.md §8 scenario S5: a
// position already at the 60-ply no-progress limit scores 0 regardless
// of search depth.
func TestSearchScoresSixtyMoveDrawAtRoot(t *testing.T) {
	p := common.NewPosition()
	p.PlacePiece(common.Red, common.King, common.MakeSquare(4, 0))
	p.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	p.PlacePiece(common.Red, common.Advisor, common.MakeSquare(3, 0))
	p.Side = common.Red
	p.FiftyCounter = 60

	if !p.IsSixtyMoveDraw() {
		t.Fatal("setup failed to reach the sixty-move draw threshold")
	}

	for _, depth := range []int{1, 4} {
		tt := NewTransTable(4)
		info := NewSearch(p, tt).Run(context.Background(), SearchLimits{Depth: depth})
		if info.Score != valueDraw {
			t.Fatalf("depth %d: expected a draw score at the sixty-move limit, got %d", depth, info.Score)
		}
	}
}

func TestSearchDeterministicWithSameSeed(t *testing.T) {
	common.SeedZobrist(42)
	p1 := common.SetupInitial()
	info1 := NewSearch(p1, NewTransTable(4)).Run(context.Background(), SearchLimits{Depth: 2})

	common.SeedZobrist(42)
	p2 := common.SetupInitial()
	info2 := NewSearch(p2, NewTransTable(4)).Run(context.Background(), SearchLimits{Depth: 2})

	if info1.Score != info2.Score || len(info1.PV) != len(info2.PV) {
		t.Fatalf("expected identical search output for the same seed: %+v vs %+v", info1, info2)
	}
}
