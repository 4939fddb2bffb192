package eval

import (
	"testing"

	"github.com/hezhaoyun/xiangqigo/common"
)

func TestInitialPositionIsBalanced(t *testing.T) {
	p := common.SetupInitial()
	if score := Evaluate(p); score != 0 {
		t.Fatalf("symmetric starting position should evaluate to 0, got %d", score)
	}
}

func TestEvaluateNegatesForBlackToMove(t *testing.T) {
	red := common.NewPosition()
	red.PlacePiece(common.Red, common.King, common.MakeSquare(4, 0))
	red.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	red.PlacePiece(common.Red, common.Rook, common.MakeSquare(0, 0))
	red.Side = common.Red
	redScore := Evaluate(red)

	red.Side = common.Black
	blackScore := Evaluate(red)

	if redScore != -blackScore {
		t.Fatalf("flipping side to move should negate the score: %d vs %d", redScore, blackScore)
	}
}

// TestEvaluateIncrementalMatchesFromScratch is spec.md §8 property 3:
// the incrementally maintained MG/EG/Phase accumulators Evaluate reads
// must agree with a from-scratch walk of the board.
func TestEvaluateIncrementalMatchesFromScratch(t *testing.T) {
	p := common.SetupInitial()
	legal := common.GenerateLegalMoves(p, nil)
	for i, m := range legal {
		if i >= 6 {
			break
		}
		if !p.MakeMove(m) {
			p.UndoMove()
			continue
		}
		if got, want := Evaluate(p), EvaluateFromScratch(p); got != want {
			t.Fatalf("after move %d: incremental eval %d != from-scratch eval %d", i, got, want)
		}
		p.UndoMove()
	}
}

// TestHollowCannonPatternBonus is spec.md §8 scenario S3: a Cannon on the
// enemy General's file with nothing between and no Advisor left in the
// enemy palace scores a hollow-cannon bonus of at least 40 centipawns
// over the same position with the cannon removed.
func TestHollowCannonPatternBonus(t *testing.T) {
	withCannon := common.NewPosition()
	withCannon.PlacePiece(common.Red, common.King, common.MakeSquare(0, 0))
	withCannon.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	withCannon.PlacePiece(common.Red, common.Cannon, common.MakeSquare(4, 2))
	withCannon.Side = common.Red

	withoutCannon := common.NewPosition()
	withoutCannon.PlacePiece(common.Red, common.King, common.MakeSquare(0, 0))
	withoutCannon.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	withoutCannon.Side = common.Red

	delta := Evaluate(withCannon) - Evaluate(withoutCannon)
	if delta < 40 {
		t.Fatalf("expected a hollow-cannon bonus of at least 40 centipawns, got %d", delta)
	}
}

func TestMissingAdvisorsPenalizeKingSafety(t *testing.T) {
	base := common.NewPosition()
	base.PlacePiece(common.Red, common.King, common.MakeSquare(4, 0))
	base.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	base.PlacePiece(common.Red, common.Advisor, common.MakeSquare(3, 0))
	base.PlacePiece(common.Red, common.Advisor, common.MakeSquare(5, 0))
	base.Side = common.Red
	withAdvisors := Evaluate(base)

	bare := common.NewPosition()
	bare.PlacePiece(common.Red, common.King, common.MakeSquare(4, 0))
	bare.PlacePiece(common.Black, common.King, common.MakeSquare(4, 9))
	bare.Side = common.Red
	withoutAdvisors := Evaluate(bare)

	if withoutAdvisors >= withAdvisors {
		t.Fatalf("losing both advisors should not score better: with=%d without=%d", withAdvisors, withoutAdvisors)
	}
}
