package engine

import (
	"testing"

	"github.com/hezhaoyun/xiangqigo/common"
)

func TestTransTableReadAfterUpdate(t *testing.T) {
	tt := NewTransTable(1)
	hash := uint64(0x1234567890ABCDEF)
	m := common.MakeMove(common.MakeSquare(0, 0), common.MakeSquare(0, 1), common.Rook, common.None)

	tt.Update(hash, 5, 120, BoundExact, m)
	depth, score, bound, move, ok := tt.Read(hash)
	if !ok {
		t.Fatal("expected a hit after Update")
	}
	if depth != 5 || score != 120 || bound != BoundExact || move != m {
		t.Fatalf("unexpected entry: depth=%d score=%d bound=%d move=%s", depth, score, bound, move)
	}
}

func TestTransTableMissOnDifferentHash(t *testing.T) {
	tt := NewTransTable(1)
	tt.Update(1, 3, 10, BoundExact, common.MoveNone)
	if _, _, _, _, ok := tt.Read(2); ok {
		t.Fatal("expected a miss for an unrelated hash")
	}
}

func TestHistoryUpdateRewardsBestMove(t *testing.T) {
	var h historyTable
	best := common.MakeMove(common.MakeSquare(0, 0), common.MakeSquare(0, 1), common.Horse, common.None)
	other := common.MakeMove(common.MakeSquare(1, 0), common.MakeSquare(1, 1), common.Horse, common.None)
	h.Update(common.Red, []common.Move{other, best}, best, 6)
	if h.Read(common.Red, best) <= h.Read(common.Red, other) {
		t.Fatal("the cutoff move should score higher than the punished quiet move")
	}
}
