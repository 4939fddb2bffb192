package engine

import (
	"sort"

	"github.com/hezhaoyun/xiangqigo/common"
)

// sortMoves orders hashMove first, then captures by MVV-LVA (victim
// value, ties broken by the smaller attacker), then quiets by history
// score, grounded on the teacher's MoveOrderService.NoteMoves/SortMoves.
// A nil history is fine during quiescence and root pre-sort, where no
// quiet ordering signal exists yet.
type scoredMove struct {
	move common.Move
	key  int
}

func sortMoves(p *common.Position, moves []common.Move, hashMove common.Move, history *historyTable) {
	side := p.Side
	scored := make([]scoredMove, len(moves))
	for i, m := range moves {
		var key int
		switch {
		case m == hashMove:
			key = 1 << 30
		case m.IsCapture():
			key = 1<<20 + common.SEEValue(m.CapturedPiece())*16 - common.SEEValue(m.MovingPiece())
		case history != nil:
			key = history.Read(side, m)
		}
		scored[i] = scoredMove{m, key}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].key > scored[b].key })
	for i, sm := range scored {
		moves[i] = sm.move
	}
}
