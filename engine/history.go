package engine

import "github.com/hezhaoyun/xiangqigo/common"

const historyMax = 1 << 14

// historyTable is an exponential moving average indexed by
// (side, moving piece kind, to-square), grounded on the teacher's
// historyService.ButterflyHistory EMA update. Xiangqi's much smaller
// piece-kind and square counts make the teacher's separate
// counter-move/follow-up tables unnecessary; one butterfly-style table
// covers the same "which quiet move tends to cause cutoffs" signal.
type historyTable struct {
	table [2][common.PieceKindCount][common.Squares]int16
}

func (h *historyTable) index(side common.Color, m common.Move) (common.Color, common.PieceKind, common.Square) {
	return side, m.MovingPiece(), m.To()
}

func (h *historyTable) Read(side common.Color, m common.Move) int {
	s, k, sq := h.index(side, m)
	return int(h.table[s][k][sq])
}

// Update applies the depth-squared bonus of spec.md §4.5 step 7 to the
// move that caused the cutoff and decays every other quiet move tried at
// this node, matching the teacher's single-pass "reward best, punish the
// rest" EMA loop in historyContext.Update.
func (h *historyTable) Update(side common.Color, quietsSearched []common.Move, bestMove common.Move, depth int) {
	bonus := depth * depth
	if bonus > 400 {
		bonus = 400
	}
	for _, m := range quietsSearched {
		newVal := -historyMax
		if m == bestMove {
			newVal = historyMax
		}
		s, k, sq := h.index(side, m)
		cur := int(h.table[s][k][sq])
		h.table[s][k][sq] += int16((newVal - cur) * bonus / 512)
		if m == bestMove {
			break
		}
	}
}

func (h *historyTable) Clear() {
	for s := range h.table {
		for k := range h.table[s] {
			for sq := range h.table[s][k] {
				h.table[s][k][sq] = 0
			}
		}
	}
}
