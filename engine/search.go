package engine

import (
	"context"
	"math"

	"github.com/hezhaoyun/xiangqigo/common"
	"github.com/hezhaoyun/xiangqigo/eval"
)

const (
	MaxPly        = 64
	valueDraw     = 0
	valueMate     = 30000
	valueInfinite = 30001

	// maxQuiescenceDepth bounds the capture chain quiescence follows past
	// the nominal search depth, per spec.md's "depth is bounded by a
	// capture-chain limit to guarantee termination" — a backstop
	// independent of the ply>=MaxPly check, since a long forced capture
	// sequence starting deep in the main search could otherwise run the
	// chain all the way to MaxPly on its own.
	maxQuiescenceDepth = 32
)

func mateIn(ply int) int  { return valueMate - ply }
func matedIn(ply int) int { return -valueMate + ply }

// valueToTT / valueFromTT re-anchor a mate score to/from the root ply so
// that a mate distance cached at one ply is still correct when read back
// at another, mirrored on the teacher's ValueToTT/ValueFromTT.
func valueToTT(score, ply int) int {
	if score >= mateIn(MaxPly) {
		return score + ply
	}
	if score <= matedIn(MaxPly) {
		return score - ply
	}
	return score
}

func valueFromTT(score, ply int) int {
	if score >= mateIn(MaxPly) {
		return score - ply
	}
	if score <= matedIn(MaxPly) {
		return score + ply
	}
	return score
}

// Search runs iterative-deepening NegaMax/alpha-beta over a single
// Position, single-threaded per spec.md's explicit non-goal on SMP,
// grounded on the teacher's SearchService but stripped of root-move
// parallel fan-out and adapted to in-place make/undo instead of
// copy-to-child positions.
type Search struct {
	pos     *common.Position
	tt      *TransTable
	history historyTable

	tm  *timeManager
	ctx context.Context

	// cancelled is set once a time/node budget check trips and is polled
	// by every caller of alphaBeta/quiescence rather than signalled
	// through the negamax score itself, since negating a sentinel score
	// up the call stack would flip its sign on every other ply.
	cancelled bool

	pv             [MaxPly + 1][]common.Move
	quietsSearched [MaxPly + 1][]common.Move
	killer         [MaxPly + 1]common.Move

	Progress func(Info)
}

// Info mirrors spec.md §6's SearchResult: one line of iterative-deepening
// progress, reported each time a root move raises the best score at the
// current depth.
type Info struct {
	Depth int
	Score int
	Nodes int64
	TimeMs int64
	PV    []common.Move
}

func NewSearch(pos *common.Position, tt *TransTable) *Search {
	return &Search{pos: pos, tt: tt}
}

// Run performs iterative deepening from depth 1 up to limits.Depth (or
// MaxPly if unset), returning the best line found before the time/node
// budget or a forced mate/draw score stops the loop.
func (s *Search) Run(ctx context.Context, limits SearchLimits) Info {
	var legal []common.Move
	legal = common.GenerateLegalMoves(s.pos, legal)
	if len(legal) == 0 {
		return Info{}
	}
	if s.pos.IsRepetition() || s.pos.IsSixtyMoveDraw() {
		// The root itself is already a draw by repetition or the
		// sixty-move rule: no amount of search depth changes that,
		// per spec.md §8 scenarios S4/S5.
		return Info{Score: valueDraw, PV: []common.Move{legal[0]}}
	}

	var tm *timeManager
	var cancel context.CancelFunc
	tm, ctx, cancel = NewTimeManager(ctx, limits)
	defer cancel()
	s.tm = tm
	s.ctx = ctx

	if s.tt != nil {
		s.tt.PrepareNewSearch()
	}
	s.history.Clear()
	s.cancelled = false

	best := Info{PV: []common.Move{legal[0]}}
	if len(legal) == 1 {
		return best
	}

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly {
		maxDepth = MaxPly
	}

	orderRootMoves(s.pos, legal)

	for depth := 1; depth <= maxDepth; depth++ {
		alpha, beta := -valueInfinite, valueInfinite
		bestIndex := 0
		depthBest := Info{Depth: depth}
		improved := false

		for i, m := range legal {
			if !s.pos.MakeMove(m) {
				s.pos.UndoMove()
				continue
			}
			s.tm.AddNode()

			var score int
			if i > 0 {
				score = -s.alphaBeta(-(alpha + 1), -alpha, depth-1, 1, false)
				if s.cancelled {
					s.pos.UndoMove()
					if improved {
						s.report(depthBest)
						return depthBest
					}
					return best
				}
				if score <= alpha {
					s.pos.UndoMove()
					continue
				}
			}
			score = -s.alphaBeta(-beta, -alpha, depth-1, 1, false)
			s.pos.UndoMove()
			if s.cancelled {
				if improved {
					s.report(depthBest)
					return depthBest
				}
				return best
			}
			if score > alpha {
				alpha = score
				bestIndex = i
				improved = true
				depthBest.Score = score
				depthBest.PV = append([]common.Move{m}, s.pv[1]...)
				depthBest.Nodes = s.tm.Nodes()
				depthBest.TimeMs = s.tm.ElapsedMilliseconds()
				s.report(depthBest)
			}
		}

		if !improved {
			break
		}
		best = depthBest
		if bestIndex > 0 {
			legal[0], legal[bestIndex] = legal[bestIndex], legal[0]
		}
		if alpha >= mateIn(depth) || alpha <= matedIn(depth) {
			break
		}
		select {
		case <-ctx.Done():
			return best
		default:
		}
	}
	return best
}

// pollCancel checks the search's time and node budgets and latches
// s.cancelled if either has been exhausted. Checked every 1024 nodes
// rather than on every node, per spec.md §5.
func (s *Search) pollCancel() bool {
	if s.tm.NodeLimitReached() {
		s.cancelled = true
		return true
	}
	select {
	case <-s.ctx.Done():
		s.cancelled = true
		return true
	default:
		return false
	}
}

func (s *Search) report(i Info) {
	if s.Progress != nil {
		s.Progress(i)
	}
}

func orderRootMoves(p *common.Position, moves []common.Move) {
	sortMoves(p, moves, common.MoveNone, nil)
}

// alphaBeta is the recursive NegaMax workhorse: TT probe/store, null-move
// pruning, internal iterative deepening, late-move reductions with
// re-search, and quiescence at the leaves — grounded on the teacher's
// SearchService.AlphaBeta, single-threaded and operating on s.pos in
// place via MakeMove/UndoMove rather than a scratch child position.
func (s *Search) alphaBeta(alpha, beta, depth, ply int, allowPruning bool) int {
	s.pv[ply] = s.pv[ply][:0]

	if ply >= MaxPly {
		return valueDraw
	}
	if s.pos.IsRepetition() || s.pos.IsSixtyMoveDraw() {
		return valueDraw
	}
	if depth <= 0 {
		return s.quiescence(alpha, beta, ply, 0)
	}
	if s.tm.Nodes()&1023 == 0 && s.pollCancel() {
		return 0
	}

	if m := mateIn(ply + 1); beta > m {
		beta = m
	}
	if alpha >= beta {
		return alpha
	}

	hashMove := common.MoveNone
	if s.tt != nil {
		if ttDepth, ttScore, bound, ttMove, ok := s.tt.Read(s.pos.Hash); ok {
			hashMove = ttMove
			if ttDepth >= depth {
				ttScore = valueFromTT(ttScore, ply)
				if bound == BoundExact {
					return ttScore
				}
				if bound == BoundLower && ttScore >= beta {
					return ttScore
				}
				if bound == BoundUpper && ttScore <= alpha {
					return ttScore
				}
			}
		}
	}

	inCheck := s.pos.InCheck(s.pos.Side)

	if depth >= 2 && !inCheck && allowPruning && beta < mateIn(MaxPly) &&
		s.pos.HasNonPawnMaterial(s.pos.Side) {
		reduction := 3
		if depth <= 4 {
			reduction = 2
		}
		s.makeNullMove()
		s.tm.AddNode()
		var score int
		newDepth := depth - 1 - reduction
		if newDepth <= 0 {
			score = -s.quiescence(-beta, -(beta - 1), ply+1, 0)
		} else {
			score = -s.alphaBeta(-beta, -(beta - 1), newDepth, ply+1, false)
		}
		s.undoNullMove()
		if s.cancelled {
			return 0
		}
		if score >= beta {
			return beta
		}
	}

	if depth >= 4 && hashMove == common.MoveNone {
		s.alphaBeta(alpha, beta, depth-2, ply, false)
		if s.cancelled {
			return 0
		}
		if len(s.pv[ply]) > 0 {
			hashMove = s.pv[ply][0]
		}
		s.pv[ply] = s.pv[ply][:0]
	}

	var moves []common.Move
	moves = common.GenerateMoves(s.pos, common.GenAll, moves)
	sortMoves(s.pos, moves, hashMove, &s.history)

	s.quietsSearched[ply] = s.quietsSearched[ply][:0]
	moveCount := 0
	bestMove := common.MoveNone

	for i, m := range moves {
		if !s.pos.MakeMove(m) {
			s.pos.UndoMove()
			continue
		}
		s.tm.AddNode()
		moveCount++
		quiet := !m.IsCapture()
		if quiet {
			s.quietsSearched[ply] = append(s.quietsSearched[ply], m)
		}

		givesCheck := s.pos.InCheck(s.pos.Side)
		newDepth := depth - 1
		if givesCheck && depth <= 3 {
			newDepth = depth
		}

		reduction := 0
		if depth >= 3 && !inCheck && !givesCheck && i > 1 && quiet &&
			m != s.killer[ply] && alpha > matedIn(MaxPly) {
			reduction = lateMoveReductions[min32(depth, 31)][min32(i, 63)]
		}

		var score int
		if i == 0 {
			score = -s.alphaBeta(-beta, -alpha, newDepth, ply+1, true)
		} else {
			score = -s.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, ply+1, true)
			if !s.cancelled && score > alpha && reduction > 0 {
				score = -s.alphaBeta(-(alpha + 1), -alpha, newDepth, ply+1, true)
			}
			if !s.cancelled && score > alpha && score < beta {
				score = -s.alphaBeta(-beta, -alpha, newDepth, ply+1, true)
			}
		}

		s.pos.UndoMove()
		if s.cancelled {
			return 0
		}

		if score > alpha {
			alpha = score
			bestMove = m
			s.pv[ply] = append(append(s.pv[ply][:0], m), s.pv[ply+1]...)
			if alpha >= beta {
				if quiet {
					s.killer[ply] = m
					s.history.Update(s.pos.Side, s.quietsSearched[ply], m, depth)
				}
				break
			}
		}
	}

	if moveCount == 0 {
		if inCheck {
			return matedIn(ply)
		}
		return valueDraw
	}

	if s.tt != nil {
		bound := BoundUpper
		if bestMove != common.MoveNone {
			bound = BoundExact
			if alpha >= beta {
				bound = BoundLower
			}
		}
		s.tt.Update(s.pos.Hash, depth, valueToTT(alpha, ply), bound, bestMove)
	}

	return alpha
}

// quiescence searches captures (and, while in check, all evasions) until
// the position is quiet, grounded on the teacher's
// SearchService.Quiescence: standing pat, MVV-LVA capture ordering with
// SEE-losing captures skipped, and a check extension when in check.
func (s *Search) quiescence(alpha, beta, ply, qdepth int) int {
	s.pv[ply] = s.pv[ply][:0]
	if ply >= MaxPly {
		return valueDraw
	}
	if qdepth >= maxQuiescenceDepth {
		return int(eval.Evaluate(s.pos))
	}
	if s.tm.Nodes()&1023 == 0 && s.pollCancel() {
		return 0
	}

	inCheck := s.pos.InCheck(s.pos.Side)
	if !inCheck {
		standPat := int(eval.Evaluate(s.pos))
		if standPat >= beta {
			return standPat
		}
		if standPat > alpha {
			alpha = standPat
		}
	}

	var moves []common.Move
	if inCheck {
		moves = common.GenerateMoves(s.pos, common.GenAll, moves)
	} else {
		moves = common.GenerateMoves(s.pos, common.GenCaptures, moves)
	}
	sortMoves(s.pos, moves, common.MoveNone, nil)

	moveCount := 0
	for _, m := range moves {
		if !inCheck && !s.pos.SEEGe(m) {
			continue
		}
		if !s.pos.MakeMove(m) {
			s.pos.UndoMove()
			continue
		}
		s.tm.AddNode()
		moveCount++
		score := -s.quiescence(-beta, -alpha, ply+1, qdepth+1)
		s.pos.UndoMove()
		if s.cancelled {
			return 0
		}
		if score > alpha {
			alpha = score
			s.pv[ply] = append(append(s.pv[ply][:0], m), s.pv[ply+1]...)
			if score >= beta {
				break
			}
		}
	}
	if inCheck && moveCount == 0 {
		return matedIn(ply)
	}
	return alpha
}

func (s *Search) makeNullMove() {
	s.pos.MakeNullMove()
}

func (s *Search) undoNullMove() {
	s.pos.UndoNullMove()
}

func min32(a, b int) int {
	if a < b {
		return a
	}
	return b
}

var lateMoveReductions [32][64]int

func init() {
	const (
		lmrMin = 1
		lmrMax = 8
		lmrDb  = 1.8
		lmrMb  = 1.0
		lmrS   = 2.2
	)
	for d := 3; d < 32; d++ {
		for m := 1; m < 64; m++ {
			r := int(math.Log(float64(d)*lmrDb) * math.Log(float64(m)*lmrMb) / lmrS)
			if r < lmrMin {
				r = lmrMin
			}
			if r > lmrMax {
				r = lmrMax
			}
			if r > d-2 {
				r = d - 2
			}
			if r < 0 {
				r = 0
			}
			lateMoveReductions[d][m] = r
		}
	}
}
