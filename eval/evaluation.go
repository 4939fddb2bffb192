package eval

import (
	"github.com/hezhaoyun/xiangqigo/common"
)

// MaterialValue is the from-scratch material table, grounded on
// original_source/evaluate.rs's MATERIAL_VALUES; King is excluded from
// material scoring since the game ends by checkmate detection in search,
// not by king capture, and an unbalanced king value would distort the
// tapered PST blend for no benefit.
var MaterialValue = [common.PieceKindCount]int32{
	common.None:     0,
	common.King:     0,
	common.Advisor:  200,
	common.Elephant: 200,
	common.Horse:    450,
	common.Rook:     900,
	common.Cannon:   500,
	common.Pawn:     100,
}

// phaseWeight mirrors original_source's current_phase_material: only the
// five non-pawn, non-king piece kinds count toward the opening/endgame
// taper, each contributing its own material value once per side.
func phaseWeight(k common.PieceKind) int32 {
	switch k {
	case common.Advisor, common.Elephant, common.Horse, common.Rook, common.Cannon:
		return MaterialValue[k]
	default:
		return 0
	}
}

// maxPhase is OPENING_PHASE_MATERIAL from original_source/evaluate.rs,
// summed over both sides: one side's (Rook+Horse+Cannon)*2 +
// (Advisor+Elephant)*2, times two — the phase counter's starting value.
const maxPhase = ((900+450+500)*2 + (200+200)*2) * 2

// pst holds, per piece kind, a 90-square table from the owning side's own
// perspective (rank 0 = own back rank); Black's contribution is looked up
// through MirrorSquare. Horse, Cannon, Rook and Pawn carry distinct
// middlegame and endgame tables; King, Advisor and Elephant tables are
// all zero.
var pst [common.PieceKindCount]struct {
	Mg, Eg [common.Squares]int32
}

// MirrorSquare maps a square to the equivalent square from the other
// side's point of view (flips both file and rank), the Go analogue of
// original_source's pst_r=9-r, pst_c=8-c remapping.
func MirrorSquare(sq common.Square) common.Square {
	return common.Square(common.Squares - 1 - int(sq))
}

func init() {
	buildPST()
	common.PSTDelta = pstDelta
	common.PhaseValue = phaseWeight
}

func pstDelta(c common.Color, k common.PieceKind, sq common.Square) (mg, eg int32) {
	s := sq
	if c == common.Black {
		s = MirrorSquare(sq)
	}
	score := Score{MaterialValue[k], MaterialValue[k]}.Add(Score{pst[k].Mg[s], pst[k].Eg[s]})
	return score.Mg, score.Eg
}

// buildPST fills in modest positional tables by hand: central files and
// the advanced half of the board score higher for the mobile pieces,
// advisors/elephants stay flat (their job is defensive, not positional),
// and pawns get a small push-forward bonus that strengthens in the
// endgame, the same shape original_source's hand-tuned tables take.
func buildPST() {
	center := func(f int) int32 {
		d := f - 4
		if d < 0 {
			d = -d
		}
		return 4 - int32(d)
	}
	for f := 0; f < common.Files; f++ {
		for r := 0; r < common.Ranks; r++ {
			sq := common.MakeSquare(f, r)
			adv := int32(r) // ranks closer to the far side score higher for Red

			pst[common.Horse].Mg[sq] = center(f)*3 + adv
			pst[common.Horse].Eg[sq] = center(f)*2 + adv

			pst[common.Cannon].Mg[sq] = center(f) + adv/2
			pst[common.Cannon].Eg[sq] = center(f)

			pst[common.Rook].Mg[sq] = adv
			pst[common.Rook].Eg[sq] = adv * 2

			pst[common.Pawn].Mg[sq] = adv * 2
			pst[common.Pawn].Eg[sq] = adv * 5
		}
	}
}

// The mobility weights mirror original_source's calculate_mobility_score
// weights: rook and cannon get a flat per-destination bonus, the horse
// (the piece most hurt by being boxed in) gets a heavier one.
const (
	mobilityRook   = 1
	mobilityHorse  = 3
	mobilityCannon = 1
)

const (
	bonusBottomCannon     = 80
	bonusHollowCannon     = 60
	bonusPinnedHorse      = 40
	kingSafetyPerAdvisor  = 50
	kingSafetyPerCannon   = 15
)

// Evaluate computes the static score of p from Red's perspective, then
// negates it if Black is to move, matching spec.md §4.4's side-relative
// convention and original_source/evaluate.rs's evaluate().
func Evaluate(p *common.Position) int32 {
	mg := p.MG
	eg := p.EG
	phase := p.Phase

	pstScore := Taper(mg, eg, phase, maxPhase)

	mobility := mobilityScore(p)
	patterns := patternScore(p)
	kingSafety := kingSafetyScore(p)

	total := pstScore + mobility + patterns + kingSafety
	if p.Side == common.Black {
		total = -total
	}
	return total
}

// EvaluateFromScratch recomputes the tapered material/PST score by
// walking every piece on the board, independent of Position's
// incrementally maintained MG/EG/Phase fields. Used only to cross-check
// the incremental accumulators in tests (spec.md §8 property 3); the
// search hot path always uses the incremental fields via Evaluate.
func EvaluateFromScratch(p *common.Position) int32 {
	var acc Score
	var phase int32
	for _, c := range [2]common.Color{common.Red, common.Black} {
		for k := common.PieceKind(1); int(k) < common.PieceKindCount; k++ {
			for b := p.PieceBB(c, k); !b.Empty(); {
				var sq common.Square
				sq, b = b.PopLSB()
				dmg, deg := pstDelta(c, k, sq)
				piece := Score{dmg, deg}
				if c == common.Black {
					piece = piece.Neg()
				}
				acc = acc.Add(piece)
				phase += phaseWeight(k)
			}
		}
	}

	pstScore := Taper(acc.Mg, acc.Eg, phase, maxPhase)
	total := pstScore + mobilityScore(p) + patternScore(p) + kingSafetyScore(p)
	if p.Side == common.Black {
		total = -total
	}
	return total
}

func mobilityScore(p *common.Position) int32 {
	occ := p.Occupied()
	var total int32
	for _, c := range [2]common.Color{common.Red, common.Black} {
		sign := int32(1)
		if c == common.Black {
			sign = -1
		}
		notOwn := p.ColorBB(c).Not()
		for b := p.PieceBB(c, common.Rook); !b.Empty(); {
			var sq common.Square
			sq, b = b.PopLSB()
			total += sign * mobilityRook * int32(common.RookAttacks(sq, occ).And(notOwn).PopCount())
		}
		for b := p.PieceBB(c, common.Cannon); !b.Empty(); {
			var sq common.Square
			sq, b = b.PopLSB()
			n := common.CannonAttacks(sq, occ).And(notOwn).PopCount() + common.CannonQuiet(sq, occ).PopCount()
			total += sign * mobilityCannon * int32(n)
		}
		for b := p.PieceBB(c, common.Horse); !b.Empty(); {
			var sq common.Square
			sq, b = b.PopLSB()
			total += sign * mobilityHorse * int32(common.HorseMoves(sq, occ).And(notOwn).PopCount())
		}
	}
	return total
}

// backRank returns the rank index of c's own starting back rank: the
// rank an opposing Cannon must stand on for the "bottom cannon" pattern.
func backRank(c common.Color) int {
	if c == common.Black {
		return common.Ranks - 1
	}
	return 0
}

// patternScore detects the three tactical shapes spec.md §4.4 names:
// bottom cannon (Cannon sitting on the opponent's own back rank, same
// file as the opponent's General), hollow cannon (Cannon on the
// General's file with nothing between and the opponent's palace lacking
// any Advisor), and a pinned horse against the palace edge. Bottom
// cannon is grounded on original_source's calculate_pattern_score;
// hollow cannon and pinned horse are new, spec-mandated patterns
// original_source does not implement, built the same way (precomputed
// masks, a bitboard AND, an empty-between test).
func patternScore(p *common.Position) int32 {
	var total int32
	for _, c := range [2]common.Color{common.Red, common.Black} {
		sign := int32(1)
		if c == common.Black {
			sign = -1
		}
		opp := c.Opposite()
		oppKing := p.KingSquare(opp)
		occ := p.Occupied()

		for b := p.PieceBB(c, common.Cannon); !b.Empty(); {
			var sq common.Square
			sq, b = b.PopLSB()
			if sq.File() != oppKing.File() {
				continue
			}
			between := common.Between(sq, oppKing)
			blockers := between.And(occ)

			if blockers.Empty() && p.PieceBB(opp, common.Advisor).Empty() {
				// Nothing between the cannon and the enemy general, and
				// the palace has no Advisor left to block a mating rook
				// or knight follow-up: a hollow-cannon threat.
				total += sign * bonusHollowCannon
			}
			if blockers.PopCount() == 1 && sq.Rank() == backRank(opp) {
				// The cannon stands on the opponent's own back rank,
				// same file as their General: the classic bottom-cannon
				// pin.
				total += sign * bonusBottomCannon
			}
		}

		for b := p.PieceBB(c, common.Horse); !b.Empty(); {
			var sq common.Square
			sq, b = b.PopLSB()
			if isPinnedAgainstPalaceEdge(p, c, sq) {
				total += sign * bonusPinnedHorse
			}
		}
	}
	return total
}

// isPinnedAgainstPalaceEdge reports whether the horse on sq stands inside
// its own palace on one of the palace's side files (3 or 5) with no square
// to go to: every destination is off-board, blocked by a leg, or occupied
// by a friendly piece. Whether the opponent attacks those destinations is
// not considered.
func isPinnedAgainstPalaceEdge(p *common.Position, c common.Color, sq common.Square) bool {
	if !common.InPalace(c, sq) {
		return false
	}
	f := sq.File()
	if f != 3 && f != 5 {
		return false
	}
	moves := common.HorseMoves(sq, p.Occupied()).AndNot(p.ColorBB(c))
	if !moves.Empty() {
		return false
	}
	return true
}

func kingSafetyScore(p *common.Position) int32 {
	var total int32
	for _, c := range [2]common.Color{common.Red, common.Black} {
		sign := int32(1)
		if c == common.Black {
			sign = -1
		}
		advisors := p.PieceBB(c, common.Advisor).PopCount()
		missing := 2 - advisors
		if missing < 0 {
			missing = 0
		}
		penalty := int32(missing) * kingSafetyPerAdvisor
		oppCannons := p.PieceBB(c.Opposite(), common.Cannon).PopCount()
		penalty += int32(missing) * int32(oppCannons) * kingSafetyPerCannon
		total -= sign * penalty
	}
	return total
}
