package common

import "math/bits"

// Bitboard packs the 90 board squares into two uint64 words (lo: squares
// 0-63, hi: squares 64-89) the way a single uint128 would on a platform
// that had one — Go has no native 128-bit integer, so the pack's own
// reference implementation's u128 is represented here as a pair of words,
// per the design note on 128-bit emulation.
type Bitboard struct {
	Lo, Hi uint64
}

func SquareBB(sq Square) Bitboard {
	if sq < 64 {
		return Bitboard{Lo: 1 << uint(sq)}
	}
	return Bitboard{Hi: 1 << uint(sq-64)}
}

func (b Bitboard) And(o Bitboard) Bitboard    { return Bitboard{b.Lo & o.Lo, b.Hi & o.Hi} }
func (b Bitboard) Or(o Bitboard) Bitboard     { return Bitboard{b.Lo | o.Lo, b.Hi | o.Hi} }
func (b Bitboard) Xor(o Bitboard) Bitboard    { return Bitboard{b.Lo ^ o.Lo, b.Hi ^ o.Hi} }
func (b Bitboard) AndNot(o Bitboard) Bitboard { return Bitboard{b.Lo &^ o.Lo, b.Hi &^ o.Hi} }
func (b Bitboard) Not() Bitboard              { return Bitboard{^b.Lo, ^b.Hi & 0x3FFFFFF} }
func (b Bitboard) Empty() bool                { return b.Lo == 0 && b.Hi == 0 }
func (b Bitboard) Has(sq Square) bool         { return !b.And(SquareBB(sq)).Empty() }

func (b Bitboard) PopCount() int {
	return bits.OnesCount64(b.Lo) + bits.OnesCount64(b.Hi)
}

// LSB returns the lowest-indexed set square; caller must ensure b is not empty.
func (b Bitboard) LSB() Square {
	if b.Lo != 0 {
		return Square(bits.TrailingZeros64(b.Lo))
	}
	return Square(64 + bits.TrailingZeros64(b.Hi))
}

// PopLSB clears and returns the lowest-indexed set square.
func (b Bitboard) PopLSB() (Square, Bitboard) {
	sq := b.LSB()
	return sq, b.AndNot(SquareBB(sq))
}

// MSB returns the highest-indexed set square; caller must ensure b is not empty.
func (b Bitboard) MSB() Square {
	if b.Hi != 0 {
		return Square(64 + 63 - bits.LeadingZeros64(b.Hi))
	}
	return Square(63 - bits.LeadingZeros64(b.Lo))
}

var (
	kingAttacks     [Squares]Bitboard
	advisorAttacks  [Squares]Bitboard
	elephantAttacks [Squares]Bitboard
	elephantEye     [Squares][Squares]Square // eye square between sq and target, -1 if not an elephant move
	horseAttacks    [Squares]Bitboard
	horseLeg        [Squares][Squares]Square // leg square to check, -1 if not a horse move
	pawnAttacks     [2][Squares]Bitboard
	rayN, raySouth  [Squares]Bitboard
	rayE, rayW      [Squares]Bitboard
	fileMask        [Files]Bitboard
	rankMask        [Ranks]Bitboard
	betweenMask     [Squares][Squares]Bitboard
)

const noSquare = Square(-1)

func init() {
	for f := 0; f < Files; f++ {
		for r := 0; r < Ranks; r++ {
			fileMask[f] = fileMask[f].Or(SquareBB(MakeSquare(f, r)))
		}
	}
	for r := 0; r < Ranks; r++ {
		for f := 0; f < Files; f++ {
			rankMask[r] = rankMask[r].Or(SquareBB(MakeSquare(f, r)))
		}
	}

	for sq := Square(0); sq < Squares; sq++ {
		for i := range elephantEye[sq] {
			elephantEye[sq][i] = noSquare
		}
		for i := range horseLeg[sq] {
			horseLeg[sq][i] = noSquare
		}
		f, r := sq.File(), sq.Rank()

		// King / General: one step orthogonally, confined to the palace.
		for _, d := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			nf, nr := f+d[0], r+d[1]
			if nf < 0 || nf >= Files || nr < 0 || nr >= Ranks {
				continue
			}
			t := MakeSquare(nf, nr)
			if InPalace(Red, sq) && InPalace(Red, t) || InPalace(Black, sq) && InPalace(Black, t) {
				kingAttacks[sq] = kingAttacks[sq].Or(SquareBB(t))
			}
		}

		// Advisor: one step diagonally, confined to the palace.
		for _, d := range [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}} {
			nf, nr := f+d[0], r+d[1]
			if nf < 0 || nf >= Files || nr < 0 || nr >= Ranks {
				continue
			}
			t := MakeSquare(nf, nr)
			if InPalace(Red, sq) && InPalace(Red, t) || InPalace(Black, sq) && InPalace(Black, t) {
				advisorAttacks[sq] = advisorAttacks[sq].Or(SquareBB(t))
			}
		}

		// Elephant: two steps diagonally, blocked by the eye, cannot
		// leave its own half of the board.
		for _, d := range [][2]int{{2, 2}, {2, -2}, {-2, 2}, {-2, -2}} {
			nf, nr := f+d[0], r+d[1]
			if nf < 0 || nf >= Files || nr < 0 || nr >= Ranks {
				continue
			}
			t := MakeSquare(nf, nr)
			eye := MakeSquare(f+d[0]/2, r+d[1]/2)
			sideOK := (OwnSideOfRiver(Red, sq) && OwnSideOfRiver(Red, t)) ||
				(OwnSideOfRiver(Black, sq) && OwnSideOfRiver(Black, t))
			if sideOK {
				elephantAttacks[sq] = elephantAttacks[sq].Or(SquareBB(t))
				elephantEye[sq][t] = eye
			}
		}

		// Horse: the classic (1,2)/(2,1) L-jump, blocked by the leg
		// square adjacent along the long axis of the jump.
		for _, d := range [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}} {
			nf, nr := f+d[0], r+d[1]
			if nf < 0 || nf >= Files || nr < 0 || nr >= Ranks {
				continue
			}
			t := MakeSquare(nf, nr)
			var legF, legR int
			if abs(d[0]) == 2 {
				legF, legR = f+d[0]/2, r
			} else {
				legF, legR = f, r+d[1]/2
			}
			horseAttacks[sq] = horseAttacks[sq].Or(SquareBB(t))
			horseLeg[sq][t] = MakeSquare(legF, legR)
		}

		// Pawn / Soldier: one step forward, or one step sideways once
		// across the river.
		if r+1 < Ranks {
			pawnAttacks[Red][sq] = pawnAttacks[Red][sq].Or(SquareBB(MakeSquare(f, r+1)))
		}
		if r-1 >= 0 {
			pawnAttacks[Black][sq] = pawnAttacks[Black][sq].Or(SquareBB(MakeSquare(f, r-1)))
		}
		if !OwnSideOfRiver(Red, sq) {
			if f-1 >= 0 {
				pawnAttacks[Red][sq] = pawnAttacks[Red][sq].Or(SquareBB(MakeSquare(f-1, r)))
			}
			if f+1 < Files {
				pawnAttacks[Red][sq] = pawnAttacks[Red][sq].Or(SquareBB(MakeSquare(f+1, r)))
			}
		}
		if !OwnSideOfRiver(Black, sq) {
			if f-1 >= 0 {
				pawnAttacks[Black][sq] = pawnAttacks[Black][sq].Or(SquareBB(MakeSquare(f-1, r)))
			}
			if f+1 < Files {
				pawnAttacks[Black][sq] = pawnAttacks[Black][sq].Or(SquareBB(MakeSquare(f+1, r)))
			}
		}

		// Rays for the rook/cannon sliding generator and for the
		// flying-general / bottom-cannon same-file tests.
		for rr := r + 1; rr < Ranks; rr++ {
			rayN[sq] = rayN[sq].Or(SquareBB(MakeSquare(f, rr)))
		}
		for rr := r - 1; rr >= 0; rr-- {
			raySouth[sq] = raySouth[sq].Or(SquareBB(MakeSquare(f, rr)))
		}
		for ff := f + 1; ff < Files; ff++ {
			rayE[sq] = rayE[sq].Or(SquareBB(MakeSquare(ff, r)))
		}
		for ff := f - 1; ff >= 0; ff-- {
			rayW[sq] = rayW[sq].Or(SquareBB(MakeSquare(ff, r)))
		}
	}

	for a := Square(0); a < Squares; a++ {
		for b := Square(0); b < Squares; b++ {
			if a == b {
				continue
			}
			if a.File() == b.File() {
				lo, hi := a, b
				if lo > hi {
					lo, hi = hi, lo
				}
				for s := lo + 1; s < hi; s++ {
					betweenMask[a][b] = betweenMask[a][b].Or(SquareBB(s))
				}
			} else if a.Rank() == b.Rank() {
				lo, hi := a, b
				if lo > hi {
					lo, hi = hi, lo
				}
				for s := lo + 1; s < hi; s++ {
					betweenMask[a][b] = betweenMask[a][b].Or(SquareBB(s))
				}
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// slideAttacks scans a single ray, stopping at (and including) the first
// occupied square, the way a magic-bitboard rook generator would mask a
// blocker pattern — here done by direct scan since a 90-square board has
// no practical need for magics.
func slideAttacks(ray Bitboard, occ Bitboard, towardHigh bool) Bitboard {
	blockers := ray.And(occ)
	if blockers.Empty() {
		return ray
	}
	var first Square
	if towardHigh {
		first = blockers.LSB()
	} else {
		first = blockers.MSB()
	}
	return ray.AndNot(rayBeyond(first, towardHigh, ray))
}

// rayBeyond returns the portion of ray strictly beyond first (exclusive),
// used to trim a slide at the first blocker while still including it.
func rayBeyond(first Square, towardHigh bool, ray Bitboard) Bitboard {
	var beyond Bitboard
	if towardHigh {
		for s := first + 1; s < Squares; s++ {
			if ray.Has(s) {
				beyond = beyond.Or(SquareBB(s))
			}
		}
	} else {
		for s := first - 1; s >= 0; s-- {
			if ray.Has(s) {
				beyond = beyond.Or(SquareBB(s))
			}
		}
	}
	return beyond
}

// RookAttacks returns the rook's pseudo-legal destinations from sq given
// the full-board occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	var bb Bitboard
	bb = bb.Or(slideAttacks(rayN[sq], occ, true))
	bb = bb.Or(slideAttacks(raySouth[sq], occ, false))
	bb = bb.Or(slideAttacks(rayE[sq], occ, true))
	bb = bb.Or(slideAttacks(rayW[sq], occ, false))
	return bb
}

// CannonAttacks returns the cannon's capture squares only: along each ray,
// the first piece beyond the first blocker (the "screen"), if any. The
// non-capturing destinations come from CannonQuiet.
func CannonAttacks(sq Square, occ Bitboard) Bitboard {
	var bb Bitboard
	bb = bb.Or(cannonRay(rayN[sq], occ, true))
	bb = bb.Or(cannonRay(raySouth[sq], occ, false))
	bb = bb.Or(cannonRay(rayE[sq], occ, true))
	bb = bb.Or(cannonRay(rayW[sq], occ, false))
	return bb
}

func cannonRay(ray Bitboard, occ Bitboard, towardHigh bool) Bitboard {
	blockers := ray.And(occ)
	if blockers.Empty() {
		return Bitboard{}
	}
	var screen Square
	if towardHigh {
		screen = blockers.LSB()
	} else {
		screen = blockers.MSB()
	}
	beyond := rayBeyond(screen, towardHigh, ray)
	secondBlockers := beyond.And(occ)
	if secondBlockers.Empty() {
		return Bitboard{}
	}
	var target Square
	if towardHigh {
		target = secondBlockers.LSB()
	} else {
		target = secondBlockers.MSB()
	}
	return SquareBB(target)
}

// CannonQuiet returns the cannon's quiet (non-capturing) destinations:
// empty squares strictly before the first blocker along each ray.
func CannonQuiet(sq Square, occ Bitboard) Bitboard {
	var bb Bitboard
	rays := [4]struct {
		ray        Bitboard
		towardHigh bool
	}{
		{rayN[sq], true}, {raySouth[sq], false}, {rayE[sq], true}, {rayW[sq], false},
	}
	for _, r := range rays {
		blockers := r.ray.And(occ)
		if blockers.Empty() {
			bb = bb.Or(r.ray)
			continue
		}
		var screen Square
		if r.towardHigh {
			screen = blockers.LSB()
		} else {
			screen = blockers.MSB()
		}
		bb = bb.Or(r.ray.AndNot(rayBeyond(screen, r.towardHigh, r.ray)).AndNot(SquareBB(screen)))
	}
	return bb
}

func KingAttacks(sq Square) Bitboard     { return kingAttacks[sq] }
func AdvisorAttacks(sq Square) Bitboard  { return advisorAttacks[sq] }
func HorseAttacks(sq Square) Bitboard    { return horseAttacks[sq] }
func PawnAttacks(c Color, sq Square) Bitboard { return pawnAttacks[c][sq] }

// ElephantAttacks returns the elephant's legal destinations given occ,
// removing any target whose eye square is occupied.
func ElephantAttacks(sq Square, occ Bitboard) Bitboard {
	bb := elephantAttacks[sq]
	result := bb
	for b := bb; !b.Empty(); {
		t, rest := b.PopLSB()
		b = rest
		eye := elephantEye[sq][t]
		if occ.Has(eye) {
			result = result.AndNot(SquareBB(t))
		}
	}
	return result
}

// HorseMoves returns the horse's legal destinations given occ, removing
// any target whose leg square is occupied.
func HorseMoves(sq Square, occ Bitboard) Bitboard {
	bb := horseAttacks[sq]
	result := bb
	for b := bb; !b.Empty(); {
		t, rest := b.PopLSB()
		b = rest
		leg := horseLeg[sq][t]
		if occ.Has(leg) {
			result = result.AndNot(SquareBB(t))
		}
	}
	return result
}

func Between(a, b Square) Bitboard { return betweenMask[a][b] }
func FileMask(f int) Bitboard      { return fileMask[f] }
func RankMask(r int) Bitboard      { return rankMask[r] }
func RayNorth(sq Square) Bitboard  { return rayN[sq] }
func RaySouth(sq Square) Bitboard  { return raySouth[sq] }
