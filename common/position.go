package common

import (
	"fmt"
	"math/rand"
)

var (
	pieceSquareKey [2][PieceKindCount][Squares]uint64
	sideKey        uint64
)

// SeedZobrist (re)computes the package-level Zobrist key tables from seed.
// Called once by engine.NewEngine so that two engines built with the same
// seed produce identical hashes and identical search output, the way the
// teacher's initKeys() seeds math/rand with a fixed source for
// reproducible test vectors.
func SeedZobrist(seed int64) {
	rnd := rand.New(rand.NewSource(seed))
	for c := 0; c < 2; c++ {
		for k := 1; k < PieceKindCount; k++ {
			for sq := 0; sq < Squares; sq++ {
				pieceSquareKey[c][k][sq] = rnd.Uint64()
			}
		}
	}
	sideKey = rnd.Uint64()
}

func init() { SeedZobrist(0) }

// undoInfo captures everything MakeMove mutates so UndoMove can restore the
// position in place without keeping a full copy, the incremental analogue
// of the teacher's xorPiece/movePiece pair applied in reverse.
type undoInfo struct {
	move         Move
	capturedKind PieceKind
	hash         uint64
	mg, eg       int32
	fiftyCounter int
}

// Position is the mutable board state: per-color per-piece bitboards, a
// mailbox for O(1) piece lookup, and incrementally maintained Zobrist hash
// and tapered material/PST accumulators. Moves are made and undone in
// place via an explicit stack, per spec.md's §4.3 requirement that this be
// a strict in-place make/undo rather than copy-on-write.
type Position struct {
	PiecesBB [2][PieceKindCount]Bitboard
	colorBB  [2]Bitboard
	occBB    Bitboard
	board    [Squares]PieceKind
	colorOn  [Squares]Color

	Side Color
	Hash uint64

	// MG/EG are tapered PST+material scores accumulated incrementally,
	// always from Red's point of view; Phase is a material-derived
	// counter used to blend them (see eval.Taper).
	MG, EG, Phase int32

	FiftyCounter int // plies since the last capture or pawn push
	stack        []undoInfo
	keyHistory   []uint64
}

func NewPosition() *Position {
	return &Position{}
}

// RecomputeHash walks the mailbox and XORs every piece-square key plus the
// side key from scratch, independent of the incremental Hash field. Used
// only to cross-check the incremental maintenance in tests (spec.md §8
// property 2); never called on the search hot path.
func (p *Position) RecomputeHash() uint64 {
	var h uint64
	for sq := Square(0); sq < Squares; sq++ {
		if k := p.board[sq]; k != None {
			h ^= pieceSquareKey[p.colorOn[sq]][k][sq]
		}
	}
	if p.Side == Black {
		h ^= sideKey
	}
	return h
}

// pieceFENChars maps a piece kind to its FEN-style letter, indexed by
// [Color][PieceKind]: uppercase for Red, lowercase for Black, matching
// original_source's Piece::to_fen_char/from_fen_char convention.
var pieceFENChars = [2][PieceKindCount]byte{
	Red:   {None: '.', King: 'K', Advisor: 'A', Elephant: 'B', Horse: 'N', Rook: 'R', Cannon: 'C', Pawn: 'P'},
	Black: {None: '.', King: 'k', Advisor: 'a', Elephant: 'b', Horse: 'n', Rook: 'r', Cannon: 'c', Pawn: 'p'},
}

// String renders an ASCII diagram of the board, grounded on
// original_source's impl fmt::Display for Board: a header line naming the
// side to move and the current Zobrist hash, then the board itself from
// Black's back rank (9) down to Red's back rank (0), with rank numbers on
// the left and file letters a-i along the bottom. Uppercase letters are
// Red pieces, lowercase are Black, '.' is an empty square. Used by tests
// for failure diagnostics and by the CLI's -print flag; has no effect on
// search or move generation.
func (p *Position) String() string {
	var b []byte
	b = append(b, "Side: "...)
	if p.Side == Red {
		b = append(b, "Red"...)
	} else {
		b = append(b, "Black"...)
	}
	b = append(b, fmt.Sprintf(", Hash: %016x\n", p.Hash)...)

	for r := Ranks - 1; r >= 0; r-- {
		b = append(b, fmt.Sprintf("%2d ", r)...)
		for f := 0; f < Files; f++ {
			sq := MakeSquare(f, r)
			k := p.board[sq]
			if k == None {
				b = append(b, '.')
			} else {
				b = append(b, pieceFENChars[p.colorOn[sq]][k])
			}
			b = append(b, ' ')
		}
		b = append(b, '\n')
	}
	b = append(b, "   "...)
	for f := 0; f < Files; f++ {
		b = append(b, byte('a'+f), ' ')
	}
	b = append(b, '\n')
	return string(b)
}

func (p *Position) PieceOn(sq Square) PieceKind { return p.board[sq] }
func (p *Position) ColorOn(sq Square) Color     { return p.colorOn[sq] }
func (p *Position) Occupied() Bitboard          { return p.occBB }
func (p *Position) ColorBB(c Color) Bitboard    { return p.colorBB[c] }
func (p *Position) PieceBB(c Color, k PieceKind) Bitboard { return p.PiecesBB[c][k] }

func (p *Position) KingSquare(c Color) Square {
	return p.PiecesBB[c][King].LSB()
}

// HasNonPawnMaterial reports whether c has at least one Advisor, Elephant,
// Horse, Rook, or Cannon left, the guard a null-move observation needs to
// avoid zugzwang positions where passing is illegal in substance: with
// only King and Pawns left, a side to move can easily be in zugzwang, so
// the null-move heuristic must not be trusted there.
func (p *Position) HasNonPawnMaterial(c Color) bool {
	for _, k := range [...]PieceKind{Advisor, Elephant, Horse, Rook, Cannon} {
		if !p.PiecesBB[c][k].Empty() {
			return true
		}
	}
	return false
}

// PSTDelta and PhaseValue are assigned by package eval's init function to
// break the import cycle between common and eval:
// common needs eval's PST/phase tables to maintain MG/EG/Phase
// incrementally, eval needs common's board and bitboard types.
var PSTDelta func(c Color, k PieceKind, sq Square) (mg, eg int32) = func(Color, PieceKind, Square) (int32, int32) { return 0, 0 }
var PhaseValue func(k PieceKind) int32 = func(PieceKind) int32 { return 0 }

// PlacePiece puts a piece on an empty square, updating the hash and the
// incremental MG/EG/Phase accumulators the same way the teacher's
// xorPiece does for the Zobrist key.
func (p *Position) PlacePiece(c Color, k PieceKind, sq Square) {
	p.PiecesBB[c][k] = p.PiecesBB[c][k].Or(SquareBB(sq))
	p.colorBB[c] = p.colorBB[c].Or(SquareBB(sq))
	p.occBB = p.occBB.Or(SquareBB(sq))
	p.board[sq] = k
	p.colorOn[sq] = c
	p.Hash ^= pieceSquareKey[c][k][sq]

	mg, eg := PSTDelta(c, k, sq)
	if c == Red {
		p.MG += mg
		p.EG += eg
	} else {
		p.MG -= mg
		p.EG -= eg
	}
	p.Phase += PhaseValue(k)
}

// SetupInitial returns a new Position holding the standard Xiangqi starting
// array with Red to move, its hash and eval accumulators built from scratch.
func SetupInitial() *Position {
	p := NewPosition()
	place := func(c Color, k PieceKind, file, rank int) {
		p.PlacePiece(c, k, MakeSquare(file, rank))
	}
	backRank := func(c Color, rank int) {
		place(c, Rook, 0, rank)
		place(c, Horse, 1, rank)
		place(c, Elephant, 2, rank)
		place(c, Advisor, 3, rank)
		place(c, King, 4, rank)
		place(c, Advisor, 5, rank)
		place(c, Elephant, 6, rank)
		place(c, Horse, 7, rank)
		place(c, Rook, 8, rank)
	}
	backRank(Red, 0)
	backRank(Black, 9)
	for _, f := range []int{1, 7} {
		place(Red, Cannon, f, 2)
		place(Black, Cannon, f, 7)
	}
	for _, f := range []int{0, 2, 4, 6, 8} {
		place(Red, Pawn, f, 3)
		place(Black, Pawn, f, 6)
	}
	p.Side = Red
	return p
}

// PawnAttacksReverse returns the squares a soldier of color attacker
// would have to stand on to attack sq. This is not PawnAttacks with the
// color flipped: a soldier's sideways move only exists once it has
// crossed the river, a condition on the soldier's *own* square — and
// every sideways candidate here shares sq's rank, so the test is
// equivalent to, and implemented as, a river check on sq itself. The
// forward candidate (one step behind sq along attacker's advance
// direction) has no such condition.
func PawnAttacksReverse(sq Square, attacker Color) Bitboard {
	var result Bitboard
	f, r := sq.File(), sq.Rank()
	behind := r - 1
	if attacker == Black {
		behind = r + 1
	}
	if behind >= 0 && behind < Ranks {
		result = result.Or(SquareBB(MakeSquare(f, behind)))
	}
	if !OwnSideOfRiver(attacker, sq) {
		if f-1 >= 0 {
			result = result.Or(SquareBB(MakeSquare(f-1, r)))
		}
		if f+1 < Files {
			result = result.Or(SquareBB(MakeSquare(f+1, r)))
		}
	}
	return result
}

// IsSquareAttacked reports whether sq is attacked by side attacker, the
// square-by-piece-type test grounded on original_source's
// is_square_attacked_by: pawns and king/advisor/elephant/horse via their
// precomputed (leg/eye-filtered) attack sets, rook/cannon via ray scans.
func (p *Position) IsSquareAttacked(sq Square, attacker Color) bool {
	occ := p.occBB
	if !PawnAttacksReverse(sq, attacker).And(p.PiecesBB[attacker][Pawn]).Empty() {
		return true
	}
	if !KingAttacks(sq).And(p.PiecesBB[attacker][King]).Empty() {
		return true
	}
	if !AdvisorAttacks(sq).And(p.PiecesBB[attacker][Advisor]).Empty() {
		return true
	}
	for b := ElephantAttacksReverse(sq, occ); !b.Empty(); {
		var t Square
		t, b = b.PopLSB()
		if p.board[t] == Elephant && p.colorOn[t] == attacker {
			return true
		}
	}
	for b := HorseAttacksReverse(sq, occ); !b.Empty(); {
		var t Square
		t, b = b.PopLSB()
		if p.board[t] == Horse && p.colorOn[t] == attacker {
			return true
		}
	}
	if !RookAttacks(sq, occ).And(p.PiecesBB[attacker][Rook]).Empty() {
		return true
	}
	if !CannonAttacks(sq, occ).And(p.PiecesBB[attacker][Cannon]).Empty() {
		return true
	}
	return false
}

// ElephantAttacksReverse exploits the symmetry of the eye-filtered move
// set: an elephant's eye square sits at the midpoint between sq and its
// target, the same square regardless of which end is "from" and which is
// "to", so the set of squares from which an elephant could move to sq
// under occ equals ElephantAttacks(sq, occ).
func ElephantAttacksReverse(sq Square, occ Bitboard) Bitboard { return ElephantAttacks(sq, occ) }

// HorseAttacksReverse returns the squares from which a horse could move
// to sq under occ. Unlike the elephant's eye, a horse's leg (蹩马腿) sits
// adjacent to the square the horse is moving *from*, not from sq — so
// this cannot reuse HorseMoves(sq, occ), which would test the leg
// relative to sq itself rather than relative to each candidate attacker.
// horseAttacks[sq] is still the right candidate set (horse-move adjacency
// is undirected), but each candidate x must be checked against
// horseLeg[x][sq], the leg relative to x.
func HorseAttacksReverse(sq Square, occ Bitboard) Bitboard {
	var result Bitboard
	for b := horseAttacks[sq]; !b.Empty(); {
		var x Square
		x, b = b.PopLSB()
		leg := horseLeg[x][sq]
		if !occ.Has(leg) {
			result = result.Or(SquareBB(x))
		}
	}
	return result
}

// seeOrder lists piece kinds from least to most valuable, the scan order
// Quiescence/SEE uses to find the least valuable attacker, mirrored on
// the teacher's GetLeastValuableAttacker loop (there done by linear scan
// over a combined attacker bitboard; here by kind since Xiangqi's SEE
// values are not monotonic with a single "piece type index").
var seeOrder = [...]PieceKind{Pawn, Advisor, Elephant, Horse, Cannon, Rook, King}

// AttackersTo returns, for each piece kind bitboard intersected with occ,
// the squares from which color c attacks sq under the hypothetical
// occupancy occ — used by SEE to "remove" pieces from the board without
// mutating Position, the same role the teacher's GetAttacks(p, to, side,
// occ) plays with a plain occupancy bitboard instead of a mailbox.
func (p *Position) AttackersTo(sq Square, c Color, occ Bitboard) Bitboard {
	var result Bitboard
	result = result.Or(PawnAttacksReverse(sq, c).And(p.PiecesBB[c][Pawn]).And(occ))
	result = result.Or(KingAttacks(sq).And(p.PiecesBB[c][King]).And(occ))
	result = result.Or(AdvisorAttacks(sq).And(p.PiecesBB[c][Advisor]).And(occ))
	result = result.Or(ElephantAttacksReverse(sq, occ).And(p.PiecesBB[c][Elephant]).And(occ))
	result = result.Or(HorseAttacksReverse(sq, occ).And(p.PiecesBB[c][Horse]).And(occ))
	result = result.Or(RookAttacks(sq, occ).And(p.PiecesBB[c][Rook]).And(occ))
	result = result.Or(CannonAttacks(sq, occ).And(p.PiecesBB[c][Cannon]).And(occ))
	return result
}

// LeastValuableAttacker returns the lowest-SEE-value piece among color c's
// attackers of sq under occ, or ok=false if there are none.
func (p *Position) LeastValuableAttacker(sq Square, c Color, occ Bitboard) (kind PieceKind, from Square, ok bool) {
	att := p.AttackersTo(sq, c, occ)
	if att.Empty() {
		return None, 0, false
	}
	for _, k := range seeOrder {
		candidates := att.And(p.PiecesBB[c][k])
		if !candidates.Empty() {
			return k, candidates.LSB(), true
		}
	}
	return None, 0, false
}

// SEEGe reports whether the static exchange evaluation of m is >= 0 —
// i.e. the side making the move does not come out materially behind once
// every profitable recapture on the target square is played out. This is
// a near-literal port of the teacher's SEE_GE swap algorithm: repeatedly
// replace the occupant of the target square with the least valuable
// attacker, alternating sides, until one side has no attacker left or the
// running balance settles.
func (p *Position) SEEGe(m Move) bool {
	piece := m.MovingPiece()
	to := m.To()
	occ := p.occBB.AndNot(SquareBB(m.From()))
	side := p.Side.Opposite()
	relativeStm := true
	balance := SEEValue(m.CapturedPiece()) - SEEValue(piece)
	if balance >= 0 {
		return true
	}
	for {
		kind, from, ok := p.LeastValuableAttacker(to, side, occ)
		if !ok {
			return relativeStm
		}
		if piece == King {
			return !relativeStm
		}
		occ = occ.AndNot(SquareBB(from))
		piece = kind
		if relativeStm {
			balance += SEEValue(kind)
		} else {
			balance -= SEEValue(kind)
		}
		relativeStm = !relativeStm
		if relativeStm == (balance >= 0) {
			return relativeStm
		}
		side = side.Opposite()
	}
}

// InCheck reports whether side c's general is in check, including the
// "flying generals" rule: two generals facing each other on a clear file
// counts as check on the side to move, mirrored on original_source's
// is_king_in_check.
func (p *Position) InCheck(c Color) bool {
	king := p.KingSquare(c)
	if p.IsSquareAttacked(king, c.Opposite()) {
		return true
	}
	oppKing := p.KingSquare(c.Opposite())
	if king.File() == oppKing.File() {
		if Between(king, oppKing).And(p.occBB).Empty() {
			return true
		}
	}
	return false
}

// MakeMove applies move in place, pushing undo state, and reports whether
// the resulting position leaves the mover's own general in check — if so
// it is illegal and the caller must call UndoMove immediately, matching
// spec.md §4.3's "legality is a post-hoc filter" design.
func (p *Position) MakeMove(m Move) bool {
	from, to := m.From(), m.To()
	moving := m.MovingPiece()
	captured := m.CapturedPiece()
	mover := p.Side

	info := undoInfo{move: m, capturedKind: captured, hash: p.Hash, mg: p.MG, eg: p.EG, fiftyCounter: p.FiftyCounter}
	p.stack = append(p.stack, info)

	if captured != None {
		opp := mover.Opposite()
		p.removePiece(opp, captured, to)
		p.FiftyCounter = 0
	} else if moving == Pawn {
		p.FiftyCounter = 0
	} else {
		p.FiftyCounter++
	}

	p.removePiece(mover, moving, from)
	p.PlacePiece(mover, moving, to)
	p.Hash ^= sideKey
	p.Side = mover.Opposite()
	p.keyHistory = append(p.keyHistory, p.Hash)

	if p.InCheck(mover) {
		return false
	}
	return true
}

// UndoMove reverses the most recent MakeMove, whether or not it was legal.
func (p *Position) UndoMove() {
	n := len(p.stack)
	assertInvariant(n > 0, "UndoMove called with an empty undo stack")
	info := p.stack[n-1]
	p.stack = p.stack[:n-1]
	p.keyHistory = p.keyHistory[:len(p.keyHistory)-1]

	m := info.move
	from, to := m.From(), m.To()
	moving := m.MovingPiece()
	mover := p.Side.Opposite()

	p.removePiece(mover, moving, to)
	p.PlacePiece(mover, moving, from)
	if info.capturedKind != None {
		p.PlacePiece(mover.Opposite(), info.capturedKind, to)
	}

	p.Side = mover
	p.Hash = info.hash
	p.MG = info.mg
	p.EG = info.eg
	p.FiftyCounter = info.fiftyCounter
}

// MakeNullMove flips the side to move without placing a piece, used by
// null-move pruning; the caller must never call this while in check.
func (p *Position) MakeNullMove() {
	p.Side = p.Side.Opposite()
	p.Hash ^= sideKey
	p.keyHistory = append(p.keyHistory, p.Hash)
}

func (p *Position) UndoNullMove() {
	p.keyHistory = p.keyHistory[:len(p.keyHistory)-1]
	p.Hash ^= sideKey
	p.Side = p.Side.Opposite()
}

func (p *Position) removePiece(c Color, k PieceKind, sq Square) {
	p.PiecesBB[c][k] = p.PiecesBB[c][k].AndNot(SquareBB(sq))
	p.colorBB[c] = p.colorBB[c].AndNot(SquareBB(sq))
	p.occBB = p.occBB.AndNot(SquareBB(sq))
	p.board[sq] = None
	p.Hash ^= pieceSquareKey[c][k][sq]

	mg, eg := PSTDelta(c, k, sq)
	if c == Red {
		p.MG -= mg
		p.EG -= eg
	} else {
		p.MG += mg
		p.EG += eg
	}
	p.Phase -= PhaseValue(k)
}

// IsRepetition walks the key history (bounded by the last capture/pawn
// push, since FiftyCounter resets there) looking for a third occurrence
// of the current hash, the threefold-repetition draw test of spec.md §4.5
// step 1 / §6.
func (p *Position) IsRepetition() bool {
	count := 1
	h := p.Hash
	n := len(p.keyHistory)
	limit := n - p.FiftyCounter
	if limit < 0 {
		limit = 0
	}
	for i := n - 3; i >= limit; i -= 2 {
		if p.keyHistory[i] == h {
			count++
			if count >= 3 {
				return true
			}
		}
	}
	return false
}

// IsSixtyMoveDraw implements spec.md's 60-ply (not 100-ply) no-progress
// draw counter.
func (p *Position) IsSixtyMoveDraw() bool { return p.FiftyCounter >= 60 }
