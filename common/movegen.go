package common

// GenMode selects which subset of pseudo-legal moves to generate,
// mirroring the teacher's MoveList.GenerateMoves / GenerateCaptures split.
type GenMode int

const (
	GenAll GenMode = iota
	GenCaptures
)

// GenerateMoves appends pseudo-legal moves for the side to move to dst and
// returns the extended slice. Legality (own general left in check,
// including the flying-generals rule) is not checked here; callers filter
// via Position.MakeMove's boolean result, per spec.md §4.2's "generator
// produces pseudo-legal moves, legality is a post-hoc filter" design.
func GenerateMoves(p *Position, mode GenMode, dst []Move) []Move {
	c := p.Side
	own := p.colorBB[c]
	occ := p.occBB
	notOwn := own.Not()

	addFrom := func(from Square, targets Bitboard, moving PieceKind) {
		for b := targets.And(notOwn); !b.Empty(); {
			var to Square
			to, b = b.PopLSB()
			captured := None
			if p.board[to] != None {
				captured = p.board[to]
			}
			if mode == GenCaptures && captured == None {
				continue
			}
			dst = append(dst, MakeMove(from, to, moving, captured))
		}
	}

	for b := p.PiecesBB[c][King]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, KingAttacks(sq), King)
	}
	for b := p.PiecesBB[c][Advisor]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, AdvisorAttacks(sq), Advisor)
	}
	for b := p.PiecesBB[c][Elephant]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, ElephantAttacks(sq, occ), Elephant)
	}
	for b := p.PiecesBB[c][Horse]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, HorseMoves(sq, occ), Horse)
	}
	for b := p.PiecesBB[c][Rook]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, RookAttacks(sq, occ), Rook)
	}
	for b := p.PiecesBB[c][Cannon]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		targets := CannonAttacks(sq, occ)
		if mode == GenAll {
			targets = targets.Or(CannonQuiet(sq, occ))
		}
		addFrom(sq, targets, Cannon)
	}
	for b := p.PiecesBB[c][Pawn]; !b.Empty(); {
		var sq Square
		sq, b = b.PopLSB()
		addFrom(sq, PawnAttacks(c, sq), Pawn)
	}

	return dst
}

// GenerateLegalMoves returns only the moves that do not leave the mover's
// own general in check, by making and immediately undoing each pseudo-
// legal candidate — the same approach as original_source's
// generate_legal_moves.
func GenerateLegalMoves(p *Position, dst []Move) []Move {
	pseudo := GenerateMoves(p, GenAll, make([]Move, 0, 64))
	for _, m := range pseudo {
		if p.MakeMove(m) {
			dst = append(dst, m)
		}
		p.UndoMove()
	}
	return dst
}
