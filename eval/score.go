// Package eval provides tapered middlegame/endgame piece-square evaluation,
// mobility, king safety and pattern bonuses, grounded on the teacher's
// eval.Score tapered-pair type and on original_source's evaluate.rs PST
// and pattern tables.
package eval

// Score is a middlegame/endgame pair, accumulated by Add and sign-flipped
// by Neg, then blended once at the end by Taper — the same shape as the
// teacher's eval.Score.
type Score struct {
	Mg, Eg int32
}

func (s Score) Add(o Score) Score { return Score{s.Mg + o.Mg, s.Eg + o.Eg} }
func (s Score) Neg() Score        { return Score{-s.Mg, -s.Eg} }

// Taper blends mg/eg by phase over maxPhase, clamping phase to
// [0, maxPhase] the way the teacher's (mg*phase + eg*(64-phase))/64 does
// for a fixed 64-unit phase scale.
func Taper(mg, eg, phase, maxPhase int32) int32 {
	if phase > maxPhase {
		phase = maxPhase
	}
	if phase < 0 {
		phase = 0
	}
	return (mg*phase + eg*(maxPhase-phase)) / maxPhase
}
