package engine

import (
	"sync/atomic"

	"github.com/hezhaoyun/xiangqigo/common"
)

// Bound classifies how a stored score relates to the true value, the
// same three-way split the teacher's boundLower/boundUpper use.
type Bound uint8

const (
	BoundExact Bound = 0
	BoundLower Bound = 1
	BoundUpper Bound = 2
)

type transEntry struct {
	gate      int32
	key32     uint32
	move      common.Move
	score     int16
	depth     int8
	bound_gen uint8
}

const clusterSize = 4

func roundPowerOfTwo(size int) int {
	x := 1
	for (x << 1) <= size {
		x <<= 1
	}
	return x
}

// TransTable is a fixed-capacity, power-of-two-bucketed, 4-entry-cluster
// transposition table with age-aware two-tier replacement, grounded on
// the teacher's tierTransTable. Lock-free gating is kept even though the
// search itself is single-threaded (spec.md's single-threaded invariant),
// since it costs nothing and preserves the teacher's entry layout exactly.
type TransTable struct {
	megabytes  int
	entries    []transEntry
	generation uint8
	mask       uint32
}

func NewTransTable(megabytes int) *TransTable {
	size := roundPowerOfTwo(1024 * 1024 * megabytes / 16)
	if size < clusterSize {
		size = clusterSize
	}
	return &TransTable{
		megabytes: megabytes,
		entries:   make([]transEntry, size),
		mask:      uint32(size - clusterSize),
	}
}

func (tt *TransTable) Megabytes() int { return tt.megabytes }

func (tt *TransTable) PrepareNewSearch() {
	tt.generation = (tt.generation + 1) & 63
}

func (tt *TransTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = transEntry{}
	}
}

func (tt *TransTable) Read(hash uint64) (depth, score int, bound Bound, move common.Move, ok bool) {
	index := uint32(hash) & tt.mask
	entries := tt.entries[index : index+clusterSize]
	gate := &entries[0].gate
	if atomic.CompareAndSwapInt32(gate, 0, 1) {
		for i := range entries {
			entry := &entries[i]
			if entry.key32 == uint32(hash>>32) {
				entry.bound_gen = (entry.bound_gen & 3) + (tt.generation << 2)
				score = int(entry.score)
				move = entry.move
				depth = int(entry.depth)
				bound = Bound(entry.bound_gen & 3)
				ok = true
				break
			}
		}
		atomic.StoreInt32(gate, 0)
	}
	return
}

func (tt *TransTable) Update(hash uint64, depth, score int, bound Bound, move common.Move) {
	index := uint32(hash) & tt.mask
	entries := tt.entries[index : index+clusterSize]
	gate := &entries[0].gate
	if atomic.CompareAndSwapInt32(gate, 0, 1) {
		var bestEntry *transEntry
		bestScore := -32767
		for i := range entries {
			entry := &entries[i]
			if entry.key32 == uint32(hash>>32) {
				bestEntry = entry
				break
			}
			s := transEntryScore(entry.depth, entry.bound_gen>>2, tt.generation)
			if s > bestScore {
				bestScore = s
				bestEntry = entry
			}
		}
		bestEntry.key32 = uint32(hash >> 32)
		bestEntry.move = move
		bestEntry.score = int16(score)
		bestEntry.depth = int8(depth)
		bestEntry.bound_gen = uint8(bound) + (tt.generation << 2)
		atomic.StoreInt32(gate, 0)
	}
}

func transEntryScore(depth int8, gen, curGen uint8) int {
	score := -int(depth)
	if gen != curGen {
		score += 100
	}
	return score
}
