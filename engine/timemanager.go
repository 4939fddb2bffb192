package engine

import (
	"context"
	"time"
)

// SearchLimits bounds one call to Engine.Search: any zero field is
// unbounded. MoveTime, if set, is a hard wall-clock budget; Depth and
// Nodes bound the iterative-deepening loop and the node counter
// respectively, matching spec.md §6's external Search parameters.
type SearchLimits struct {
	MoveTime time.Duration
	Depth    int
	Nodes    int64
}

// timeManager tracks elapsed wall time and the node counter, and is
// polled periodically rather than after every node — spec.md §5's
// cooperative-cancellation model, grounded on the teacher's
// timeManager/context.WithTimeout pair.
type timeManager struct {
	start     time.Time
	nodes     int64
	nodeLimit int64
}

func (tm *timeManager) Nodes() int64 { return tm.nodes }

func (tm *timeManager) AddNode() { tm.nodes++ }

// NodeLimitReached reports whether the search has reached the node budget
// passed in SearchLimits.Nodes; a zero limit means unbounded.
func (tm *timeManager) NodeLimitReached() bool {
	return tm.nodeLimit > 0 && tm.nodes >= tm.nodeLimit
}

func (tm *timeManager) ElapsedMilliseconds() int64 {
	return int64(time.Since(tm.start) / time.Millisecond)
}

// NewTimeManager starts the clock and derives a cancellable context bound
// by limits.MoveTime, the same pattern as the teacher's NewTimeManager
// deriving a context.WithTimeout from LimitsType. limits.Nodes is carried
// through as the node budget polled alongside the context.
func NewTimeManager(parent context.Context, limits SearchLimits) (*timeManager, context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	tm := &timeManager{start: time.Now(), nodeLimit: limits.Nodes}
	var ctx context.Context
	var cancel context.CancelFunc
	if limits.MoveTime > 0 {
		ctx, cancel = context.WithTimeout(parent, limits.MoveTime)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	return tm, ctx, cancel
}
