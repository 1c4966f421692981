package strategy

import (
	"fmt"

	"github.com/mchecker/machinecheck/machine"
)

// IDDFS wraps DFS with an iterative-deepening depth cutoff: it explores
// exhaustively up to depthLimit decisions, and once that bounded search is
// fully exhausted it restarts DFS from scratch with depthLimit widened by
// increment, up to maxDepth.
type IDDFS struct {
	inner      *DFS
	initDepth  int
	depthLimit int
	increment  int
	maxDepth   int
	rounds     int
}

// NewIDDFS creates an IDDFS strategy. initialDepth is the first round's
// cutoff, increment is how much the cutoff grows each time a round is
// fully exhausted, and maxDepth caps the cutoff (0 means unbounded
// widening).
func NewIDDFS(initialDepth, increment, maxDepth int) *IDDFS {
	if initialDepth < 1 {
		initialDepth = 1
	}
	if increment < 1 {
		increment = 1
	}
	return &IDDFS{
		inner:      NewDFS(),
		initDepth:  initialDepth,
		depthLimit: initialDepth,
		increment:  increment,
		maxDepth:   maxDepth,
	}
}

func (i *IDDFS) TryGetNext(runnable []*machine.Info, current *machine.Info) (*machine.Info, bool) {
	if i.inner.ExploredSteps() >= i.depthLimit {
		return nil, false
	}
	return i.inner.TryGetNext(runnable, current)
}

func (i *IDDFS) NextBool(maxValue int) (bool, bool) {
	if i.inner.ExploredSteps() >= i.depthLimit {
		return false, false
	}
	return i.inner.NextBool(maxValue)
}

func (i *IDDFS) NextInt(maxValue int) (int, bool) {
	if i.inner.ExploredSteps() >= i.depthLimit {
		return 0, false
	}
	return i.inner.NextInt(maxValue)
}

func (i *IDDFS) ExploredSteps() int    { return i.inner.ExploredSteps() }
func (i *IDDFS) MaxStepsReached() bool { return i.inner.ExploredSteps() >= i.depthLimit }
func (i *IDDFS) IsFair() bool          { return false }

// HasFinished is true once the deepest allowed round has been fully
// exhausted.
func (i *IDDFS) HasFinished() bool {
	return i.inner.HasFinished() && i.maxDepth > 0 && i.depthLimit >= i.maxDepth
}

func (i *IDDFS) ConfigureNextIteration() {
	i.inner.ConfigureNextIteration()
	if i.inner.HasFinished() && !i.HasFinished() {
		i.depthLimit += i.increment
		if i.maxDepth > 0 && i.depthLimit > i.maxDepth {
			i.depthLimit = i.maxDepth
		}
		i.rounds++
		i.inner.Reset()
	}
}

func (i *IDDFS) Reset() {
	i.inner.Reset()
	i.depthLimit = i.initDepth
	i.rounds = 0
}

func (i *IDDFS) Description() string {
	return fmt.Sprintf("IDDFS(depthLimit=%d, round=%d)", i.depthLimit, i.rounds)
}
