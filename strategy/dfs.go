package strategy

import (
	"github.com/mchecker/machinecheck/machine"
)

// DFS is a deterministic, exhaustive explorer. It maintains a stack of
// unexplored decision prefixes and, for every run, follows the top of the
// stack before branching into virgin territory by picking the
// lowest-indexed alternative and pushing the rest for later iterations.
// Prefixes are positional choice indices rather than raw event ids, so
// the same machinery covers schedule choices and nondeterministic
// bool/int choices uniformly.
//
// DFS assumes the program under test is otherwise deterministic: replaying
// the same prefix must present the same candidate list at the same depth.
type DFS struct {
	// pending is the stack of unexplored prefixes, each a sequence of
	// positional choice indices.
	pending [][]int
	// current is the prefix this run must follow exactly.
	current []int
	// path is the sequence of choice indices made so far this run.
	path []int

	finished bool
}

func NewDFS() *DFS {
	return &DFS{
		pending: make([][]int, 0),
		current: []int{},
		path:    []int{},
	}
}

func (d *DFS) pickIndex(n int) int {
	depth := len(d.path)
	var idx int
	if depth < len(d.current) {
		idx = d.current[depth]
		if idx >= n {
			// The candidate set shrank relative to the recorded prefix;
			// this can only happen if the program under test is not
			// deterministic given the same choice prefix. Fall back to
			// the last legal alternative rather than panicking.
			idx = n - 1
		}
	} else {
		idx = 0
		for alt := n - 1; alt >= 1; alt-- {
			prefix := make([]int, depth+1)
			copy(prefix, d.path)
			prefix[depth] = alt
			d.pending = append(d.pending, prefix)
		}
	}
	d.path = append(d.path, idx)
	return idx
}

func (d *DFS) TryGetNext(runnable []*machine.Info, _ *machine.Info) (*machine.Info, bool) {
	if len(runnable) == 0 {
		return nil, false
	}
	idx := d.pickIndex(len(runnable))
	return runnable[idx], true
}

func (d *DFS) NextBool(_ int) (bool, bool) {
	idx := d.pickIndex(2)
	return idx == 1, true
}

func (d *DFS) NextInt(maxValue int) (int, bool) {
	if maxValue <= 0 {
		d.path = append(d.path, 0)
		return 0, true
	}
	return d.pickIndex(maxValue), true
}

func (d *DFS) ExploredSteps() int      { return len(d.path) }
func (d *DFS) MaxStepsReached() bool   { return false }
func (d *DFS) IsFair() bool            { return false }
func (d *DFS) HasFinished() bool       { return d.finished }

// ConfigureNextIteration pops the next unexplored prefix off the stack. If
// the stack is empty the entire state space has been explored and
// HasFinished becomes true.
func (d *DFS) ConfigureNextIteration() {
	d.path = d.path[:0]
	if len(d.pending) == 0 {
		d.finished = true
		d.current = nil
		return
	}
	d.current = d.pending[len(d.pending)-1]
	d.pending = d.pending[:len(d.pending)-1]
}

func (d *DFS) Reset() {
	d.pending = d.pending[:0]
	d.current = []int{}
	d.path = d.path[:0]
	d.finished = false
}

func (d *DFS) Description() string { return "DFS(exhaustive)" }
