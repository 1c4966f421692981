// Package strategy implements the pluggable decision oracle the scheduler
// consults at every scheduling point and nondeterministic choice point.
//
// Every Strategy in this package is single-threaded by construction: the
// scheduler is the only caller, and it only calls in while holding the
// turn (see scheduler.Scheduler). Given the same seed and the same
// sequence of (runnable, current) queries, a deterministic Strategy must
// answer the same sequence.
package strategy

import "github.com/mchecker/machinecheck/machine"

// Strategy is the decision oracle. Each method returns ok=false to
// signal that the current schedule has been exhausted; the scheduler
// then ends the iteration normally or reports a livelock, depending on
// what else is runnable.
type Strategy interface {
	// TryGetNext selects the next machine to run from runnable, which the
	// scheduler always presents sorted by machine id. current is the
	// machine that was active immediately before this call, or nil if
	// none has run yet this iteration.
	TryGetNext(runnable []*machine.Info, current *machine.Info) (next *machine.Info, ok bool)

	// NextBool draws a nondeterministic boolean. maxValue is a hint (a
	// probability denominator) a probabilistic strategy may use to bias
	// the draw; deterministic strategies ignore it.
	NextBool(maxValue int) (value bool, ok bool)

	// NextInt draws a nondeterministic integer in [0, maxValue).
	NextInt(maxValue int) (value int, ok bool)

	// ExploredSteps returns the number of scheduling/choice decisions
	// made so far in the current iteration.
	ExploredSteps() int
	// MaxStepsReached reports whether a configured step bound has been
	// hit for the current iteration.
	MaxStepsReached() bool
	// IsFair reports whether this strategy guarantees progress for every
	// always-enabled machine in the limit.
	IsFair() bool
	// HasFinished reports whether the strategy has exhausted everything
	// it intends to explore across iterations (e.g. a DFS that has
	// popped its last prefix). Once true, the driver's outer loop stops.
	HasFinished() bool

	// ConfigureNextIteration prepares internal state for the next
	// iteration while preserving whatever cross-iteration state the
	// strategy is defined to keep (e.g. a DFS's unexplored-prefix
	// stack). Called once per iteration, after the previous one ends.
	ConfigureNextIteration()
	// Reset restores the strategy to its freshly constructed state,
	// discarding all cross-iteration state.
	Reset()
	// Description returns a short, human-readable description of the
	// strategy and its configuration, included in bug reports.
	Description() string
}
