package driver

import (
	"sync"

	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/strategy"
)

// lockedStrategy serializes every call into an inner Strategy behind a
// mutex. Strategy is single-threaded by construction: only the scheduler
// calls into it, and only while holding the turn. That holds automatically
// when the driver runs one iteration at a time; this wrapper is what keeps
// it holding when Options.NumConcurrentIterations lets several iterations'
// schedulers call into the same shared Strategy concurrently.
type lockedStrategy struct {
	mu    sync.Mutex
	inner strategy.Strategy
}

func newLockedStrategy(inner strategy.Strategy) *lockedStrategy {
	return &lockedStrategy{inner: inner}
}

func (l *lockedStrategy) TryGetNext(runnable []*machine.Info, current *machine.Info) (*machine.Info, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.TryGetNext(runnable, current)
}

func (l *lockedStrategy) NextBool(maxValue int) (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.NextBool(maxValue)
}

func (l *lockedStrategy) NextInt(maxValue int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.NextInt(maxValue)
}

func (l *lockedStrategy) ExploredSteps() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.ExploredSteps()
}

func (l *lockedStrategy) MaxStepsReached() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.MaxStepsReached()
}

func (l *lockedStrategy) IsFair() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.IsFair()
}

func (l *lockedStrategy) HasFinished() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.HasFinished()
}

func (l *lockedStrategy) ConfigureNextIteration() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.ConfigureNextIteration()
}

func (l *lockedStrategy) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Reset()
}

func (l *lockedStrategy) Description() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Description()
}
