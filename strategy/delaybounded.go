package strategy

import (
	"fmt"
	"math/rand"

	"github.com/mchecker/machinecheck/machine"
)

// DelayBounded runs machines in round-robin order but permits a bounded
// number of deviations per iteration, each a random skip-ahead to a
// different runnable machine. With maxDelays=0 it degenerates to pure
// round robin; larger budgets explore schedules progressively further
// from round robin without the unconstrained shuffling of Random.
type DelayBounded struct {
	seed        int64
	rng         *rand.Rand
	maxDelays   int
	delaysLeft  int
	rrCursor    int
	steps       int
}

// NewDelayBounded creates a delay-bounded strategy seeded with seed that
// permits at most maxDelays deviations from round-robin order per
// iteration.
func NewDelayBounded(seed int64, maxDelays int) *DelayBounded {
	return &DelayBounded{
		seed:      seed,
		rng:       rand.New(rand.NewSource(seed)),
		maxDelays: maxDelays,
		delaysLeft: maxDelays,
	}
}

func (d *DelayBounded) TryGetNext(runnable []*machine.Info, _ *machine.Info) (*machine.Info, bool) {
	if len(runnable) == 0 {
		return nil, false
	}
	d.steps++
	idx := d.rrCursor % len(runnable)
	if d.delaysLeft > 0 && len(runnable) > 1 && d.rng.Intn(3) == 0 {
		d.delaysLeft--
		idx = (idx + 1 + d.rng.Intn(len(runnable)-1)) % len(runnable)
	}
	d.rrCursor = idx + 1
	return runnable[idx], true
}

func (d *DelayBounded) NextBool(maxValue int) (bool, bool) {
	d.steps++
	if maxValue <= 0 {
		maxValue = 2
	}
	return d.rng.Intn(maxValue) == 0, true
}

func (d *DelayBounded) NextInt(maxValue int) (int, bool) {
	d.steps++
	if maxValue <= 0 {
		return 0, true
	}
	return d.rng.Intn(maxValue), true
}

func (d *DelayBounded) ExploredSteps() int    { return d.steps }
func (d *DelayBounded) MaxStepsReached() bool { return false }
func (d *DelayBounded) IsFair() bool          { return true }
func (d *DelayBounded) HasFinished() bool     { return false }

func (d *DelayBounded) ConfigureNextIteration() {
	d.steps = 0
	d.rrCursor = 0
	d.delaysLeft = d.maxDelays
}

func (d *DelayBounded) Reset() {
	d.rng = rand.New(rand.NewSource(d.seed))
	d.ConfigureNextIteration()
}

func (d *DelayBounded) Description() string {
	return fmt.Sprintf("DelayBounded(seed=%d, maxDelays=%d)", d.seed, d.maxDelays)
}
