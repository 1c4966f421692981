package strategy

import (
	"fmt"
	"math/rand"

	"github.com/mchecker/machinecheck/machine"
)

// Random is a seeded random-walk strategy: at every scheduling point it
// draws uniformly from the runnable set, and every nondeterministic
// choice is a uniform draw over the hinted range.
//
// Random never reports HasFinished or MaxStepsReached on its own; those
// are driven by the scheduler's own step-bound configuration. It never
// exhausts a schedule either: TryGetNext only returns ok=false when
// runnable is empty.
type Random struct {
	seed   int64
	rng    *rand.Rand
	steps  int
}

// NewRandom creates a Random strategy seeded with seed. The same seed
// reproduces the same sequence of decisions given the same sequence of
// queries, satisfying the purity contract.
func NewRandom(seed int64) *Random {
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (r *Random) TryGetNext(runnable []*machine.Info, _ *machine.Info) (*machine.Info, bool) {
	if len(runnable) == 0 {
		return nil, false
	}
	r.steps++
	return runnable[r.rng.Intn(len(runnable))], true
}

func (r *Random) NextBool(maxValue int) (bool, bool) {
	r.steps++
	if maxValue <= 0 {
		maxValue = 2
	}
	return r.rng.Intn(maxValue) == 0, true
}

func (r *Random) NextInt(maxValue int) (int, bool) {
	r.steps++
	if maxValue <= 0 {
		return 0, true
	}
	return r.rng.Intn(maxValue), true
}

func (r *Random) ExploredSteps() int      { return r.steps }
func (r *Random) MaxStepsReached() bool   { return false }
func (r *Random) IsFair() bool            { return false }
func (r *Random) HasFinished() bool       { return false }
func (r *Random) ConfigureNextIteration() { r.steps = 0 }
func (r *Random) Reset() {
	r.steps = 0
	r.rng = rand.New(rand.NewSource(r.seed))
}
func (r *Random) Description() string {
	return fmt.Sprintf("Random(seed=%d)", r.seed)
}
