package strategy

import (
	"fmt"
	"math/rand"

	"github.com/mchecker/machinecheck/machine"
)

// PriorityBounded is a PCT-style strategy: it assigns every machine a
// random priority at the start of the iteration and always runs the
// highest-priority runnable machine, occasionally demoting the
// currently-highest priority machine to the bottom of the order at a
// bounded number of "priority-change points": while budget remains,
// each scheduling decision has a 1-in-4 chance of being one, so change
// points cluster towards the start of an iteration rather than being
// spread uniformly over it.
type PriorityBounded struct {
	seed          int64
	rng           *rand.Rand
	maxSwaps      int
	swapsLeft     int
	priority      []int // priority[machineId] = rank, lower is higher priority
	nextRank      int
	steps         int
}

// NewPriorityBounded creates a priority-bounded strategy seeded with seed
// that permits at most maxSwaps priority demotions per iteration.
func NewPriorityBounded(seed int64, maxSwaps int) *PriorityBounded {
	return &PriorityBounded{
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		maxSwaps: maxSwaps,
		swapsLeft: maxSwaps,
	}
}

func (p *PriorityBounded) rankOf(id int) int {
	for len(p.priority) <= id {
		// Insert the newly discovered machine at a random position in the
		// current order, shifting every rank at or below it down by one.
		pos := p.rng.Intn(len(p.priority) + 1)
		for i, r := range p.priority {
			if r >= pos {
				p.priority[i] = r + 1
			}
		}
		p.priority = append(p.priority, pos)
		p.nextRank++
	}
	return p.priority[id]
}

func (p *PriorityBounded) TryGetNext(runnable []*machine.Info, _ *machine.Info) (*machine.Info, bool) {
	if len(runnable) == 0 {
		return nil, false
	}
	p.steps++
	best := runnable[0]
	bestRank := p.rankOf(best.Id.Value)
	for _, m := range runnable[1:] {
		r := p.rankOf(m.Id.Value)
		if r < bestRank {
			best, bestRank = m, r
		}
	}
	if p.swapsLeft > 0 && p.rng.Intn(4) == 0 {
		p.swapsLeft--
		p.priority[best.Id.Value] = p.nextRank
		p.nextRank++
	}
	return best, true
}

func (p *PriorityBounded) NextBool(maxValue int) (bool, bool) {
	p.steps++
	if maxValue <= 0 {
		maxValue = 2
	}
	return p.rng.Intn(maxValue) == 0, true
}

func (p *PriorityBounded) NextInt(maxValue int) (int, bool) {
	p.steps++
	if maxValue <= 0 {
		return 0, true
	}
	return p.rng.Intn(maxValue), true
}

func (p *PriorityBounded) ExploredSteps() int    { return p.steps }
func (p *PriorityBounded) MaxStepsReached() bool { return false }
func (p *PriorityBounded) IsFair() bool          { return false }
func (p *PriorityBounded) HasFinished() bool     { return false }

func (p *PriorityBounded) ConfigureNextIteration() {
	p.steps = 0
	p.swapsLeft = p.maxSwaps
	p.priority = p.priority[:0]
	p.nextRank = 0
	// Re-derive a fresh random priority order for the new iteration's
	// machines as they are discovered by rankOf.
}

func (p *PriorityBounded) Reset() {
	p.rng = rand.New(rand.NewSource(p.seed))
	p.ConfigureNextIteration()
}

func (p *PriorityBounded) Description() string {
	return fmt.Sprintf("PriorityBounded(seed=%d, maxSwaps=%d)", p.seed, p.maxSwaps)
}
