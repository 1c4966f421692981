package strategy

import (
	"fmt"

	"github.com/mchecker/machinecheck/machine"
)

// Combo runs a prefix Strategy for the first SafetyPrefixDepth decisions
// of each iteration, then hands off to a suffix Strategy for the rest.
// The intent is to explore the early, safety-critical interleavings of a
// run exhaustively (prefix = DFS) while covering the long tail cheaply
// (suffix = Random), but any two strategies can be paired.
//
// It delegates to the prefix strategy up to the depth bound and falls
// back to the suffix strategy afterward, as an explicit depth-keyed
// handoff between two arbitrary Strategy values.
type Combo struct {
	prefix     Strategy
	suffix     Strategy
	prefixDepth int

	usingSuffix bool
}

// NewCombo creates a Combo that defers to suffix once the iteration's
// explored-step count reaches prefixDepth.
func NewCombo(prefix, suffix Strategy, prefixDepth int) *Combo {
	return &Combo{prefix: prefix, suffix: suffix, prefixDepth: prefixDepth}
}

func (c *Combo) active() Strategy {
	if c.usingSuffix {
		return c.suffix
	}
	return c.prefix
}

func (c *Combo) maybeHandOff() {
	if !c.usingSuffix && c.prefix.ExploredSteps() >= c.prefixDepth {
		c.usingSuffix = true
	}
}

func (c *Combo) TryGetNext(runnable []*machine.Info, current *machine.Info) (*machine.Info, bool) {
	c.maybeHandOff()
	return c.active().TryGetNext(runnable, current)
}

func (c *Combo) NextBool(maxValue int) (bool, bool) {
	c.maybeHandOff()
	return c.active().NextBool(maxValue)
}

func (c *Combo) NextInt(maxValue int) (int, bool) {
	c.maybeHandOff()
	return c.active().NextInt(maxValue)
}

// ExploredSteps reports the prefix strategy's own count while still in
// the prefix phase, and the combined count once the suffix has taken
// over.
func (c *Combo) ExploredSteps() int {
	if c.usingSuffix {
		return c.prefix.ExploredSteps() + c.suffix.ExploredSteps()
	}
	return c.prefix.ExploredSteps()
}

func (c *Combo) MaxStepsReached() bool { return c.active().MaxStepsReached() }
func (c *Combo) IsFair() bool          { return c.usingSuffix && c.suffix.IsFair() }

// HasFinished is true once the prefix strategy has exhausted everything
// it intends to explore; the suffix strategy is expected to be an
// unbounded explorer (e.g. Random) that never finishes on its own.
func (c *Combo) HasFinished() bool { return c.prefix.HasFinished() }

func (c *Combo) ConfigureNextIteration() {
	c.prefix.ConfigureNextIteration()
	c.suffix.ConfigureNextIteration()
	c.usingSuffix = false
}

func (c *Combo) Reset() {
	c.prefix.Reset()
	c.suffix.Reset()
	c.usingSuffix = false
}

func (c *Combo) Description() string {
	return fmt.Sprintf("Combo(prefix=%s, suffix=%s, prefixDepth=%d)",
		c.prefix.Description(), c.suffix.Description(), c.prefixDepth)
}
