package strategy

import (
	"fmt"

	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/trace"
)

// Replay deterministically reproduces a previously recorded Trace: it
// takes the next recorded entry off the run and resolves it
// against whatever is on offer at that scheduling point, erroring out
// (via ok=false) if the run has ended or what is on offer no longer
// matches.
type Replay struct {
	run   []trace.Entry
	index int
	done  bool

	mismatch error
}

// NewReplay creates a Replay strategy that reproduces run exactly once.
func NewReplay(run []trace.Entry) *Replay {
	return &Replay{run: run}
}

// Mismatch returns the error recorded the first time a replayed choice
// failed to find a matching candidate, or nil if none occurred.
func (r *Replay) Mismatch() error { return r.mismatch }

func (r *Replay) next() (trace.Entry, bool) {
	if r.done || r.index >= len(r.run) {
		r.done = true
		return trace.Entry{}, false
	}
	e := r.run[r.index]
	r.index++
	return e, true
}

func (r *Replay) TryGetNext(runnable []*machine.Info, _ *machine.Info) (*machine.Info, bool) {
	entry, ok := r.next()
	if !ok {
		return nil, false
	}
	for _, m := range runnable {
		if m.Id.Value == entry.MachineId {
			return m, true
		}
	}
	r.mismatch = fmt.Errorf("replay: recorded schedule choice of machine %d not found among runnable machines", entry.MachineId)
	return nil, false
}

func (r *Replay) NextBool(_ int) (bool, bool) {
	entry, ok := r.next()
	if !ok {
		return false, false
	}
	return entry.BoolValue, true
}

func (r *Replay) NextInt(_ int) (int, bool) {
	entry, ok := r.next()
	if !ok {
		return 0, false
	}
	return entry.IntValue, true
}

func (r *Replay) ExploredSteps() int    { return r.index }
func (r *Replay) MaxStepsReached() bool { return false }
func (r *Replay) IsFair() bool          { return false }
func (r *Replay) HasFinished() bool     { return r.done }

// ConfigureNextIteration resets the replay index to the start of the
// run, mirroring replayScheduler.EndRun. Replay is meant for a single
// iteration, but resetting the index keeps it well-defined if reused.
func (r *Replay) ConfigureNextIteration() {
	r.index = 0
	r.done = false
	r.mismatch = nil
}

func (r *Replay) Reset() { r.ConfigureNextIteration() }

func (r *Replay) Description() string {
	return fmt.Sprintf("Replay(len=%d)", len(r.run))
}
