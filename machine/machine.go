// Package machine holds the scheduler's bookkeeping record for a single
// live machine: its identity, its worker handle, and the flags the
// scheduler flips as the machine moves through Created, Started, Active,
// Parked, WaitingReceive/Enabled and Completed/Cancelled.
package machine

import (
	"fmt"
	"sync"
)

// RootHandle identifies the driver's own goroutine, which never runs a
// machine and is exempt from the Schedule() contract.
const RootHandle WorkerHandle = 0

// WorkerHandle identifies the goroutine currently running a machine.
//
// It is runtime-local and monotonically assigned (never an OS thread id):
// the scheduler's TaskMap relies on there being at most one live
// registration per handle, which only holds if handles are minted by the
// runtime itself.
type WorkerHandle uint64

// Id is a dense, zero-based machine identifier assigned in creation order,
// plus an optional friendly name used only for messages and traces.
// Equality is by integer.
type Id struct {
	Value int
	Name  string
}

func (id Id) Equal(other Id) bool {
	return id.Value == other.Value
}

func (id Id) String() string {
	if id.Name != "" {
		return fmt.Sprintf("%s(%d)", id.Name, id.Value)
	}
	return fmt.Sprintf("M%d", id.Value)
}

// Info is the scheduler's per-machine record. The scheduler is the sole
// owner: the actor layer holds only a weak back-reference via Id.
type Info struct {
	Id     Id
	Handle WorkerHandle

	// IsActive is true for exactly one Info between scheduling points.
	IsActive bool
	// IsEnabled is false once halted, completed, or cancelled. Blocking
	// on a receive leaves it true; IsWaitingToReceive alone keeps such a
	// machine out of the runnable set.
	IsEnabled bool
	// IsWaitingToReceive is set while the machine is blocked on a typed
	// receive; such a machine is not a candidate for TryGetNext.
	IsWaitingToReceive bool
	// IsCompleted is set once the worker backing this machine has
	// returned.
	IsCompleted bool
	// HasStarted is set once the worker has registered and parked for
	// its first turn.
	HasStarted bool

	// ProgramCounter increments on every nondeterministic boolean/integer
	// choice consumed while this machine is active; reset to 0 each time
	// it is scheduled. Lets a state-cache hook distinguish a scheduling
	// choice from a machine-local choice at the same step.
	ProgramCounter int

	// park is the per-machine parking primitive: a buffered channel of
	// size 1, parked until granted the turn.
	park chan struct{}

	startedOnce sync.Once
	startedCh   chan struct{}
}

// NewInfo creates a fresh, not-yet-started Info for the given id and
// worker handle.
func NewInfo(id Id, handle WorkerHandle) *Info {
	return &Info{
		Id:        id,
		Handle:    handle,
		IsEnabled: true,
		park:      make(chan struct{}, 1),
		startedCh: make(chan struct{}),
	}
}

// MarkStarted idempotently signals that the worker backing this Info has
// registered and is about to park for its first turn, waking anyone
// blocked in WaitStarted.
func (m *Info) MarkStarted() {
	m.startedOnce.Do(func() { close(m.startedCh) })
}

// WaitStarted returns a channel that closes once MarkStarted has been
// called, letting a machine's creator block until the child has
// registered.
func (m *Info) WaitStarted() <-chan struct{} {
	return m.startedCh
}

// Park blocks the calling goroutine until Unpark is called for this Info.
func (m *Info) Park() {
	<-m.park
}

// Unpark wakes a goroutine blocked in Park. Safe to call even if nothing
// is currently parked; never blocks.
func (m *Info) Unpark() {
	select {
	case m.park <- struct{}{}:
	default:
	}
}

// Runnable reports whether m is a candidate for Strategy.TryGetNext: it
// must be enabled and not blocked on a receive.
func (m *Info) Runnable() bool {
	return m.IsEnabled && !m.IsWaitingToReceive && !m.IsCompleted
}
