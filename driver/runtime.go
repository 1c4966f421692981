package driver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/scheduler"
)

// Runtime is what the IterationDriver hands to the user-supplied entry
// function: a fresh scheduler plus the bookkeeping needed to mint
// worker handles and machine ids for the iteration. The driver marks it
// disposed when the next iteration starts, and every operation checks
// that flag, so that a reference captured by user code across
// iterations (e.g. via a closure) is caught deterministically rather
// than silently operating on a torn-down scheduler.
type Runtime struct {
	ID        uuid.UUID
	Scheduler *scheduler.Scheduler

	mu            sync.Mutex
	nextHandle    uint64
	nextMachineId int
	disposed      bool
}

func newRuntime(sched *scheduler.Scheduler) *Runtime {
	return &Runtime{
		ID:         uuid.New(),
		Scheduler:  sched,
		nextHandle: uint64(machine.RootHandle) + 1,
	}
}

// Check returns ErrDisposedRuntime once this Runtime has been retired by
// a later call to the driver's Run loop. Every entry point into a
// Runtime (machine creation, scheduling helpers) must call this first.
func (r *Runtime) Check() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return ErrDisposedRuntime
	}
	return nil
}

func (r *Runtime) dispose() {
	r.mu.Lock()
	r.disposed = true
	r.mu.Unlock()
}

// NewHandle mints a fresh, runtime-local worker handle, never reusing
// machine.RootHandle. Returns ErrDisposedRuntime instead if this Runtime
// has already been retired by a later iteration.
func (r *Runtime) NewHandle() (machine.WorkerHandle, error) {
	if err := r.Check(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.nextHandle
	r.nextHandle++
	return machine.WorkerHandle(h), nil
}

// NewMachineId mints a dense, zero-based machine.Id for this iteration,
// with the given friendly name. Returns ErrDisposedRuntime instead if
// this Runtime has already been retired by a later iteration.
func (r *Runtime) NewMachineId(name string) (machine.Id, error) {
	if err := r.Check(); err != nil {
		return machine.Id{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := machine.Id{Value: r.nextMachineId, Name: name}
	r.nextMachineId++
	return id, nil
}
