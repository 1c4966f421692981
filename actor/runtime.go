// Package actor is the minimal state-machine semantic layer that
// exercises the scheduler from outside: machines, an inbox, and handler
// dispatch, reduced to exactly the surface driver.Runtime and
// scheduler.Scheduler need to be driven end to end. It deliberately has
// no states/transitions DSL and no typed events beyond any.
package actor

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mchecker/machinecheck/driver"
	"github.com/mchecker/machinecheck/machine"
)

// Machine is the unit of execution the scheduler drives. Start runs on
// its own goroutine once the scheduler grants it the turn for the first
// time.
type Machine interface {
	Start(ctx *Context)
}

// Runtime wraps one iteration's driver.Runtime with the machine
// registry Send needs to resolve a recipient Id to its Context.
type Runtime struct {
	*driver.Runtime

	mu       sync.Mutex
	contexts map[machine.Id]*Context
}

// NewRuntime wraps dr for use by the actor layer. Call this once at the
// top of an EntryFunc.
func NewRuntime(dr *driver.Runtime) *Runtime {
	return &Runtime{Runtime: dr, contexts: make(map[machine.Id]*Context)}
}

// CreateMachine spawns m's worker goroutine, registers it with the
// scheduler, and blocks the caller until the child has started: the
// causality guarantee of WaitForTaskToStart.
//
// CreateMachine panics with ErrDisposedRuntime if r was captured from an
// earlier iteration and has since been retired: the panic unwinds
// through the caller's EntryFunc (or, if called from inside a running
// Machine, through runMachine's own recover) rather than silently
// minting handles against a torn-down scheduler.
func (r *Runtime) CreateMachine(m Machine) machine.Id {
	handle, err := r.NewHandle()
	if err != nil {
		panic(err)
	}
	id, err := r.NewMachineId(typeName(m))
	if err != nil {
		panic(err)
	}

	ctx := newContext(r, handle, id)
	r.mu.Lock()
	r.contexts[id] = ctx
	r.mu.Unlock()

	r.Scheduler.NotifyNewTaskCreated(handle, id)
	go runMachine(r, id, handle, m, ctx)
	r.Scheduler.WaitForTaskToStart(handle)
	return id
}

func (r *Runtime) contextFor(id machine.Id) *Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contexts[id]
}

func typeName(m Machine) string {
	t := reflect.TypeOf(m)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// cancelSignal is the panic value Context methods raise once the
// scheduler reports ErrExecutionCancelled. It is caught only by
// runMachine's deferred guard, never by user code: cancellation
// propagates via a scoped recover at the worker's outer frame rather
// than a checked error return on every blocking call.
type cancelSignal struct{}

// haltSignal is the panic value Context.Halt raises: a voluntary,
// successful machine termination, distinct from cancelSignal so
// runMachine still reports it to the scheduler as a normal completion.
type haltSignal struct{}

func runMachine(r *Runtime, id machine.Id, handle machine.WorkerHandle, m Machine, ctx *Context) {
	defer func() {
		switch rec := recover().(type) {
		case nil:
			r.Scheduler.NotifyTaskCompleted(handle)
		case cancelSignal:
			// Execution was cancelled elsewhere; the scheduler is
			// already tearing down, nothing more to report.
		case haltSignal:
			r.Scheduler.NotifyTaskCompleted(handle)
		default:
			r.Scheduler.NotifyUnhandledException(fmt.Errorf("machine %s: %v", id, rec))
		}
	}()

	if err := r.Scheduler.NotifyTaskStarted(handle); err != nil {
		panic(cancelSignal{})
	}
	m.Start(ctx)
}
