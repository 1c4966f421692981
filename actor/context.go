package actor

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/mchecker/machinecheck/machine"
)

// Context is the handle a running Machine uses to interact with the
// scheduler: send and receive events, make nondeterministic choices,
// spawn children, and assert invariants.
type Context struct {
	rt     *Runtime
	handle machine.WorkerHandle
	id     machine.Id

	inboxMu sync.Mutex
	inbox   []any

	stateStack []string
}

func newContext(rt *Runtime, handle machine.WorkerHandle, id machine.Id) *Context {
	return &Context{rt: rt, handle: handle, id: id}
}

// Id returns this machine's identity.
func (c *Context) Id() machine.Id { return c.id }

// CreateMachine spawns a child machine from inside a running one.
func (c *Context) CreateMachine(m Machine) machine.Id {
	return c.rt.CreateMachine(m)
}

// Send delivers evt to the machine identified by to, waking it if it is
// blocked in Receive, then yields the turn via Schedule.
func (c *Context) Send(to machine.Id, evt any) {
	target := c.rt.contextFor(to)
	if target == nil {
		c.rt.Scheduler.NotifyAssertionFailure(fmt.Sprintf("machine %s sent an event to unknown machine %s", c.id, to))
		panic(cancelSignal{})
	}
	target.enqueue(evt)
	c.rt.Scheduler.NotifyTaskReceivedEvent(to)
	if err := c.rt.Scheduler.Schedule(c.handle); err != nil {
		panic(cancelSignal{})
	}
}

// Raise enqueues evt at the front of this machine's own inbox, handled
// before anything already pending, then yields the turn.
func (c *Context) Raise(evt any) {
	c.inboxMu.Lock()
	c.inbox = append([]any{evt}, c.inbox...)
	c.inboxMu.Unlock()
	if err := c.rt.Scheduler.Schedule(c.handle); err != nil {
		panic(cancelSignal{})
	}
}

// Receive blocks until an event whose dynamic type matches one of types
// arrives (any event if types is empty), and returns it.
func (c *Context) Receive(types ...reflect.Type) any {
	for {
		if evt, ok := c.takeMatching(types); ok {
			return evt
		}
		if err := c.rt.Scheduler.NotifyTaskBlockedOnEvent(c.handle); err != nil {
			panic(cancelSignal{})
		}
		if err := c.rt.Scheduler.Schedule(c.handle); err != nil {
			panic(cancelSignal{})
		}
	}
}

func (c *Context) takeMatching(types []reflect.Type) (any, bool) {
	c.inboxMu.Lock()
	defer c.inboxMu.Unlock()
	for i, evt := range c.inbox {
		if matches(evt, types) {
			c.inbox = append(c.inbox[:i], c.inbox[i+1:]...)
			return evt, true
		}
	}
	return nil, false
}

func matches(evt any, types []reflect.Type) bool {
	if len(types) == 0 {
		return true
	}
	t := reflect.TypeOf(evt)
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}

func (c *Context) enqueue(evt any) {
	c.inboxMu.Lock()
	c.inbox = append(c.inbox, evt)
	c.inboxMu.Unlock()
}

// Halt terminates this machine successfully. It never returns.
func (c *Context) Halt() {
	panic(haltSignal{})
}

// PushState records name on this machine's state stack.
func (c *Context) PushState(name string) {
	c.stateStack = append(c.stateStack, name)
}

// PopState pops the most recently pushed state. A pop with no matching
// push is a machine-layer fault, surfaced through NotifyAssertionFailure.
func (c *Context) PopState() {
	if len(c.stateStack) == 0 {
		c.rt.Scheduler.NotifyAssertionFailure(fmt.Sprintf("Machine '%s()' popped with no matching push.", c.id.Name))
		panic(cancelSignal{})
	}
	c.stateStack = c.stateStack[:len(c.stateStack)-1]
}

// Random draws a nondeterministic boolean biased by max (a probability
// denominator a probabilistic strategy may use); deterministic
// strategies ignore it.
func (c *Context) Random(max int) bool {
	v, err := c.rt.Scheduler.GetNextBoolChoice(c.handle, max, "")
	if err != nil {
		panic(cancelSignal{})
	}
	return v
}

// RandomInt draws a nondeterministic integer in [0, max).
func (c *Context) RandomInt(max int) int {
	v, err := c.rt.Scheduler.GetNextIntChoice(c.handle, max)
	if err != nil {
		panic(cancelSignal{})
	}
	return v
}

// Assert raises an AssertionFailure bug and cancels this iteration if
// cond is false.
func (c *Context) Assert(cond bool, msg string) {
	if !cond {
		c.rt.Scheduler.NotifyAssertionFailure(msg)
		panic(cancelSignal{})
	}
}
