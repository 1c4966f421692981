package scheduler

import "errors"

// ErrExecutionCancelled is the internal unwinding signal every
// scheduling-point method returns once the scheduler has stopped. It is
// never meant to reach a user: the actor layer's worker entry point
// catches it at the outer frame and treats it as normal iteration
// teardown.
var ErrExecutionCancelled = errors.New("scheduler: execution cancelled")

// ErrExternalSynchronization carries the message for a worker not
// registered with the scheduler calling into it. No Scheduler method
// returns it: such a call records an ExternalSynchronization bug and
// returns ErrExecutionCancelled.
var ErrExternalSynchronization = errors.New("scheduler: synchronization not controlled by the runtime")

// ErrStepBoundReached names a step-bound hit. No Scheduler method
// returns it: when a configured step bound is hit and
// Config.ConsiderDepthBoundHitAsBug is false, the scheduler stops and
// the scheduling-point method returns ErrExecutionCancelled, so the
// iteration ends as a normal termination rather than a recorded bug.
var ErrStepBoundReached = errors.New("scheduler: step bound reached")
