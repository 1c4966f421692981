// Package liveness implements the scheduler's LivenessMonitor hook: a
// sink consulted at every scheduling step to check progress predicates
// and raise an assertion failure if one is violated.
package liveness

// SchedulerView is the slice of scheduler.Scheduler a predicate needs:
// kept as a narrow interface here, rather than importing the scheduler
// package directly, to avoid a liveness<->scheduler import cycle.
type SchedulerView interface {
	NotifyAssertionFailure(msg string)
	ExploredSteps() int
}

// Monitor is the LivenessMonitor hook consulted by the scheduler at
// every scheduling step.
type Monitor interface {
	// CheckAtSchedulingStep is called once per scheduling step. It may
	// call sched.NotifyAssertionFailure to report a violated predicate.
	CheckAtSchedulingStep(sched SchedulerView)
}

// NullMonitor is the default no-op Monitor.
type NullMonitor struct{}

func (NullMonitor) CheckAtSchedulingStep(SchedulerView) {}

// Predicate is a progress check over live scheduler state: ok is false
// when the predicate is violated, msg explains why.
type Predicate func(sched SchedulerView) (ok bool, msg string)

// PredicateMonitor runs a fixed list of Predicates at every scheduling
// step and reports the first violation it finds via
// NotifyAssertionFailure.
type PredicateMonitor struct {
	predicates []Predicate
}

// NewPredicateMonitor creates a PredicateMonitor that runs preds, in
// order, at every scheduling step.
func NewPredicateMonitor(preds ...Predicate) *PredicateMonitor {
	return &PredicateMonitor{predicates: preds}
}

func (m *PredicateMonitor) CheckAtSchedulingStep(sched SchedulerView) {
	for _, pred := range m.predicates {
		if ok, msg := pred(sched); !ok {
			sched.NotifyAssertionFailure(msg)
			return
		}
	}
}

// Eventually wraps pred so it is only enforced once atStep has been
// reached.
func Eventually(atStep int, pred Predicate) Predicate {
	return func(sched SchedulerView) (bool, string) {
		if sched.ExploredSteps() < atStep {
			return true, ""
		}
		return pred(sched)
	}
}
