package scheduler

import (
	"sync"
	"testing"

	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/report"
	"github.com/mchecker/machinecheck/strategy"
)

func worker(sched *Scheduler, handle machine.WorkerHandle, steps int, done chan<- error) {
	if err := sched.NotifyTaskStarted(handle); err != nil {
		done <- err
		return
	}
	for i := 0; i < steps; i++ {
		if err := sched.Schedule(handle); err != nil {
			done <- err
			return
		}
	}
	done <- sched.NotifyTaskCompleted(handle)
}

func TestSchedulerRunsTwoMachinesToCompletion(t *testing.T) {
	sched := New(strategy.NewRandom(1), nil, nil, nil, Config{})

	sched.NotifyNewTaskCreated(1, machine.Id{Value: 0, Name: "A"})
	sched.NotifyNewTaskCreated(2, machine.Id{Value: 1, Name: "B"})

	doneA := make(chan error, 1)
	doneB := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); worker(sched, 1, 5, doneA) }()
	go func() { defer wg.Done(); worker(sched, 2, 5, doneB) }()
	wg.Wait()

	errA, errB := <-doneA, <-doneB
	// Exactly one of the two completions is the one that finds the
	// schedule fully explored and so unwinds via ErrExecutionCancelled;
	// the other must have already returned cleanly.
	cancelled := 0
	for _, err := range []error{errA, errB} {
		if err == ErrExecutionCancelled {
			cancelled++
		} else if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if cancelled != 1 {
		t.Errorf("expected exactly one worker to observe ErrExecutionCancelled on exhaustion, got %d", cancelled)
	}

	if !sched.FullyExplored() {
		t.Errorf("expected the schedule to be reported as fully explored")
	}
	if _, ok := sched.BugReport(); ok {
		t.Errorf("did not expect a bug report from two cooperating machines")
	}
	if sched.Trace().Len() == 0 {
		t.Errorf("expected a non-empty trace")
	}
}

func TestSchedulerDetectsLivelock(t *testing.T) {
	sched := New(strategy.NewRandom(1), nil, nil, nil, Config{})

	sched.NotifyNewTaskCreated(1, machine.Id{Value: 0, Name: "A"})
	if err := sched.NotifyTaskStarted(1); err != nil {
		t.Fatalf("NotifyTaskStarted: %v", err)
	}
	if err := sched.NotifyTaskBlockedOnEvent(1); err != nil {
		t.Fatalf("NotifyTaskBlockedOnEvent: %v", err)
	}

	err := sched.Schedule(1)
	if err != ErrExecutionCancelled {
		t.Fatalf("expected ErrExecutionCancelled, got %v", err)
	}

	bug, ok := sched.BugReport()
	if !ok {
		t.Fatalf("expected a bug report")
	}
	if bug.Kind != report.LivelockDetected {
		t.Errorf("expected LivelockDetected, got %v", bug.Kind)
	}
}

func TestSchedulerStepBoundAsBug(t *testing.T) {
	sched := New(strategy.NewRandom(1), nil, nil, nil, Config{
		MaxUnfairSteps:             1,
		ConsiderDepthBoundHitAsBug: true,
	})

	sched.NotifyNewTaskCreated(1, machine.Id{Value: 0})
	if err := sched.NotifyTaskStarted(1); err != nil {
		t.Fatalf("NotifyTaskStarted: %v", err)
	}

	if err := sched.Schedule(1); err != nil {
		t.Fatalf("first schedule call should stay within the bound: %v", err)
	}
	if err := sched.Schedule(1); err != ErrExecutionCancelled {
		t.Fatalf("expected ErrExecutionCancelled once the step bound is exceeded, got %v", err)
	}

	bug, ok := sched.BugReport()
	if !ok || bug.Kind != report.StepBoundReached {
		t.Errorf("expected a StepBoundReached bug, got ok=%v bug=%v", ok, bug)
	}
	if !sched.HitStepBound() {
		t.Errorf("expected HitStepBound to report true")
	}
}

func TestSchedulerStepBoundAsNormalTermination(t *testing.T) {
	sched := New(strategy.NewRandom(1), nil, nil, nil, Config{MaxUnfairSteps: 1})

	sched.NotifyNewTaskCreated(1, machine.Id{Value: 0})
	sched.NotifyTaskStarted(1)
	sched.Schedule(1)
	err := sched.Schedule(1)
	if err != ErrExecutionCancelled {
		t.Fatalf("expected ErrExecutionCancelled, got %v", err)
	}
	if _, ok := sched.BugReport(); ok {
		t.Errorf("did not expect a bug report when ConsiderDepthBoundHitAsBug is false")
	}
	if !sched.FullyExplored() {
		t.Errorf("expected the step bound stop to be treated as a fully-explored termination")
	}
}

func TestSchedulerRejectsUnknownWorker(t *testing.T) {
	sched := New(strategy.NewRandom(1), nil, nil, nil, Config{})
	sched.NotifyNewTaskCreated(1, machine.Id{Value: 0})

	err := sched.Schedule(99)
	if err != ErrExecutionCancelled {
		t.Fatalf("expected ErrExecutionCancelled, got %v", err)
	}
	bug, ok := sched.BugReport()
	if !ok || bug.Kind != report.ExternalSynchronization {
		t.Errorf("expected an ExternalSynchronization bug, got ok=%v bug=%v", ok, bug)
	}
}

func TestSwitchSchedulingStrategyReturnsPrevious(t *testing.T) {
	first := strategy.NewRandom(1)
	sched := New(first, nil, nil, nil, Config{})

	second := strategy.NewDFS()
	old := sched.SwitchSchedulingStrategy(second)
	if old != first {
		t.Errorf("expected SwitchSchedulingStrategy to return the previously installed strategy")
	}
}
