// Package scheduler implements the serialized scheduler: the component
// that forces all machine activity in one iteration onto a single
// logical execution, consulting a strategy.Strategy at each scheduling
// point and nondeterministic choice point.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mchecker/machinecheck/liveness"
	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/report"
	"github.com/mchecker/machinecheck/statecache"
	"github.com/mchecker/machinecheck/strategy"
	"github.com/mchecker/machinecheck/trace"
)

// Config bundles the per-iteration tuning knobs the scheduler itself
// enforces.
type Config struct {
	MaxFairSteps               int
	MaxUnfairSteps             int
	SafetyPrefixBound          int
	CacheProgramState          bool
	ConsiderDepthBoundHitAsBug bool
	// FingerprintFn supplies the caller's current local-state
	// fingerprint on demand; fingerprinting is the caller's
	// responsibility, the scheduler never computes one itself.
	FingerprintFn func() uint64
}

// Scheduler is the serialization engine: it grants exactly one machine
// the turn at a time and routes every nondeterministic choice through
// the installed Strategy.
type Scheduler struct {
	mu sync.Mutex

	tasks    *machine.TaskMap
	strategy strategy.Strategy
	trace    *trace.Trace
	cache    statecache.Cache
	monitor  liveness.Monitor
	logger   *logrus.Entry

	current *machine.Info

	running  bool
	doneOnce sync.Once
	doneCh   chan struct{}

	bugFound bool
	bug      report.BugReport

	stepCount      int
	hitStepBound   bool
	fullyExplored  bool

	maxFairSteps               int
	maxUnfairSteps             int
	safetyPrefixBound          int
	cacheEnabled               bool
	considerDepthBoundHitAsBug bool
	fingerprintFn              func() uint64
}

// New creates a Scheduler ready to run one iteration. cache and monitor
// may be nil, in which case the no-op NullCache/NullMonitor are used.
func New(strat strategy.Strategy, cache statecache.Cache, monitor liveness.Monitor, logger *logrus.Entry, cfg Config) *Scheduler {
	if cache == nil {
		cache = statecache.NullCache{}
	}
	if monitor == nil {
		monitor = liveness.NullMonitor{}
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	// A zero safety-prefix bound means the whole unfair run.
	safetyPrefixBound := cfg.SafetyPrefixBound
	if safetyPrefixBound == 0 {
		safetyPrefixBound = cfg.MaxUnfairSteps
	}
	return &Scheduler{
		tasks:                      machine.NewTaskMap(),
		strategy:                   strat,
		trace:                      trace.New(),
		cache:                      cache,
		monitor:                    monitor,
		logger:                     logger,
		doneCh:                     make(chan struct{}),
		running:                    true,
		maxFairSteps:               cfg.MaxFairSteps,
		maxUnfairSteps:             cfg.MaxUnfairSteps,
		safetyPrefixBound:          safetyPrefixBound,
		cacheEnabled:               cfg.CacheProgramState,
		considerDepthBoundHitAsBug: cfg.ConsiderDepthBoundHitAsBug,
		fingerprintFn:              cfg.FingerprintFn,
	}
}

// NotifyNewTaskCreated registers a new machine with the scheduler. If it
// is the very first machine, it is marked active and started so the
// bootstrap worker may proceed without waiting to be scheduled in.
func (s *Scheduler) NotifyNewTaskCreated(handle machine.WorkerHandle, id machine.Id) *machine.Info {
	info := machine.NewInfo(id, handle)

	s.mu.Lock()
	s.tasks.Register(info)
	first := s.tasks.Len() == 1
	if first {
		info.IsActive = true
		info.HasStarted = true
		info.MarkStarted()
		s.current = info
	}
	s.mu.Unlock()

	s.logger.Debugf("machine %s created (handle=%d)", id, handle)
	return info
}

// NotifyTaskStarted is called from inside a newly spawned worker before
// it runs any user code. It parks the worker until the scheduler grants
// it the turn.
func (s *Scheduler) NotifyTaskStarted(handle machine.WorkerHandle) error {
	info, err := s.lookupOrFail(handle)
	if err != nil {
		return err
	}
	info.MarkStarted()
	if !info.IsActive {
		info.Park()
	}
	if !info.IsEnabled {
		return ErrExecutionCancelled
	}
	return nil
}

// WaitForTaskToStart blocks the creator of a machine until the child has
// registered via NotifyTaskStarted, guaranteeing the creator never
// proceeds past machine creation before the child exists in the task
// table.
func (s *Scheduler) WaitForTaskToStart(handle machine.WorkerHandle) error {
	s.mu.Lock()
	info := s.tasks.Lookup(handle)
	s.mu.Unlock()
	if info == nil {
		s.raiseBug(report.ExternalSynchronization, "synchronization not controlled by the runtime")
		return ErrExecutionCancelled
	}
	<-info.WaitStarted()
	return nil
}

// NotifyTaskBlockedOnEvent marks handle's machine as blocked on a typed
// receive. It does not itself yield: the caller is expected to then
// call Schedule.
func (s *Scheduler) NotifyTaskBlockedOnEvent(handle machine.WorkerHandle) error {
	info, err := s.lookupOrFail(handle)
	if err != nil {
		return err
	}
	info.IsWaitingToReceive = true
	return nil
}

// NotifyTaskReceivedEvent wakes a machine previously marked blocked via
// NotifyTaskBlockedOnEvent, identified by machine Id rather than worker
// handle since the delivering machine only ever knows the recipient's
// logical identity.
func (s *Scheduler) NotifyTaskReceivedEvent(id machine.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, info := range s.tasks.Ordered() {
		if info.Id.Equal(id) {
			info.IsWaitingToReceive = false
			info.IsEnabled = true
			return
		}
	}
}

// NotifyScheduledMachineTaskChanged moves a machine's registration from
// oldHandle to newHandle when its execution crosses an asynchronous
// boundary onto a new goroutine.
func (s *Scheduler) NotifyScheduledMachineTaskChanged(oldHandle, newHandle machine.WorkerHandle) error {
	s.mu.Lock()
	info := s.tasks.Lookup(oldHandle)
	if info == nil {
		s.mu.Unlock()
		s.raiseBug(report.ExternalSynchronization, "synchronization not controlled by the runtime")
		return ErrExecutionCancelled
	}
	s.tasks.Rekey(oldHandle, newHandle, info)
	s.mu.Unlock()
	return nil
}

// NotifyTaskCompleted marks handle's machine completed and disabled,
// hands off the turn via Schedule, then removes it from the live task
// table.
func (s *Scheduler) NotifyTaskCompleted(handle machine.WorkerHandle) error {
	info, err := s.lookupOrFail(handle)
	if err != nil {
		return err
	}
	info.IsCompleted = true
	info.IsEnabled = false
	schedErr := s.Schedule(handle)

	s.mu.Lock()
	s.tasks.Remove(handle)
	s.mu.Unlock()

	return schedErr
}

// Schedule is called by whichever worker is currently running at every
// scheduling point.
func (s *Scheduler) Schedule(handle machine.WorkerHandle) error {
	if handle == machine.RootHandle {
		return nil
	}

	info, err := s.lookupOrFail(handle)
	if err != nil {
		return err
	}

	if err := s.checkStepBound(); err != nil {
		return err
	}

	runnable := s.tasks.Runnable()
	next, ok := s.strategy.TryGetNext(runnable, info)
	if !ok {
		if len(runnable) == 0 && s.anyWaitingToReceive() {
			name := s.firstWaitingName()
			s.raiseBug(report.LivelockDetected, fmt.Sprintf("Livelock detected. Machine '%s' is waiting for an event, but no other machine is enabled.", name))
			return ErrExecutionCancelled
		}
		s.mu.Lock()
		s.fullyExplored = true
		s.mu.Unlock()
		return s.Stop()
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.trace.RecordSchedule(next.Id.Value)
	next.ProgramCounter = 0

	s.maybeCaptureState()
	s.monitor.CheckAtSchedulingStep(s)

	if next != info {
		info.IsActive = false
		next.IsActive = true
		next.Unpark()
		// A completed machine is exiting and will never be resumed by a
		// later switch, so it must not park here: nothing would ever
		// unpark it outside of Stop's teardown sweep.
		if !info.IsCompleted {
			info.Park()
			if !info.IsEnabled {
				return ErrExecutionCancelled
			}
		}
	}
	return nil
}

// GetNextBoolChoice asks the strategy for a nondeterministic boolean.
// uniqueId, if non-empty, marks this as a fairness-relevant choice
// recorded as a FairBoolChoice trace entry.
func (s *Scheduler) GetNextBoolChoice(handle machine.WorkerHandle, maxValue int, uniqueId string) (bool, error) {
	info, err := s.lookupOrFail(handle)
	if err != nil {
		return false, err
	}
	if err := s.checkStepBound(); err != nil {
		return false, err
	}

	value, ok := s.strategy.NextBool(maxValue)
	if !ok {
		s.mu.Lock()
		s.fullyExplored = true
		s.mu.Unlock()
		return false, s.Stop()
	}

	if uniqueId != "" {
		s.trace.RecordFairBool(uniqueId, value)
	} else {
		s.trace.RecordBool(value)
	}
	info.ProgramCounter++

	s.maybeCaptureState()
	s.monitor.CheckAtSchedulingStep(s)
	return value, nil
}

// GetNextIntChoice asks the strategy for a nondeterministic integer in
// [0, maxValue).
func (s *Scheduler) GetNextIntChoice(handle machine.WorkerHandle, maxValue int) (int, error) {
	info, err := s.lookupOrFail(handle)
	if err != nil {
		return 0, err
	}
	if err := s.checkStepBound(); err != nil {
		return 0, err
	}

	value, ok := s.strategy.NextInt(maxValue)
	if !ok {
		s.mu.Lock()
		s.fullyExplored = true
		s.mu.Unlock()
		return 0, s.Stop()
	}

	s.trace.RecordInt(value)
	info.ProgramCounter++

	s.maybeCaptureState()
	s.monitor.CheckAtSchedulingStep(s)
	return value, nil
}

// NotifyAssertionFailure records msg as a bug and stops the scheduler.
// The first call wins; later calls are no-ops. It satisfies
// liveness.SchedulerView so a Monitor can call it directly.
func (s *Scheduler) NotifyAssertionFailure(msg string) {
	s.raiseBug(report.AssertionFailure, msg)
}

// NotifyUnhandledException records err as an UnhandledUserException bug
// and stops the scheduler. Used by the driver when a user-supplied entry
// function returns an error that is not the cancellation sentinel.
func (s *Scheduler) NotifyUnhandledException(err error) {
	s.raiseBug(report.UnhandledUserException, err.Error())
}

// NotifyDisposedRuntimeUse records msg as a DisposedRuntimeUse bug and
// stops the scheduler. Used by the driver when entry code reuses a
// Runtime captured from an earlier iteration.
func (s *Scheduler) NotifyDisposedRuntimeUse(msg string) {
	s.raiseBug(report.DisposedRuntimeUse, msg)
}

// Stop marks the scheduler not-running, forces every remaining machine
// out of its park so it observes ErrExecutionCancelled, and completes
// the scheduler-done future. Idempotent.
func (s *Scheduler) Stop() error {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.running = false
		for _, info := range s.tasks.Ordered() {
			info.IsEnabled = false
			info.IsActive = true
			info.Unpark()
		}
		steps := s.stepCount
		s.mu.Unlock()
		close(s.doneCh)
		s.logger.Debugf("scheduler stopped after %d steps", steps)
	})
	return ErrExecutionCancelled
}

// Wait blocks until the scheduler-done future is satisfied. Idempotent:
// safe to call after Stop has already completed.
func (s *Scheduler) Wait() {
	<-s.doneCh
}

// SwitchSchedulingStrategy atomically swaps in next and returns the
// previously installed strategy.
func (s *Scheduler) SwitchSchedulingStrategy(next strategy.Strategy) strategy.Strategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.strategy
	s.strategy = next
	return old
}

// BugReport returns the recorded bug and true, or a zero BugReport and
// false if the iteration found none.
func (s *Scheduler) BugReport() (report.BugReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.bugFound {
		return report.BugReport{}, false
	}
	return s.bug, true
}

// FullyExplored reports whether the iteration ended by the strategy
// exhausting its schedule, or by a step-bound stop that is not treated
// as a bug, rather than by a bug.
func (s *Scheduler) FullyExplored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fullyExplored
}

// HitStepBound reports whether a configured step bound was reached
// during this iteration.
func (s *Scheduler) HitStepBound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hitStepBound
}

// IsFairRun reports whether the currently installed strategy is fair.
func (s *Scheduler) IsFairRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strategy.IsFair()
}

// ExploredSteps returns the number of scheduling/choice decisions made
// so far. Satisfies liveness.SchedulerView.
func (s *Scheduler) ExploredSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepCount
}

// Trace returns the trace recorded so far. The caller must not mutate
// the returned entries.
func (s *Scheduler) Trace() *trace.Trace {
	return s.trace
}

// MachineInfos returns a snapshot of the live handle-to-Info table.
func (s *Scheduler) MachineInfos() map[machine.WorkerHandle]*machine.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks.Snapshot()
}

func (s *Scheduler) lookupOrFail(handle machine.WorkerHandle) (*machine.Info, error) {
	s.mu.Lock()
	info := s.tasks.Lookup(handle)
	running := s.running
	s.mu.Unlock()

	if info == nil {
		s.raiseBug(report.ExternalSynchronization, "synchronization not controlled by the runtime")
		return nil, ErrExecutionCancelled
	}
	if !running {
		return nil, s.Stop()
	}
	return info, nil
}

func (s *Scheduler) checkStepBound() error {
	s.mu.Lock()
	s.stepCount++
	limit := s.maxUnfairSteps
	if s.strategy.IsFair() {
		limit = s.maxFairSteps
	}
	exceeded := limit > 0 && s.stepCount > limit
	if exceeded {
		s.hitStepBound = true
	}
	bug := s.considerDepthBoundHitAsBug
	s.mu.Unlock()

	if !exceeded {
		return nil
	}
	if bug {
		s.raiseBug(report.StepBoundReached, fmt.Sprintf("step bound of %d reached", limit))
		return ErrExecutionCancelled
	}
	s.mu.Lock()
	s.fullyExplored = true
	s.mu.Unlock()
	return s.Stop()
}

func (s *Scheduler) maybeCaptureState() {
	if !s.cacheEnabled {
		return
	}
	if s.safetyPrefixBound > s.strategy.ExploredSteps() {
		return
	}
	head, ok := s.trace.Head()
	if !ok {
		return
	}
	var fp uint64
	if s.fingerprintFn != nil {
		fp = s.fingerprintFn()
	}
	s.cache.Capture(head, fp)
}

func (s *Scheduler) anyWaitingToReceive() bool {
	for _, info := range s.tasks.Ordered() {
		if info.IsWaitingToReceive && info.IsEnabled && !info.IsCompleted {
			return true
		}
	}
	return false
}

func (s *Scheduler) firstWaitingName() string {
	for _, info := range s.tasks.Ordered() {
		if info.IsWaitingToReceive && info.IsEnabled && !info.IsCompleted {
			return info.Id.String()
		}
	}
	return "?"
}

func (s *Scheduler) raiseBug(kind report.Kind, msg string) {
	s.mu.Lock()
	if s.bugFound {
		s.mu.Unlock()
		return
	}
	s.bugFound = true
	s.bug = report.BugReport{
		Kind:                kind,
		Message:             msg,
		Trace:               append([]trace.Entry(nil), s.trace.Entries()...),
		StrategyDescription: s.strategy.Description(),
	}
	desc := s.bug.StrategyDescription
	s.mu.Unlock()

	s.logger.Warnf("bug found: %s: %s (strategy=%s)", kind, msg, desc)
	s.Stop()
}
