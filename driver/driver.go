// Package driver implements IterationDriver: the component that runs a
// bounded number of iterations, each against a fresh Runtime, and
// aggregates their outcomes into a report.TestReport.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/mchecker/machinecheck/liveness"
	"github.com/mchecker/machinecheck/report"
	"github.com/mchecker/machinecheck/scheduler"
	"github.com/mchecker/machinecheck/statecache"
	"github.com/mchecker/machinecheck/strategy"
)

// EntryFunc is the user-supplied program under test: given a fresh
// Runtime, it creates the iteration's initial machine(s) and returns.
// The driver then waits for the iteration's scheduler to wind down
// before starting the next one.
type EntryFunc func(rt *Runtime) error

// Options configures an IterationDriver, covering the part of the
// configuration surface that the driver itself (as opposed to the
// scheduler) is responsible for enforcing.
type Options struct {
	NumIterations int
	// NumConcurrentIterations bounds how many iterations may have
	// in-flight goroutines at once. Defaults to 1 (strictly sequential)
	// when <= 0, which is the only setting that needs no extra
	// synchronization around the Strategy's purity contract.
	NumConcurrentIterations int

	MaxFairSteps               int
	MaxUnfairSteps             int
	SafetyPrefixBound          int
	CacheProgramState          bool
	ConsiderDepthBoundHitAsBug bool
	FingerprintFn              func() uint64

	// AttachDebugger drops into any attached debugger once, via
	// runtime.Breakpoint, before the first iteration starts.
	AttachDebugger bool

	Verbose int
}

// IterationDriver runs up to Options.NumIterations iterations of an
// EntryFunc, building a fresh Runtime per iteration and aggregating the
// results into a report.TestReport.
//
// Each iteration gets its own scheduler.Scheduler wrapped around one
// shared Strategy; concurrency across iterations is bounded by a
// golang.org/x/sync/semaphore.Weighted.
type IterationDriver struct {
	opts Options

	strategy strategy.Strategy
	locked   *lockedStrategy // non-nil only when opts.NumConcurrentIterations > 1

	cache   statecache.Cache
	monitor liveness.Monitor
	logger  *logrus.Entry

	mu          sync.Mutex
	lastRuntime *Runtime
}

// New creates an IterationDriver. cache and monitor may be nil.
func New(strat strategy.Strategy, cache statecache.Cache, monitor liveness.Monitor, logger *logrus.Entry, opts Options) *IterationDriver {
	if opts.NumIterations <= 0 {
		opts.NumIterations = 1
	}
	if opts.NumConcurrentIterations <= 0 {
		opts.NumConcurrentIterations = 1
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	switch opts.Verbose {
	case 0:
		logger.Logger.SetLevel(logrus.WarnLevel)
	case 1:
		logger.Logger.SetLevel(logrus.InfoLevel)
	default:
		logger.Logger.SetLevel(logrus.DebugLevel)
	}

	d := &IterationDriver{
		opts:     opts,
		strategy: strat,
		cache:    cache,
		monitor:  monitor,
		logger:   logger,
	}
	if opts.NumConcurrentIterations > 1 {
		d.locked = newLockedStrategy(strat)
	}
	return d
}

// activeStrategy returns the Strategy instance a new iteration's
// Scheduler should be built around: the raw shared strategy when
// running sequentially, or the lock-wrapped one when running several
// iterations concurrently.
func (d *IterationDriver) activeStrategy() strategy.Strategy {
	if d.locked != nil {
		return d.locked
	}
	return d.strategy
}

// Run drives EntryFunc through up to Options.NumIterations iterations
// and returns the aggregated report.
func (d *IterationDriver) Run(entry EntryFunc) (*report.TestReport, error) {
	if d.opts.AttachDebugger {
		runtime.Breakpoint()
	}

	rep := report.NewTestReport(report.ConfigSnapshot(fmt.Sprintf(
		"iterations=%d concurrency=%d strategy=%s maxFairSteps=%d maxUnfairSteps=%d safetyPrefixBound=%d cacheProgramState=%v considerDepthBoundHitAsBug=%v",
		d.opts.NumIterations, d.opts.NumConcurrentIterations, d.strategy.Description(),
		d.opts.MaxFairSteps, d.opts.MaxUnfairSteps, d.opts.SafetyPrefixBound,
		d.opts.CacheProgramState, d.opts.ConsiderDepthBoundHitAsBug,
	)))

	sem := semaphore.NewWeighted(int64(d.opts.NumConcurrentIterations))
	ctx := context.Background()

	var wg sync.WaitGroup
	var repMu sync.Mutex
	ran := 0

	for iter := 0; iter < d.opts.NumIterations; iter++ {
		if d.strategy.HasFinished() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		ran++
		wg.Add(1)
		go func(iterNum int) {
			defer wg.Done()
			defer sem.Release(1)
			d.runIteration(iterNum, entry, rep, &repMu)
		}(iter)
	}
	wg.Wait()

	if ran == 0 {
		return rep, ErrNoIterationsRun
	}
	return rep, nil
}

func (d *IterationDriver) runIteration(iterNum int, entry EntryFunc, rep *report.TestReport, repMu *sync.Mutex) {
	logger := d.logger.WithField("iteration", iterNum)

	sched := scheduler.New(d.activeStrategy(), d.cache, d.monitor, logger, scheduler.Config{
		MaxFairSteps:               d.opts.MaxFairSteps,
		MaxUnfairSteps:             d.opts.MaxUnfairSteps,
		SafetyPrefixBound:          d.opts.SafetyPrefixBound,
		CacheProgramState:          d.opts.CacheProgramState,
		ConsiderDepthBoundHitAsBug: d.opts.ConsiderDepthBoundHitAsBug,
		FingerprintFn:              d.opts.FingerprintFn,
	})
	rt := newRuntime(sched)

	d.mu.Lock()
	prev := d.lastRuntime
	d.lastRuntime = rt
	d.mu.Unlock()
	if prev != nil {
		prev.dispose()
	}

	err := func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				if derr, ok := p.(error); ok && errors.Is(derr, ErrDisposedRuntime) {
					err = derr
					return
				}
				err = fmt.Errorf("panic in iteration %d: %v", iterNum, p)
			}
		}()
		return entry(rt)
	}()

	switch {
	case err == nil:
		// An entry that registered no machine leaves nothing to call
		// Schedule, so nothing else would ever stop this scheduler.
		if len(sched.MachineInfos()) == 0 {
			sched.Stop()
		}
	case errors.Is(err, ErrDisposedRuntime):
		// A Runtime captured from an earlier iteration was reused here,
		// not by the current one: attribute the bug to this iteration,
		// since the stale Runtime's own scheduler already tore down and
		// will never report anything again.
		sched.NotifyDisposedRuntimeUse(err.Error())
	case errors.Is(err, scheduler.ErrExecutionCancelled):
	default:
		sched.NotifyUnhandledException(err)
	}
	sched.Wait()

	repMu.Lock()
	if bug, ok := sched.BugReport(); ok {
		rep.RecordBug(report.BugReport{
			ID:                  uuid.New(),
			Kind:                bug.Kind,
			Message:             bug.Message,
			Iteration:           iterNum,
			Trace:               bug.Trace,
			StrategyDescription: bug.StrategyDescription,
		})
	}
	fair := sched.IsFairRun()
	steps := sched.ExploredSteps()
	hitBound := sched.HitStepBound()
	if fair {
		rep.RecordSchedule(true, steps, 0, hitBound, false)
	} else {
		rep.RecordSchedule(false, 0, steps, false, hitBound)
	}
	repMu.Unlock()

	if d.locked != nil {
		d.locked.ConfigureNextIteration()
	} else {
		d.strategy.ConfigureNextIteration()
	}
}
