// Package machinecheck is the public entry point: Check runs a program
// under the scheduler for a configured number of iterations and
// returns an aggregated report.TestReport.
package machinecheck

import (
	"github.com/sirupsen/logrus"

	"github.com/mchecker/machinecheck/driver"
	"github.com/mchecker/machinecheck/liveness"
	"github.com/mchecker/machinecheck/report"
	"github.com/mchecker/machinecheck/statecache"
	"github.com/mchecker/machinecheck/strategy"
	"github.com/mchecker/machinecheck/trace"
)

// StrategyOption selects the scheduling strategy a Check run uses.
type StrategyOption struct {
	strat strategy.Strategy
}

// Random uses a seeded random-walk strategy.
func Random(seed int64) StrategyOption {
	return StrategyOption{strat: strategy.NewRandom(seed)}
}

// DFS exhaustively explores every schedule via depth-first search.
func DFS() StrategyOption {
	return StrategyOption{strat: strategy.NewDFS()}
}

// IDDFS widens a depth-bounded DFS by increment once each bounded
// sweep is exhausted, starting from initialDepth, up to maxDepth (0
// means unbounded widening).
func IDDFS(initialDepth, increment, maxDepth int) StrategyOption {
	return StrategyOption{strat: strategy.NewIDDFS(initialDepth, increment, maxDepth)}
}

// PriorityBounded runs a PCT-style strategy with a seeded random
// machine-priority assignment and a bounded number of priority-change
// points per iteration.
func PriorityBounded(seed int64, maxSwaps int) StrategyOption {
	return StrategyOption{strat: strategy.NewPriorityBounded(seed, maxSwaps)}
}

// DelayBounded runs a round-robin strategy with a bounded number of
// random deviations from the round-robin order per iteration. It is a
// fair strategy.
func DelayBounded(seed int64, maxDelays int) StrategyOption {
	return StrategyOption{strat: strategy.NewDelayBounded(seed, maxDelays)}
}

// Combo answers the first prefixDepth decisions from prefix, then
// hands off to suffix for the remainder of the iteration.
func Combo(prefix, suffix StrategyOption, prefixDepth int) StrategyOption {
	return StrategyOption{strat: strategy.NewCombo(prefix.strat, suffix.strat, prefixDepth)}
}

// Replay deterministically reproduces a previously recorded run,
// reporting a mismatch if the program under test diverges from it.
func Replay(run []trace.Entry) StrategyOption {
	return StrategyOption{strat: strategy.NewReplay(run)}
}

// WithStrategy installs a caller-supplied strategy.Strategy directly.
func WithStrategy(s strategy.Strategy) StrategyOption {
	return StrategyOption{strat: s}
}

// RunOption is the marker interface for the rest of the configuration
// surface a Check run accepts.
type RunOption interface{}

type maxIterationsOption struct{ n int }

// MaxIterations configures num_iterations. Default is 1.
func MaxIterations(n int) RunOption { return maxIterationsOption{n: n} }

type maxConcurrentIterationsOption struct{ n int }

// MaxConcurrentIterations bounds how many iterations run with
// in-flight goroutines at once. Default is 1 (strictly sequential).
func MaxConcurrentIterations(n int) RunOption { return maxConcurrentIterationsOption{n: n} }

type maxFairStepsOption struct{ n int }

// MaxFairSteps configures max_fair_steps.
func MaxFairSteps(n int) RunOption { return maxFairStepsOption{n: n} }

type maxUnfairStepsOption struct{ n int }

// MaxUnfairSteps configures max_unfair_steps.
func MaxUnfairSteps(n int) RunOption { return maxUnfairStepsOption{n: n} }

type safetyPrefixBoundOption struct{ n int }

// SafetyPrefixBound configures safety_prefix_bound. 0 means "the
// whole unfair run".
func SafetyPrefixBound(n int) RunOption { return safetyPrefixBoundOption{n: n} }

type cacheProgramStateOption struct{ maxItems int64 }

// CacheProgramState enables the ristretto-backed state cache, sized to
// hold up to maxItems fingerprints.
func CacheProgramState(maxItems int64) RunOption {
	return cacheProgramStateOption{maxItems: maxItems}
}

type considerDepthBoundHitAsBugOption struct{}

// ConsiderDepthBoundHitAsBug configures consider_depth_bound_hit_as_bug.
func ConsiderDepthBoundHitAsBug() RunOption { return considerDepthBoundHitAsBugOption{} }

type attachDebuggerOption struct{}

// AttachDebugger configures attach_debugger: the first iteration
// drops into any attached debugger via runtime.Breakpoint before it
// starts.
func AttachDebugger() RunOption { return attachDebuggerOption{} }

type verboseOption struct{ n int }

// Verbose configures verbose (0..2).
func Verbose(n int) RunOption { return verboseOption{n: n} }

type fingerprintOption struct{ f func() uint64 }

// WithFingerprint supplies the caller's local-state fingerprint
// function, used by the state cache when CacheProgramState is set.
func WithFingerprint(f func() uint64) RunOption { return fingerprintOption{f: f} }

type monitorOption struct{ m liveness.Monitor }

// WithMonitor installs a liveness.Monitor checked at every scheduling
// point.
func WithMonitor(m liveness.Monitor) RunOption { return monitorOption{m: m} }

type loggerOption struct{ l *logrus.Entry }

// WithLogger installs a caller-supplied structured logger.
func WithLogger(l *logrus.Entry) RunOption { return loggerOption{l: l} }

// Check runs entry under the scheduler, using the strategy selected by
// strat, for up to MaxIterations iterations, and returns the
// aggregated report.TestReport.
func Check(strat StrategyOption, entry driver.EntryFunc, opts ...RunOption) (*report.TestReport, error) {
	var (
		dopts    driver.Options
		cacheMax int64
		cacheOn  bool
		mon      liveness.Monitor
		logger   *logrus.Entry
	)
	dopts.NumIterations = 1
	dopts.NumConcurrentIterations = 1

	for _, opt := range opts {
		switch t := opt.(type) {
		case maxIterationsOption:
			dopts.NumIterations = t.n
		case maxConcurrentIterationsOption:
			dopts.NumConcurrentIterations = t.n
		case maxFairStepsOption:
			dopts.MaxFairSteps = t.n
		case maxUnfairStepsOption:
			dopts.MaxUnfairSteps = t.n
		case safetyPrefixBoundOption:
			dopts.SafetyPrefixBound = t.n
		case cacheProgramStateOption:
			cacheOn = true
			cacheMax = t.maxItems
			dopts.CacheProgramState = true
		case considerDepthBoundHitAsBugOption:
			dopts.ConsiderDepthBoundHitAsBug = true
		case attachDebuggerOption:
			dopts.AttachDebugger = true
		case verboseOption:
			dopts.Verbose = t.n
		case fingerprintOption:
			dopts.FingerprintFn = t.f
		case monitorOption:
			mon = t.m
		case loggerOption:
			logger = t.l
		}
	}

	var cache statecache.Cache
	if cacheOn {
		if cacheMax <= 0 {
			cacheMax = 1 << 20
		}
		rc, err := statecache.NewRistrettoCache(cacheMax)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		cache = rc
	}

	d := driver.New(strat.strat, cache, mon, logger, dopts)
	return d.Run(entry)
}
