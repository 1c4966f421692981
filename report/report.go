// Package report implements TestReport and BugReport, the structured
// output of an IterationDriver run.
package report

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mchecker/machinecheck/trace"
)

// Kind classifies a BugReport's root cause.
type Kind int

const (
	AssertionFailure Kind = iota
	LivelockDetected
	UnhandledEvent
	PoppedWithoutPush
	UnbalancedPop
	ExternalSynchronization
	StepBoundReached
	UnhandledUserException
	DisposedRuntimeUse
)

func (k Kind) String() string {
	switch k {
	case AssertionFailure:
		return "AssertionFailure"
	case LivelockDetected:
		return "LivelockDetected"
	case UnhandledEvent:
		return "UnhandledEvent"
	case PoppedWithoutPush:
		return "PoppedWithoutPush"
	case UnbalancedPop:
		return "UnbalancedPop"
	case ExternalSynchronization:
		return "ExternalSynchronization"
	case StepBoundReached:
		return "StepBoundReached"
	case UnhandledUserException:
		return "UnhandledUserException"
	case DisposedRuntimeUse:
		return "DisposedRuntimeUse"
	default:
		return "Unknown"
	}
}

// BugReport is structured text plus the trace and the strategy's
// description. The ID is a google/uuid.UUID, identifying each bug
// independently of iteration number so reports remain comparable across
// runs.
type BugReport struct {
	ID                  uuid.UUID
	Kind                Kind
	Message             string
	Iteration           int
	Trace               []trace.Entry
	StrategyDescription string
}

func (b BugReport) String() string {
	return fmt.Sprintf("[%s] iteration=%d %s: %s (strategy=%s, %d trace entries)",
		b.ID, b.Iteration, b.Kind, b.Message, b.StrategyDescription, len(b.Trace))
}

// ConfigSnapshot is an opaque, already-rendered description of the
// configuration a run used, embedded verbatim in the report rather than
// re-parsed from it.
type ConfigSnapshot string

// TestReport is the IterationDriver's aggregated output.
type TestReport struct {
	NumBugs    int
	BugReports []BugReport

	NumExploredFairSchedules   int
	NumExploredUnfairSchedules int

	MaxFairHitsInFair     int
	MaxUnfairHitsInFair   int
	MaxUnfairHitsInUnfair int

	TotalExploredFairSteps int
	// MinExploredFairSteps is negative until the first fair schedule is
	// recorded.
	MinExploredFairSteps int
	MaxExploredFairSteps int

	Config ConfigSnapshot
}

// NewTestReport returns a TestReport with MinExploredFairSteps correctly
// initialized to the unset sentinel.
func NewTestReport(cfg ConfigSnapshot) *TestReport {
	return &TestReport{MinExploredFairSteps: -1, Config: cfg}
}

// RecordBug appends bug to the report and increments NumBugs.
func (r *TestReport) RecordBug(bug BugReport) {
	r.BugReports = append(r.BugReports, bug)
	r.NumBugs++
}

// RecordSchedule folds one completed iteration's outcome into the
// running counters. fair reports whether the iteration ran under a fair
// strategy (strategy.IsFair()); fairSteps/unfairSteps are the explored
// step counts attributed to the fair and unfair phases respectively,
// and hitFairBound/hitUnfairBound report whether each bound was reached.
func (r *TestReport) RecordSchedule(fair bool, fairSteps, unfairSteps int, hitFairBound, hitUnfairBound bool) {
	if fair {
		r.NumExploredFairSchedules++
		r.TotalExploredFairSteps += fairSteps
		if r.MinExploredFairSteps < 0 || fairSteps < r.MinExploredFairSteps {
			r.MinExploredFairSteps = fairSteps
		}
		if fairSteps > r.MaxExploredFairSteps {
			r.MaxExploredFairSteps = fairSteps
		}
		if hitFairBound && fairSteps > r.MaxFairHitsInFair {
			r.MaxFairHitsInFair = fairSteps
		}
		if hitUnfairBound && unfairSteps > r.MaxUnfairHitsInFair {
			r.MaxUnfairHitsInFair = unfairSteps
		}
	} else {
		r.NumExploredUnfairSchedules++
		if hitUnfairBound && unfairSteps > r.MaxUnfairHitsInUnfair {
			r.MaxUnfairHitsInUnfair = unfairSteps
		}
	}
}
