package driver

import "errors"

// ErrDisposedRuntime is returned by every Runtime operation once a later
// iteration has started. Entry code that captures a Runtime across
// iterations must observe a deterministic failure on reuse rather than
// silently reading stale state.
var ErrDisposedRuntime = errors.New("driver: runtime from a previous iteration reused")

// ErrNoIterationsRun is returned by Run if the strategy reports
// HasFinished before the first iteration starts. (A NumIterations of 0
// does not produce it: New treats values <= 0 as 1.)
var ErrNoIterationsRun = errors.New("driver: no iterations were run")
