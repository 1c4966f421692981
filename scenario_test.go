package machinecheck

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/report"
	"github.com/mchecker/machinecheck/strategy"
	"github.com/mchecker/machinecheck/trace"
)

type pingMsg struct{ from machine.Id }
type pongMsg struct{}

type pinger struct{}

func (pinger) Start(ctx *actor.Context) {
	pong := ctx.CreateMachine(ponger{})
	ctx.Send(pong, pingMsg{from: ctx.Id()})
	ctx.Receive(reflect.TypeOf(pongMsg{}))
	ctx.Halt()
}

type ponger struct{}

func (ponger) Start(ctx *actor.Context) {
	evt := ctx.Receive(reflect.TypeOf(pingMsg{}))
	ctx.Send(evt.(pingMsg).from, pongMsg{})
	ctx.Halt()
}

func pingPongEntry(rt *driver.Runtime) error {
	rtm := actor.NewRuntime(rt)
	rtm.CreateMachine(pinger{})
	return nil
}

// TestReplayIsDeterministic checks the replay-determinism property:
// recording a run under one strategy and then replaying the recorded
// trace reproduces it exactly, choice for choice.
func TestReplayIsDeterministic(t *testing.T) {
	recordingSched := strategy.NewRandom(11)
	recordingDriver := driver.New(recordingSched, nil, nil, nil, driver.Options{NumIterations: 1})

	var recorded *driver.Runtime
	_, err := recordingDriver.Run(func(rt *driver.Runtime) error {
		recorded = rt
		return pingPongEntry(rt)
	})
	require.NoError(t, err)

	recordedTrace := append([]trace.Entry(nil), recorded.Scheduler.Trace().Entries()...)
	require.NotEmpty(t, recordedTrace)

	replaySched := strategy.NewReplay(recordedTrace)
	replayDriver := driver.New(replaySched, nil, nil, nil, driver.Options{NumIterations: 1})

	var replayed *driver.Runtime
	_, err = replayDriver.Run(func(rt *driver.Runtime) error {
		replayed = rt
		return pingPongEntry(rt)
	})
	require.NoError(t, err)
	require.NoError(t, replaySched.Mismatch())

	replayedTrace := replayed.Scheduler.Trace().Entries()
	require.Equal(t, len(recordedTrace), len(replayedTrace))
	for i := range recordedTrace {
		require.Equal(t, recordedTrace[i].String(), replayedTrace[i].String())
	}
}

// TestComboStrategyHandsOffAtPrefixDepth checks the combo-strategy
// step accounting after a full run: ExploredSteps is either the prefix
// strategy's own count (still in the prefix phase) or prefixDepth plus
// the suffix strategy's count (after the hand-off).
func TestComboStrategyHandsOffAtPrefixDepth(t *testing.T) {
	prefix := strategy.NewDFS()
	suffix := strategy.NewRandom(5)
	combo := strategy.NewCombo(prefix, suffix, 2)

	d := driver.New(combo, nil, nil, nil, driver.Options{NumIterations: 1})
	_, err := d.Run(pingPongEntry)
	require.NoError(t, err)

	require.True(t, combo.ExploredSteps() == prefix.ExploredSteps() ||
		combo.ExploredSteps() == 2+suffix.ExploredSteps())
}

// TestReusingADisposedRuntimeIsRecordedAsABug checks the
// iteration-isolation property end to end: a driver.Runtime captured by
// a closure in one iteration is disposed by the time the next iteration
// starts, and actually reusing it (here via the wrapping actor.Runtime,
// to create a machine) surfaces as a DisposedRuntimeUse bug attributed
// to the iteration that reused it, not a silently-minted handle against
// a torn-down scheduler.
func TestReusingADisposedRuntimeIsRecordedAsABug(t *testing.T) {
	var captured []*driver.Runtime
	var prev *actor.Runtime

	rep, err := Check(Random(6), func(rt *driver.Runtime) error {
		captured = append(captured, rt)
		if prev != nil {
			prev.CreateMachine(pinger{})
			return nil
		}
		prev = actor.NewRuntime(rt)
		prev.CreateMachine(pinger{})
		return nil
	}, MaxIterations(2))
	require.NoError(t, err)
	require.Len(t, captured, 2)
	require.ErrorIs(t, captured[0].Check(), driver.ErrDisposedRuntime)
	require.NoError(t, captured[1].Check())

	require.Equal(t, 1, rep.NumBugs)
	require.Equal(t, report.DisposedRuntimeUse, rep.BugReports[0].Kind)
	require.Equal(t, 1, rep.BugReports[0].Iteration)
}
