package machinecheck

import (
	"testing"

	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
)

type echoMachine struct{ done chan struct{} }

func (e *echoMachine) Start(ctx *actor.Context) {
	close(e.done)
	ctx.Halt()
}

func TestCheckRunsConfiguredIterations(t *testing.T) {
	rep, err := Check(Random(3), func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(&echoMachine{done: make(chan struct{})})
		return nil
	}, MaxIterations(10))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.NumExploredUnfairSchedules != 10 {
		t.Errorf("expected 10 unfair schedules, got %d", rep.NumExploredUnfairSchedules)
	}
	if rep.NumBugs != 0 {
		t.Errorf("expected no bugs, got %d: %v", rep.NumBugs, rep.BugReports)
	}
}

func TestCheckWithCacheProgramState(t *testing.T) {
	rep, err := Check(Random(9), func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(&echoMachine{done: make(chan struct{})})
		return nil
	}, MaxIterations(3), CacheProgramState(1024))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.NumExploredUnfairSchedules != 3 {
		t.Errorf("expected 3 unfair schedules, got %d", rep.NumExploredUnfairSchedules)
	}
}

func TestCheckDFSExploresExhaustively(t *testing.T) {
	rep, err := Check(DFS(), func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(&echoMachine{done: make(chan struct{})})
		return nil
	}, MaxIterations(5))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if rep.NumBugs != 0 {
		t.Errorf("expected no bugs, got %d: %v", rep.NumBugs, rep.BugReports)
	}
}
