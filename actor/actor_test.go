package actor_test

import (
	"testing"

	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
	"github.com/mchecker/machinecheck/machine"
	"github.com/mchecker/machinecheck/strategy"
)

type responder struct {
	parent machine.Id
}

func (r *responder) Start(ctx *actor.Context) {
	evt := ctx.Receive()
	s, _ := evt.(string)
	ctx.Send(r.parent, "pong:"+s)
	ctx.Halt()
}

type root struct {
	result chan string
}

func (p *root) Start(ctx *actor.Context) {
	child := ctx.CreateMachine(&responder{parent: ctx.Id()})
	ctx.Send(child, "ping")
	reply := ctx.Receive()
	p.result <- reply.(string)
	ctx.Halt()
}

func TestSendReceiveRoundTrip(t *testing.T) {
	result := make(chan string, 1)
	d := driver.New(strategy.NewRandom(1), nil, nil, nil, driver.Options{NumIterations: 1})

	_, err := d.Run(func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(&root{result: result})
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case got := <-result:
		if got != "pong:ping" {
			t.Errorf("expected \"pong:ping\", got %q", got)
		}
	default:
		t.Fatalf("root machine never received its reply")
	}
}

type assertingMachine struct{}

func (assertingMachine) Start(ctx *actor.Context) {
	ctx.Assert(false, "deliberate failure")
}

func TestAssertFailureIsRecordedAsABug(t *testing.T) {
	d := driver.New(strategy.NewRandom(1), nil, nil, nil, driver.Options{NumIterations: 1})

	rep, err := d.Run(func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(assertingMachine{})
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.NumBugs != 1 {
		t.Fatalf("expected exactly one bug, got %d", rep.NumBugs)
	}
}

type panickingMachine struct{}

func (panickingMachine) Start(ctx *actor.Context) {
	panic("boom")
}

func TestUserPanicIsRecordedAsUnhandledException(t *testing.T) {
	d := driver.New(strategy.NewRandom(1), nil, nil, nil, driver.Options{NumIterations: 1})

	rep, err := d.Run(func(rt *driver.Runtime) error {
		rtm := actor.NewRuntime(rt)
		rtm.CreateMachine(panickingMachine{})
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.NumBugs != 1 {
		t.Fatalf("expected exactly one bug, got %d", rep.NumBugs)
	}
	got := rep.BugReports[0].Message
	if got == "" {
		t.Errorf("expected a non-empty bug message")
	}
}
