package cmd

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/mchecker/machinecheck"
	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
	"github.com/mchecker/machinecheck/machine"
)

type pingMsg struct{ from machine.Id }
type pongMsg struct{}

type pingMachine struct{ rounds int }

func (p *pingMachine) Start(ctx *actor.Context) {
	pong := ctx.CreateMachine(&pongMachine{rounds: p.rounds})
	for i := 0; i < p.rounds; i++ {
		ctx.Send(pong, pingMsg{from: ctx.Id()})
		ctx.Receive(reflect.TypeOf(pongMsg{}))
	}
	ctx.Halt()
}

type pongMachine struct{ rounds int }

func (q *pongMachine) Start(ctx *actor.Context) {
	for i := 0; i < q.rounds; i++ {
		evt := ctx.Receive(reflect.TypeOf(pingMsg{}))
		ctx.Send(evt.(pingMsg).from, pongMsg{})
	}
	ctx.Halt()
}

var pingPongCmd = &cobra.Command{
	Use:   "pingpong",
	Short: "run the ping/pong two-machine example",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := machinecheck.Check(resolveStrategy(), func(rt *driver.Runtime) error {
			rtm := actor.NewRuntime(rt)
			rtm.CreateMachine(&pingMachine{rounds: 1})
			return nil
		}, machinecheck.MaxIterations(iterations))
		if err != nil {
			return err
		}
		fmt.Printf("bugs=%d unfair_schedules=%d\n", rep.NumBugs, rep.NumExploredUnfairSchedules)
		for _, bug := range rep.BugReports {
			fmt.Println(bug)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingPongCmd)
}
