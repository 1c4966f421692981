package cmd

import (
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/mchecker/machinecheck"
	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
)

type neverSentMsg struct{}

type livelockSetupMachine struct{}

func (livelockSetupMachine) Start(ctx *actor.Context) {
	ctx.CreateMachine(waiterMachine{})
	ctx.CreateMachine(waiterMachine{})
	ctx.Halt()
}

type waiterMachine struct{}

func (waiterMachine) Start(ctx *actor.Context) {
	ctx.Receive(reflect.TypeOf(neverSentMsg{}))
}

var livelockPairCmd = &cobra.Command{
	Use:   "livelockpair",
	Short: "run the two-machine livelock example",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := machinecheck.Check(resolveStrategy(), func(rt *driver.Runtime) error {
			rtm := actor.NewRuntime(rt)
			rtm.CreateMachine(livelockSetupMachine{})
			return nil
		}, machinecheck.MaxIterations(iterations))
		if err != nil {
			return err
		}
		fmt.Printf("bugs=%d\n", rep.NumBugs)
		for _, bug := range rep.BugReports {
			fmt.Println(bug)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(livelockPairCmd)
}
