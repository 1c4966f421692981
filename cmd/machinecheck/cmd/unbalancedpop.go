package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mchecker/machinecheck"
	"github.com/mchecker/machinecheck/actor"
	"github.com/mchecker/machinecheck/driver"
)

type poppingMachine struct{}

func (poppingMachine) Start(ctx *actor.Context) {
	ctx.PopState()
}

var unbalancedPopCmd = &cobra.Command{
	Use:   "unbalancedpop",
	Short: "run the unbalanced-pop single-machine example",
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := machinecheck.Check(resolveStrategy(), func(rt *driver.Runtime) error {
			rtm := actor.NewRuntime(rt)
			rtm.CreateMachine(poppingMachine{})
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
	rootCmd.AddCommand(unbalancedPopCmd)
}
