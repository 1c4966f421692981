// Package cmd is the thin cobra CLI that runs the bundled example
// programs under a chosen strategy, seed, and iteration count, and
// prints the resulting report.TestReport. A rootCmd plus one file per
// subcommand, each registering itself via init.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mchecker/machinecheck"
)

var rootCmd = &cobra.Command{
	Use:   "machinecheck",
	Short: "Run a bundled example program under the serialized scheduler",
}

var (
	strategyName string
	seed         int64
	iterations   int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&strategyName, "strategy", "s", "random",
		"scheduling strategy: random, dfs")
	rootCmd.PersistentFlags().Int64VarP(&seed, "seed", "r", 1,
		"seed for strategies that draw randomly")
	rootCmd.PersistentFlags().IntVarP(&iterations, "iterations", "n", 10,
		"number of iterations to run")
}

// resolveStrategy builds the StrategyOption named by the --strategy
// flag. Only "random" and "dfs" are recognized; any other name falls
// back to random.
func resolveStrategy() machinecheck.StrategyOption {
	switch strategyName {
	case "dfs":
		return machinecheck.DFS()
	default:
		return machinecheck.Random(seed)
	}
}

// Execute runs the CLI, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
