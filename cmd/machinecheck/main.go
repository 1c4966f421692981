package main

import "github.com/mchecker/machinecheck/cmd/machinecheck/cmd"

func main() {
	cmd.Execute()
}
