package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree, grounded on the teacher's root
// main.go wiring (cli.NewStandardCommand + cmd.GetJobsCommand) but built
// directly against spf13/cobra since cli.NewStandardCommand lives in the
// private grove-core module (see DESIGN.md, "Dropped teacher dependencies").
func newRootCmd(k *kernel) *cobra.Command {
	root := &cobra.Command{
		Use:           "missionctl",
		Short:         "Orchestrate parallel AI coding agents against a dependency plan",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newPlanCmd(k))
	root.AddCommand(newJobsCmd(k))
	root.AddCommand(newStatusCmd(k))

	return root
}
