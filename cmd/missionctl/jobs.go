package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// newJobsCmd groups job-level inspection commands, grounded on the
// teacher's cmd/jobs.go (GetJobsCommand).
func newJobsCmd(k *kernel) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect jobs within the active plan",
	}
	jobsCmd.AddCommand(newJobsListCmd(k))
	jobsCmd.AddCommand(newJobsAttachCmd(k))
	return jobsCmd
}

func newJobsListCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every job in the active plan with its runtime target",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := k.st.LoadPlan()
			if err != nil {
				return err
			}
			if plan == nil {
				fmt.Println("no active plan")
				return nil
			}
			running, err := k.st.GetRunningJobs()
			if err != nil {
				return err
			}
			targets := make(map[string]string, len(running))
			for _, lj := range running {
				targets[lj.JobID] = lj.TmuxTarget
			}
			for _, j := range plan.Jobs {
				target := targets[j.ID]
				if target == "" {
					target = "-"
				}
				fmt.Printf("%-24s %-14s %s\n", j.Name, j.Status, target)
			}
			return nil
		},
	}
}

func newJobsAttachCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "attach <job-name>",
		Short: "Print the tmux attach command for a running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := k.st.LoadPlan()
			if err != nil {
				return err
			}
			if plan == nil {
				return fmt.Errorf("no active plan")
			}
			job := plan.JobByName(args[0])
			if job == nil {
				return fmt.Errorf("no job named %q", args[0])
			}
			running, err := k.st.GetRunningJobs()
			if err != nil {
				return err
			}
			for _, lj := range running {
				if lj.JobID == job.ID {
					fmt.Println("Attach with:", color.CyanString("tmux attach -t %s", lj.TmuxTarget))
					return nil
				}
			}
			return fmt.Errorf("job %q has no running target", args[0])
		},
	}
}
