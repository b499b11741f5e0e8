package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nigel-dev/missionctl/internal/model"
	"github.com/nigel-dev/missionctl/internal/orchestrator"
)

// planFile is the on-disk YAML shape a plan is submitted in, grounded on
// the teacher's job frontmatter (YAML front matter on a markdown job file)
// generalized to a single whole-plan document since this repo's jobs carry
// a plain prompt string rather than a markdown body (spec.md §3).
type planFile struct {
	Name       string        `yaml:"name"`
	Mode       string        `yaml:"mode"`
	Repo       string        `yaml:"repo"`
	BaseBranch string        `yaml:"base_branch"`
	Jobs       []planFileJob `yaml:"jobs"`
}

type planFileJob struct {
	Name      string   `yaml:"name"`
	Prompt    string   `yaml:"prompt"`
	TouchSet  []string `yaml:"touch_set"`
	DependsOn []string `yaml:"depends_on"`
	Model     string   `yaml:"model"`
}

func newPlanCmd(k *kernel) *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the single active orchestration plan",
	}

	planCmd.AddCommand(newPlanStartCmd(k))
	planCmd.AddCommand(newPlanStatusCmd(k))
	planCmd.AddCommand(newPlanResumeCmd(k))
	planCmd.AddCommand(newPlanCancelCmd(k))
	planCmd.AddCommand(newPlanApproveCmd(k))
	planCmd.AddCommand(newPlanClearCheckpointCmd(k))

	return planCmd
}

func newPlanStartCmd(k *kernel) *cobra.Command {
	var file, sessionID string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Validate and launch a new plan from a YAML plan file",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read plan file: %w", err)
			}
			var pf planFile
			if err := yaml.Unmarshal(raw, &pf); err != nil {
				return fmt.Errorf("parse plan file: %w", err)
			}

			spec := orchestrator.StartPlanSpec{
				Name:            pf.Name,
				Mode:            model.PlanMode(pf.Mode),
				Repo:            pf.Repo,
				BaseBranch:      pf.BaseBranch,
				LaunchSessionID: sessionID,
			}
			for _, j := range pf.Jobs {
				spec.Jobs = append(spec.Jobs, orchestrator.JobSpec{
					Name:      j.Name,
					Prompt:    j.Prompt,
					TouchSet:  j.TouchSet,
					DependsOn: j.DependsOn,
					Model:     j.Model,
				})
			}

			plan, err := k.orch.StartPlan(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Printf("%s plan %q started (%d jobs), integration branch %s\n",
				color.GreenString("✓"), plan.Name, len(plan.Jobs), plan.IntegrationBranch)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the plan YAML file")
	cmd.Flags().StringVar(&sessionID, "session", "", "host chat session ID to notify")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newPlanStatusCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the active plan and every job's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := k.st.LoadPlan()
			if err != nil {
				return err
			}
			if plan == nil {
				fmt.Println("no active plan")
				return nil
			}
			printPlanStatus(plan)
			return nil
		},
	}
}

func printPlanStatus(plan *model.Plan) {
	fmt.Printf("%s  %s  %s\n", color.New(color.Bold).Sprint(plan.Name), plan.Status, plan.Mode)
	if plan.Checkpoint != "" {
		fmt.Printf("  %s checkpoint: %s\n", color.YellowString("⏸"), plan.Checkpoint)
		if plan.CheckpointContext != nil {
			fmt.Printf("    job=%s kind=%s\n", plan.CheckpointContext.JobName, plan.CheckpointContext.FailureKind)
		}
	}
	for _, j := range plan.Jobs {
		fmt.Printf("  [%d] %-24s %-14s %s\n", j.MergeOrder, j.Name, j.Status, j.Branch)
	}
	if plan.PRUrl != "" {
		fmt.Printf("  PR: %s\n", plan.PRUrl)
	}
}

func newPlanResumeCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Reattach monitoring and restart the reconciler after a restart",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := k.orch.ResumePlan(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓"), "plan resumed")
			return nil
		},
	}
}

func newPlanCancelCmd(k *kernel) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Tear down the active plan and its job worktrees",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := k.orch.CancelPlan(cmd.Context()); err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓"), "plan canceled")
			return nil
		},
	}
}

func newPlanApproveCmd(k *kernel) *cobra.Command {
	var retry, relaunch, correction string

	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Resolve a checkpoint by retrying or relaunching a job",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := k.orch.Approve(cmd.Context(), orchestrator.ApproveOptions{
				Retry:            retry,
				Relaunch:         relaunch,
				CorrectionPrompt: correction,
			})
			if err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓"), "approved")
			return nil
		},
	}
	cmd.Flags().StringVar(&retry, "retry", "", "name of the job to retry")
	cmd.Flags().StringVar(&relaunch, "relaunch", "", "name of the job to relaunch in place")
	cmd.Flags().StringVar(&correction, "correction", "", "prompt text appended when relaunching")
	return cmd
}

func newPlanClearCheckpointCmd(k *kernel) *cobra.Command {
	var checkpointType string

	cmd := &cobra.Command{
		Use:   "clear-checkpoint",
		Short: "Clear a named checkpoint and resume the reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := k.orch.ClearCheckpoint(model.CheckpointType(checkpointType)); err != nil {
				return err
			}
			fmt.Println(color.GreenString("✓"), "checkpoint cleared")
			return nil
		},
	}
	cmd.Flags().StringVar(&checkpointType, "type", "", "checkpoint type to clear: pre_merge, on_error, or pre_pr")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}
