package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nigel-dev/missionctl/internal/config"
	"github.com/nigel-dev/missionctl/internal/model"
	"github.com/nigel-dev/missionctl/internal/monitor"
	"github.com/nigel-dev/missionctl/internal/store"
)

// spawnLaunchedJob implements spec.md §4.5 "Spawning a LaunchedJob":
// deterministic branch/worktree naming, worktree post-create setup, prompt
// and launcher files, multiplexer placement, pane-died hook, and job-store
// registration. On any failure it best-effort reverses the partial work.
//
// When job.WorktreePath is already set (an approve(relaunch=...) call),
// the existing worktree and branch are reused: the old multiplexer target
// is killed first and promptOverride is appended to the original prompt as
// a correction note (spec.md §4.5 checkpoints: "respawns an agent in the
// existing worktree with a correction prompt").
func (o *Orchestrator) spawnLaunchedJob(ctx context.Context, plan *model.Plan, job *model.Job, promptOverride string) error {
	safe := sanitizeName(job.Name)
	relaunching := job.WorktreePath != ""

	branch := job.Branch
	worktreePath := job.WorktreePath

	if relaunching {
		if old, _ := o.store.GetJobByID(job.ID); old != nil {
			_ = o.mux.Kill(ctx, old.TmuxTarget)
			_ = o.store.RemoveJob(job.ID)
		}
		o.mon.StopJob(job.ID)
	} else {
		if branch == "" {
			branch = fmt.Sprintf("missionctl/%s", safe)
		}
		worktreePath = filepath.Join(o.cfg.WorktreeBasePath, shortID(plan.ID), safe)
		if err := o.git.WorktreeAdd(ctx, plan.IntegrationWorktree, worktreePath, branch, true); err != nil {
			return fmt.Errorf("create worktree for %s: %w", job.Name, err)
		}
		if err := o.applyWorktreeSetup(ctx, worktreePath); err != nil {
			o.cleanupFailedSpawn(ctx, plan, worktreePath)
			return fmt.Errorf("worktree setup for %s: %w", job.Name, err)
		}
	}

	prompt := job.Prompt
	if promptOverride != "" {
		prompt = fmt.Sprintf("%s\n\n## Correction\n\n%s", job.Prompt, promptOverride)
	}
	commitInstruction := "Leave your work uncommitted; the orchestrator commits it for you when the job completes."
	if o.cfg.AutoCommit {
		commitInstruction = "Commit your work as you go."
	}
	fullPrompt := fmt.Sprintf(
		"%s\n\n---\nReport your progress by writing JSON to %s (status: working|progress|blocked|needs_review|completed). %s\n",
		prompt, model.ReportFileName, commitInstruction,
	)
	if err := os.WriteFile(model.PromptPath(worktreePath), []byte(fullPrompt), 0644); err != nil {
		if !relaunching {
			o.cleanupFailedSpawn(ctx, plan, worktreePath)
		}
		return fmt.Errorf("write prompt for %s: %w", job.Name, err)
	}

	modelID := job.Model
	if modelID == "" {
		modelID = o.cfg.DefaultModel
	}
	launchCmd := o.launcher.LauncherCommand(modelID, model.PromptPath(worktreePath))

	// Allocate a report-stream port so the Job Monitor can prefer
	// event-stream mode over pane-polling (spec.md §4.3).
	running, err := o.store.GetRunningJobs()
	if err != nil {
		running = nil
	}
	port, portErr := o.store.AllocatePort(store.PortRange{Start: o.cfg.PortRangeStart, End: o.cfg.PortRangeEnd}, running)
	if portErr != nil {
		o.log.Warn("port allocation failed, falling back to pane-polling", "job", job.Name, "error", portErr)
		port = 0
	}

	launcherScript := fmt.Sprintf(
		"#!/bin/sh\nset -e\ncd %s\nexport MISSIONCTL_PORT=%d\nset +e\n%s\necho $? > %s\n",
		worktreePath, port, launchCmd, model.ExitCodePath(worktreePath),
	)
	if err := os.WriteFile(model.LauncherPath(worktreePath), []byte(launcherScript), 0755); err != nil {
		if port != 0 {
			_ = o.store.ReleasePort(port)
		}
		if !relaunching {
			o.cleanupFailedSpawn(ctx, plan, worktreePath)
		}
		return fmt.Errorf("write launcher for %s: %w", job.Name, err)
	}

	placement := model.Placement(o.cfg.DefaultPlacement)
	if placement == model.PlacementWindow && !o.mux.InTmux() {
		placement = model.PlacementSession
	}

	sessionOrWindowName := "mc-" + safe
	var target string
	if placement == model.PlacementWindow {
		var current string
		current, err = o.mux.CurrentSession(ctx)
		if err == nil {
			target, err = o.mux.NewWindow(ctx, current, sessionOrWindowName, worktreePath, "sh "+model.LauncherPath(worktreePath))
		}
	} else {
		target, err = o.mux.NewSession(ctx, sessionOrWindowName, worktreePath, "sh "+model.LauncherPath(worktreePath))
	}
	if err != nil {
		if port != 0 {
			_ = o.store.ReleasePort(port)
		}
		if !relaunching {
			o.cleanupFailedSpawn(ctx, plan, worktreePath)
		}
		return fmt.Errorf("start multiplexer target for %s: %w", job.Name, err)
	}

	_ = o.mux.SetPaneDiedHook(ctx, target, fmt.Sprintf("echo %s >> %s", job.ID, filepath.Join(config.DataDir(), "completed-jobs.log")))

	lj := &model.LaunchedJob{
		JobID:           job.ID,
		TmuxTarget:      target,
		Placement:       placement,
		LaunchSessionID: plan.LaunchSessionID,
		Port:            port,
	}
	if err := o.store.AddJob(lj); err != nil {
		_ = o.mux.Kill(ctx, target)
		if port != 0 {
			_ = o.store.ReleasePort(port)
		}
		if !relaunching {
			o.cleanupFailedSpawn(ctx, plan, worktreePath)
		}
		return fmt.Errorf("record launched job %s: %w", job.Name, err)
	}

	job.Branch = branch
	job.WorktreePath = worktreePath

	o.mon.Observe(ctx, monitor.JobTarget{
		JobID:        job.ID,
		JobName:      job.Name,
		PaneTarget:   target,
		WorktreePath: worktreePath,
		Port:         lj.Port,
	})

	return nil
}

func (o *Orchestrator) cleanupFailedSpawn(ctx context.Context, plan *model.Plan, worktreePath string) {
	_ = os.Remove(model.PromptPath(worktreePath))
	_ = os.Remove(model.LauncherPath(worktreePath))
	_ = o.git.WorktreeRemove(ctx, plan.IntegrationWorktree, worktreePath, true)
}

// applyWorktreeSetup runs the configured post-create hook: copy files,
// symlink directories, then shell commands, in that order (spec.md §4.5,
// §6 worktreeSetup).
func (o *Orchestrator) applyWorktreeSetup(ctx context.Context, worktreePath string) error {
	setup := o.cfg.WorktreeSetup
	for _, f := range setup.CopyFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		_ = os.WriteFile(filepath.Join(worktreePath, filepath.Base(f)), data, 0644)
	}
	for _, d := range setup.SymlinkDirs {
		_ = os.Symlink(d, filepath.Join(worktreePath, filepath.Base(d)))
	}
	for _, c := range setup.Commands {
		if err := runSetupCommand(ctx, worktreePath, c); err != nil {
			return err
		}
	}
	return nil
}
