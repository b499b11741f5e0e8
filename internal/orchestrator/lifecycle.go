package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nigel-dev/missionctl/internal/errs"
	"github.com/nigel-dev/missionctl/internal/mergetrain"
	"github.com/nigel-dev/missionctl/internal/model"
	"github.com/nigel-dev/missionctl/internal/monitor"
)

// StartPlan validates spec, builds the dependency graph, creates the
// integration branch and worktree, persists the new plan, and starts the
// reconciler loop (spec.md §4.5). Fails fast on a duplicate job name,
// unknown dependency, or cycle, persisting nothing (spec.md §7:
// KindUserInput).
func (o *Orchestrator) StartPlan(ctx context.Context, spec StartPlanSpec) (*model.Plan, error) {
	if existing, err := o.store.LoadPlan(); err != nil {
		return nil, err
	} else if existing != nil && !model.IsTerminalPlanStatus(existing.Status) {
		return nil, errs.New(errs.KindUserInput, "startPlan", fmt.Sprintf("plan %q is already active", existing.Name))
	}

	jobs := make([]*model.Job, 0, len(spec.Jobs))
	now := time.Now().UTC()
	for _, js := range spec.Jobs {
		status := model.JobQueued
		if len(js.DependsOn) > 0 {
			status = model.JobWaitingDeps
		}
		jobs = append(jobs, &model.Job{
			ID:        uuid.NewString(),
			Name:      js.Name,
			Prompt:    js.Prompt,
			TouchSet:  js.TouchSet,
			DependsOn: js.DependsOn,
			Status:    status,
			Model:     js.Model,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	graph, err := model.BuildGraph(jobs)
	if err != nil {
		return nil, errs.Wrap(errs.KindUserInput, "startPlan", "invalid job graph", err)
	}
	mergeOrder, err := graph.MergeOrder()
	if err != nil {
		return nil, errs.Wrap(errs.KindUserInput, "startPlan", "invalid job graph", err)
	}
	for _, j := range jobs {
		j.MergeOrder = mergeOrder[j.Name]
	}

	baseBranch := spec.BaseBranch
	if baseBranch == "" {
		baseBranch = "main"
	}
	baseCommit, err := o.git.RevParse(ctx, spec.Repo, baseBranch)
	if err != nil {
		return nil, errs.Wrap(errs.KindEnvironment, "startPlan", "resolve base branch", err)
	}

	planID := uuid.NewString()
	integrationBranch := fmt.Sprintf("missionctl/integration/%s", shortID(planID))
	integrationWorktree := filepath.Join(o.cfg.WorktreeBasePath, shortID(planID), "_integration")
	if err := o.git.WorktreeAdd(ctx, spec.Repo, integrationWorktree, integrationBranch, true); err != nil {
		return nil, errs.Wrap(errs.KindEnvironment, "startPlan", "create integration worktree", err)
	}

	plan := &model.Plan{
		ID:                  planID,
		Name:                spec.Name,
		Mode:                spec.Mode,
		Status:              model.PlanRunning,
		Jobs:                jobs,
		IntegrationBranch:   integrationBranch,
		IntegrationWorktree: integrationWorktree,
		BaseBranch:          baseBranch,
		BaseCommit:          baseCommit,
		LaunchSessionID:     spec.LaunchSessionID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := o.store.SavePlan(plan); err != nil {
		_ = o.git.WorktreeRemove(ctx, spec.Repo, integrationWorktree, true)
		return nil, err
	}

	o.mu.Lock()
	o.train = o.newTrain(integrationWorktree)
	o.approvedForMerge = make(map[string]bool)
	o.mu.Unlock()

	o.startLoop(ctx)
	o.kick()
	return plan, nil
}

func (o *Orchestrator) newTrain(worktree string) *mergetrain.Train {
	return mergetrain.New(o.git, o.log, mergetrain.Options{
		Worktree:    worktree,
		Strategy:    mergetrain.MergeStrategy(o.cfg.MergeStrategy),
		TestCommand: o.cfg.TestCommand,
		TestTimeout: o.cfg.TestTimeout,
		SetupCmds:   o.cfg.WorktreeSetup.Commands,
	})
}

// ResumePlan reattaches monitor observation to any still-running jobs and
// restarts the reconciler loop after a process restart (spec.md §4.2:
// "state must allow resuming after a crash").
func (o *Orchestrator) ResumePlan(ctx context.Context) error {
	plan, err := o.store.LoadPlan()
	if err != nil {
		return err
	}
	if plan == nil || model.IsTerminalPlanStatus(plan.Status) {
		return nil
	}

	running, err := o.store.GetRunningJobs()
	if err != nil {
		return err
	}
	for _, lj := range running {
		job := findJobByID(plan, lj.JobID)
		if job == nil || job.WorktreePath == "" {
			continue
		}
		o.mon.Observe(ctx, monitor.JobTarget{
			JobID:        job.ID,
			JobName:      job.Name,
			PaneTarget:   lj.TmuxTarget,
			WorktreePath: job.WorktreePath,
			Port:         lj.Port,
		})
	}

	o.mu.Lock()
	o.train = o.newTrain(plan.IntegrationWorktree)
	o.approvedForMerge = make(map[string]bool)
	o.mu.Unlock()

	o.startLoop(ctx)
	return nil
}

// CancelPlan tears down the active plan: stops the reconciler, kills every
// launched job's multiplexer target, removes job worktrees, and clears the
// plan record (spec.md §4.5: "Cancellation"). Idempotent no-op if no plan
// is active.
func (o *Orchestrator) CancelPlan(ctx context.Context) error {
	plan, err := o.store.LoadPlan()
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	o.stopLoop()
	o.mon.Stop()

	running, err := o.store.GetRunningJobs()
	if err == nil {
		for _, lj := range running {
			_ = o.mux.Kill(ctx, lj.TmuxTarget)
		}
	}
	for _, j := range plan.Jobs {
		if j.WorktreePath != "" {
			_ = o.git.WorktreeRemove(ctx, plan.IntegrationWorktree, j.WorktreePath, true)
		}
	}
	// The integration worktree itself is left on disk: removing it requires
	// a git context outside the worktree being deleted, and the plan record
	// (which alone names the original repo checkout) is about to be
	// cleared. A stale integration worktree is harmless disk usage; `git
	// worktree prune` from the original checkout reclaims it.

	o.mu.Lock()
	o.train = nil
	o.approvedForMerge = make(map[string]bool)
	o.mu.Unlock()

	return o.store.ClearPlan()
}

// ClearCheckpoint resumes a paused plan, requiring the caller to name the
// exact checkpoint type being cleared so a stale second call is rejected
// (spec.md §8: "clearCheckpoint followed by clearCheckpoint(sameType) is an
// error the second time").
func (o *Orchestrator) ClearCheckpoint(checkpointType model.CheckpointType) error {
	plan, err := o.store.LoadPlan()
	if err != nil {
		return err
	}
	if plan == nil {
		return errs.New(errs.KindUserInput, "clearCheckpoint", "no active plan")
	}
	if plan.Checkpoint == "" {
		return errs.New(errs.KindUserInput, "clearCheckpoint", "no checkpoint is set")
	}
	if plan.Checkpoint != checkpointType {
		return errs.New(errs.KindUserInput, "clearCheckpoint", fmt.Sprintf("active checkpoint is %q, not %q", plan.Checkpoint, checkpointType))
	}

	if checkpointType == model.CheckpointPreMerge && plan.CheckpointContext != nil {
		o.mu.Lock()
		o.approvedForMerge[plan.CheckpointContext.JobName] = true
		o.mu.Unlock()
	}

	if err := o.transitionPlan(plan.ID, model.PlanRunning, func(p *model.Plan) {
		p.Checkpoint = ""
		p.CheckpointContext = nil
	}); err != nil {
		return err
	}
	o.kick()
	return nil
}

// Approve resolves a checkpoint by either retrying a job (re-running it, or
// re-attempting its merge if it already ran) or relaunching a job in place
// with a correction prompt (spec.md §4.5).
func (o *Orchestrator) Approve(ctx context.Context, opts ApproveOptions) error {
	if opts.Retry != "" && opts.Relaunch != "" {
		return errs.New(errs.KindUserInput, "approve", "retry and relaunch are mutually exclusive")
	}
	if opts.Retry == "" && opts.Relaunch == "" {
		return errs.New(errs.KindUserInput, "approve", "one of retry or relaunch is required")
	}

	plan, err := o.store.LoadPlan()
	if err != nil {
		return err
	}
	if plan == nil {
		return errs.New(errs.KindUserInput, "approve", "no active plan")
	}

	if opts.Retry != "" {
		job := plan.JobByName(opts.Retry)
		if job == nil {
			return errs.New(errs.KindUserInput, "approve", fmt.Sprintf("no job named %q", opts.Retry))
		}
		if !job.CanBeRetried() {
			return errs.New(errs.KindUserInput, "approve", fmt.Sprintf("job %q is not in a retryable state (%s)", job.Name, job.Status))
		}

		next := model.JobQueued
		wasTouchSetFailure := plan.Checkpoint == model.CheckpointOnError &&
			plan.CheckpointContext != nil &&
			plan.CheckpointContext.JobName == job.Name &&
			plan.CheckpointContext.FailureKind == model.FailureTouchSet

		if wasTouchSetFailure {
			// spec.md §4.5: "if the prior failure was touch-set, re-validate
			// before clearing" — a retry of a touch-set failure never
			// re-runs the agent, it only re-checks the existing diff.
			changed, diffErr := o.git.Diff(ctx, plan.IntegrationWorktree, plan.BaseBranch, job.Branch)
			if diffErr != nil {
				return errs.Wrap(errs.KindEnvironment, "approve", "re-validate touch-set", diffErr)
			}
			violations := mergetrain.ValidateTouchSet(changed, job.TouchSet)
			if len(violations) > 0 {
				return errs.New(errs.KindPolicy, "approve", fmt.Sprintf("job %q still violates its touch-set: %s", job.Name, strings.Join(violations, ", ")))
			}
			next = model.JobReadyToMerge
			o.mu.Lock()
			o.approvedForMerge[job.Name] = true
			o.mu.Unlock()
		} else if job.Status == model.JobConflict || job.Status == model.JobNeedsRebase {
			next = model.JobReadyToMerge
			o.mu.Lock()
			o.approvedForMerge[job.Name] = true
			o.mu.Unlock()
		}
		if err := o.transitionJobByName(plan.ID, job.Name, next, func(j *model.Job) {
			j.Error = ""
			j.Metadata.RetryCount++
		}); err != nil {
			return err
		}
	} else {
		job := plan.JobByName(opts.Relaunch)
		if job == nil {
			return errs.New(errs.KindUserInput, "approve", fmt.Sprintf("no job named %q", opts.Relaunch))
		}
		if job.WorktreePath == "" {
			return errs.New(errs.KindUserInput, "approve", fmt.Sprintf("job %q has no worktree to relaunch into", job.Name))
		}
		if err := o.spawnLaunchedJob(ctx, plan, job, opts.CorrectionPrompt); err != nil {
			return fmt.Errorf("relaunch %s: %w", job.Name, err)
		}
		if err := o.transitionJobByName(plan.ID, job.Name, model.JobRunning, func(j *model.Job) {
			j.Branch = job.Branch
			j.WorktreePath = job.WorktreePath
			j.Error = ""
		}); err != nil {
			return err
		}
	}

	if plan.Checkpoint != "" {
		if err := o.transitionPlan(plan.ID, model.PlanRunning, func(p *model.Plan) {
			p.Checkpoint = ""
			p.CheckpointContext = nil
		}); err != nil {
			return err
		}
	}
	o.kick()
	return nil
}
