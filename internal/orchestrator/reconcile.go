package orchestrator

import (
	"context"
	"sort"
	"strings"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/mergetrain"
	"github.com/nigel-dev/missionctl/internal/model"
)

// reconcilePass runs the full reconciler pass for the active plan (spec.md
// §4.5): launch eligible jobs, surface newly-failed jobs as checkpoints,
// promote completed jobs through touch-set validation, drive the merge
// train, and finalize the plan with a pull request once every job has
// settled. Each step reloads the plan from the store so a checkpoint raised
// mid-pass is observed before the next step runs.
func (o *Orchestrator) reconcilePass(ctx context.Context, plan *model.Plan) {
	if plan.Status == model.PlanPaused {
		return
	}

	if err := o.launchEligible(ctx, plan); err != nil {
		o.log.Error("launchEligible failed", "plan", plan.ID, "error", err)
	}

	plan = o.reloadPlan(plan)
	if plan == nil || plan.Status == model.PlanPaused {
		return
	}
	if o.checkpointFailedJobs(plan) {
		return
	}

	o.promoteCompletedJobs(ctx, plan)

	plan = o.reloadPlan(plan)
	if plan == nil || plan.Status == model.PlanPaused {
		return
	}

	o.driveMergeTrain(ctx, plan)

	plan = o.reloadPlan(plan)
	if plan == nil || plan.Status == model.PlanPaused {
		return
	}

	o.finalizePlan(ctx, plan)
}

func (o *Orchestrator) reloadPlan(prev *model.Plan) *model.Plan {
	plan, err := o.store.LoadPlan()
	if err != nil {
		o.log.Error("reload plan failed", "error", err)
		return prev
	}
	return plan
}

// launchEligible spawns every job whose dependencies have all merged into
// the integration branch, bounded by the configured parallelism (spec.md
// §4.1, §4.5). Dependency satisfaction is defined against merged jobs, not
// merely completed ones, so a dependent job always builds atop its
// dependency's integrated code.
func (o *Orchestrator) launchEligible(ctx context.Context, plan *model.Plan) error {
	graph, err := model.BuildGraph(plan.Jobs)
	if err != nil {
		return err
	}

	done := make(map[string]bool, len(plan.Jobs))
	running := 0
	for _, j := range plan.Jobs {
		if j.Status == model.JobMerged {
			done[j.Name] = true
		}
		if j.Status == model.JobRunning {
			running++
		}
	}

	slots := o.cfg.MaxParallel - running
	for _, name := range graph.Eligible(done) {
		if slots <= 0 {
			break
		}
		job := plan.JobByName(name)
		if job == nil || (job.Status != model.JobQueued && job.Status != model.JobWaitingDeps) {
			continue
		}
		if err := o.spawnLaunchedJob(ctx, plan, job, ""); err != nil {
			o.log.Error("spawn failed", "job", job.Name, "error", err)
			if tErr := o.transitionJobByName(plan.ID, job.Name, model.JobFailed, func(j *model.Job) {
				j.Error = err.Error()
			}); tErr != nil {
				o.log.Error("transition to failed failed", "job", job.Name, "error", tErr)
			}
			continue
		}
		branch, worktree := job.Branch, job.WorktreePath
		if err := o.transitionJobByName(plan.ID, job.Name, model.JobRunning, func(j *model.Job) {
			j.Branch = branch
			j.WorktreePath = worktree
		}); err != nil {
			o.log.Error("transition to running failed", "job", job.Name, "error", err)
		}
		slots--
	}
	return nil
}

// checkpointFailedJobs raises an on_error checkpoint the first time it
// observes a job that reached JobFailed since the last check (spec.md
// §4.5 step 3/8). Returns true if a checkpoint was (or already is) raised,
// in which case the caller must stop the pass.
func (o *Orchestrator) checkpointFailedJobs(plan *model.Plan) bool {
	if plan.Checkpoint != "" {
		return true
	}
	for _, j := range plan.Jobs {
		if j.Status == model.JobFailed {
			o.setCheckpoint(plan, model.CheckpointOnError, &model.CheckpointContext{
				JobName:     j.Name,
				FailureKind: model.FailureJobFailed,
			})
			return true
		}
	}
	return false
}

// promoteCompletedJobs validates each completed job's touch-set against its
// actual diff and promotes clean jobs to ready_to_merge (spec.md §4.5 step
// 5, §5.2). A violation fails the job and raises an on_error checkpoint,
// stopping the rest of this pass.
func (o *Orchestrator) promoteCompletedJobs(ctx context.Context, plan *model.Plan) {
	for _, job := range plan.Jobs {
		if job.Status != model.JobCompleted {
			continue
		}
		if len(job.TouchSet) > 0 {
			changed, err := o.git.Diff(ctx, plan.IntegrationWorktree, plan.BaseBranch, job.Branch)
			if err != nil {
				o.log.Error("touch-set diff failed", "job", job.Name, "error", err)
				continue
			}
			violations := mergetrain.ValidateTouchSet(changed, job.TouchSet)
			if len(violations) > 0 {
				if err := o.transitionJobByName(plan.ID, job.Name, model.JobFailed, func(j *model.Job) {
					j.Error = "touch-set violation: " + strings.Join(violations, ", ")
				}); err != nil {
					o.log.Error("transition to failed failed", "job", job.Name, "error", err)
				}
				o.setCheckpoint(plan, model.CheckpointOnError, &model.CheckpointContext{
					JobName:            job.Name,
					FailureKind:        model.FailureTouchSet,
					TouchSetViolations: violations,
					TouchSetPatterns:   job.TouchSet,
				})
				return
			}
		}
		if err := o.transitionJobByName(plan.ID, job.Name, model.JobReadyToMerge, nil); err != nil {
			o.log.Error("promote to ready_to_merge failed", "job", job.Name, "error", err)
		}
	}
}

func readyToMergeInOrder(plan *model.Plan) []*model.Job {
	var out []*model.Job
	for _, j := range plan.Jobs {
		if j.Status == model.JobReadyToMerge {
			out = append(out, j)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].MergeOrder < out[k].MergeOrder })
	return out
}

// earlierAllMerged reports whether every job with a lower mergeOrder than
// job has either merged or reached a terminal stopped/canceled state
// (spec.md §4.1: merge order is a strict sequential gate).
func earlierAllMerged(plan *model.Plan, job *model.Job) bool {
	for _, j := range plan.Jobs {
		if j.MergeOrder < job.MergeOrder && j.Status != model.JobMerged && !model.IsTerminalJobStatus(j.Status) {
			return false
		}
	}
	return true
}

// driveMergeTrain advances at most one ready_to_merge job per pass through
// the merge train: a supervisor plan gates on prior approve(pre_merge)
// before the merge is attempted; a conflict or test failure raises an
// on_error checkpoint (spec.md §4.4, §4.5 steps 6-7).
func (o *Orchestrator) driveMergeTrain(ctx context.Context, plan *model.Plan) {
	for _, job := range readyToMergeInOrder(plan) {
		if !earlierAllMerged(plan, job) {
			continue
		}

		if plan.Mode == model.ModeSupervisor && !o.approvedForMerge[job.Name] {
			o.setCheckpoint(plan, model.CheckpointPreMerge, &model.CheckpointContext{JobName: job.Name})
			return
		}

		clean, err := o.train.TrialMerge(ctx, job.Branch)
		if err != nil {
			o.log.Error("trial merge failed", "job", job.Name, "error", err)
			return
		}
		if !clean {
			if tErr := o.transitionJobByName(plan.ID, job.Name, model.JobNeedsRebase, func(j *model.Job) {
				j.Error = "branch does not merge cleanly"
			}); tErr != nil {
				o.log.Error("transition to needs_rebase failed", "job", job.Name, "error", tErr)
			}
			o.setCheckpoint(plan, model.CheckpointOnError, &model.CheckpointContext{
				JobName:     job.Name,
				FailureKind: model.FailureMergeConflict,
			})
			return
		}

		if err := o.transitionJobByName(plan.ID, job.Name, model.JobMerging, nil); err != nil {
			o.log.Error("transition to merging failed", "job", job.Name, "error", err)
		}
		_ = o.transitionPlan(plan.ID, model.PlanMerging, nil)

		o.train.Enqueue(mergetrain.JobSpec{
			JobID:    job.ID,
			JobName:  job.Name,
			Branch:   job.Branch,
			TouchSet: job.TouchSet,
		})
		result, ok := o.train.ProcessNext(ctx)
		delete(o.approvedForMerge, job.Name)
		if !ok {
			_ = o.transitionPlan(plan.ID, model.PlanRunning, nil)
			return
		}

		if result.Success {
			if err := o.transitionJobByName(plan.ID, job.Name, model.JobMerged, nil); err != nil {
				o.log.Error("transition to merged failed", "job", job.Name, "error", err)
			}
			_ = o.transitionPlan(plan.ID, model.PlanRunning, nil)
			o.notifyMergeResult(plan, job, result)
			return
		}

		if result.Type == mergetrain.ResultConflict {
			if err := o.transitionJobByName(plan.ID, job.Name, model.JobNeedsRebase, func(j *model.Job) {
				j.Error = "merge conflict: " + strings.Join(result.Files, ", ")
			}); err != nil {
				o.log.Error("transition to needs_rebase failed", "job", job.Name, "error", err)
			}
			o.setCheckpoint(plan, model.CheckpointOnError, &model.CheckpointContext{
				JobName:     job.Name,
				FailureKind: model.FailureMergeConflict,
			})
			return
		}

		if err := o.transitionJobByName(plan.ID, job.Name, model.JobFailed, func(j *model.Job) {
			j.Error = result.Output
		}); err != nil {
			o.log.Error("transition to failed failed", "job", job.Name, "error", err)
		}
		o.setCheckpoint(plan, model.CheckpointOnError, &model.CheckpointContext{
			JobName:     job.Name,
			FailureKind: model.FailureTestFailure,
		})
		return
	}
}

// finalizePlan opens the pull request once every job has merged or reached
// a terminal state (spec.md §4.5 step 8, §4.6).
func (o *Orchestrator) finalizePlan(ctx context.Context, plan *model.Plan) {
	anyFailed := false
	for _, j := range plan.Jobs {
		switch j.Status {
		case model.JobMerged:
		case model.JobFailed, model.JobConflict:
			anyFailed = true
		case model.JobStopped, model.JobCanceled:
		default:
			return // still in flight
		}
	}

	if anyFailed {
		if err := o.transitionPlan(plan.ID, model.PlanFailed, nil); err != nil {
			o.log.Error("transition plan to failed failed", "plan", plan.ID, "error", err)
		}
		o.notifyUser(plan.LaunchSessionID, "Plan failed: one or more jobs did not merge cleanly.")
		return
	}

	if plan.Status == model.PlanCreatingPR || plan.Status == model.PlanCompleted {
		return
	}

	if plan.Mode == model.ModeSupervisor && plan.Checkpoint != model.CheckpointPrePR {
		o.setCheckpoint(plan, model.CheckpointPrePR, nil)
		return
	}

	if err := o.transitionPlan(plan.ID, model.PlanCreatingPR, nil); err != nil {
		o.log.Error("transition plan to creating_pr failed", "plan", plan.ID, "error", err)
		return
	}

	if err := o.git.Push(ctx, plan.IntegrationWorktree, "origin", plan.IntegrationBranch); err != nil {
		_ = o.transitionPlan(plan.ID, model.PlanFailed, nil)
		o.notifyUser(plan.LaunchSessionID, "Push failed: "+err.Error())
		return
	}

	body := o.renderPRBody(plan)
	url, err := o.vcs.CreatePR(ctx, plan.IntegrationWorktree, adapter.PRRequest{
		Head:  plan.IntegrationBranch,
		Base:  plan.BaseBranch,
		Title: plan.Name,
		Body:  body,
	})
	if err != nil {
		_ = o.transitionPlan(plan.ID, model.PlanFailed, nil)
		o.notifyUser(plan.LaunchSessionID, "Pull request creation failed: "+err.Error())
		return
	}

	if err := o.transitionPlan(plan.ID, model.PlanCompleted, func(p *model.Plan) {
		p.PRUrl = url
	}); err != nil {
		o.log.Error("transition plan to completed failed", "plan", plan.ID, "error", err)
	}
	o.notifyUser(plan.LaunchSessionID, "Plan completed — pull request: "+url)
}
