package orchestrator

import (
	"context"
	"time"

	"github.com/nigel-dev/missionctl/internal/model"
	"github.com/nigel-dev/missionctl/internal/monitor"
)

// startLoop launches the reconciler goroutine: a ticker at cfg.PollInterval
// plus an on-demand kick channel, self-exclusive via isReconciling so a slow
// pass never overlaps the next tick (spec.md §4.5: "runs on a timer and
// on-demand, never concurrently with itself"). Grounded on the teacher's
// Orchestrator.RunAll main loop (pkg/orchestration/orchestrator.go).
func (o *Orchestrator) startLoop(ctx context.Context) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	o.running = true
	o.stopCh = make(chan struct{})
	o.kickCh = make(chan struct{}, 1)
	o.unsubscribe = o.mon.Subscribe(o.handleMonitorEvent)
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-o.stopCh:
				return
			case <-ticker.C:
				o.reconcileOnce(ctx)
			case <-o.kickCh:
				o.reconcileOnce(ctx)
			}
		}
	}()
}

// stopLoop halts the reconciler goroutine and unsubscribes from monitor
// events. Idempotent.
func (o *Orchestrator) stopLoop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	close(o.stopCh)
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	o.wg.Wait()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// kick requests an out-of-band reconciliation pass without waiting for the
// next tick (spec.md §4.5: e.g. after approve()). Non-blocking: a pass
// already queued is sufficient.
func (o *Orchestrator) kick() {
	o.mu.Lock()
	ch := o.kickCh
	o.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// reconcileOnce runs a single reconciler pass, skipping it entirely if one
// is already in flight (self-exclusion).
func (o *Orchestrator) reconcileOnce(ctx context.Context) {
	o.mu.Lock()
	if o.isReconciling {
		o.mu.Unlock()
		return
	}
	o.isReconciling = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.isReconciling = false
		o.mu.Unlock()
	}()

	plan, err := o.store.LoadPlan()
	if err != nil {
		o.log.Error("reconcile: failed to load plan", "error", err)
		return
	}
	if plan == nil || model.IsTerminalPlanStatus(plan.Status) {
		return
	}
	o.reconcilePass(ctx, plan)
}

// handleMonitorEvent maps a Job Monitor event to a job-status transition
// and kicks the reconciler (spec.md §4.5 step 3).
func (o *Orchestrator) handleMonitorEvent(e monitor.Event) {
	switch e.Kind {
	case monitor.EventComplete:
		if err := o.transitionJob(e.JobID, model.JobCompleted, func(j *model.Job) {}); err != nil {
			o.log.Warn("transition to completed failed", "job", e.JobName, "error", err)
		}
	case monitor.EventNeedsReview:
		if err := o.transitionJob(e.JobID, model.JobCompleted, func(j *model.Job) {
			j.Metadata.LastError = "needs_review: " + e.Message
		}); err != nil {
			o.log.Warn("transition to completed (needs_review) failed", "job", e.JobName, "error", err)
		}
	case monitor.EventFailed:
		if err := o.transitionJob(e.JobID, model.JobFailed, func(j *model.Job) {
			j.Error = e.Message
			j.Metadata.LastError = e.Message
		}); err != nil {
			o.log.Warn("transition to failed failed", "job", e.JobName, "error", err)
		}
	case monitor.EventBlocked, monitor.EventAwaitingInput, monitor.EventQuestion:
		o.log.Info("job needs attention", "job", e.JobName, "kind", e.Kind, "message", e.Message)
	}
	o.kick()
}

// transitionJob resolves jobID to its plan job by scanning launched jobs,
// then applies mutate and the status change via store.UpdatePlanJob. An
// invalid transition (per model.IsValidJobTransition) is logged but still
// written (spec.md §4.1: "invalid transitions are logged, not rejected").
func (o *Orchestrator) transitionJob(jobID string, to model.JobStatus, mutate func(*model.Job)) error {
	plan, err := o.store.LoadPlan()
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}
	job := findJobByID(plan, jobID)
	if job == nil {
		return nil
	}
	return o.transitionJobByName(plan.ID, job.Name, to, mutate)
}

func (o *Orchestrator) transitionJobByName(planID, jobName string, to model.JobStatus, mutate func(*model.Job)) error {
	return o.store.UpdatePlanJob(planID, jobName, func(j *model.Job) {
		if !model.IsValidJobTransition(j.Status, to) {
			o.log.Warn("invalid job transition requested", "job", jobName, "from", j.Status, "to", to)
		}
		if mutate != nil {
			mutate(j)
		}
		j.Status = to
		if to == model.JobMerged {
			now := time.Now().UTC()
			j.MergedAt = &now
		}
	})
}

// transitionPlan applies mutate and the status change to the active plan,
// logging (not rejecting) an invalid transition.
func (o *Orchestrator) transitionPlan(planID string, to model.PlanStatus, mutate func(*model.Plan)) error {
	return o.store.UpdatePlanFields(planID, func(p *model.Plan) {
		if !model.IsValidPlanTransition(p.Status, to) {
			o.log.Warn("invalid plan transition requested", "plan", planID, "from", p.Status, "to", to)
		}
		if mutate != nil {
			mutate(p)
		}
		p.Status = to
	})
}

// setCheckpoint pauses the plan at checkpointType with checkCtx attached,
// then notifies the user (spec.md §4.5, §4.6).
func (o *Orchestrator) setCheckpoint(plan *model.Plan, checkpointType model.CheckpointType, checkCtx *model.CheckpointContext) {
	err := o.transitionPlan(plan.ID, model.PlanPaused, func(p *model.Plan) {
		p.Checkpoint = checkpointType
		p.CheckpointContext = checkCtx
	})
	if err != nil {
		o.log.Error("setCheckpoint failed", "plan", plan.ID, "checkpoint", checkpointType, "error", err)
		return
	}
	o.notifyUser(plan.LaunchSessionID, describeCheckpoint(checkpointType, checkCtx))
}

func describeCheckpoint(t model.CheckpointType, ctx *model.CheckpointContext) string {
	switch t {
	case model.CheckpointOnError:
		if ctx != nil && ctx.JobName != "" {
			return "Paused: " + ctx.JobName + " hit an error (" + string(ctx.FailureKind) + ") and needs your input."
		}
		return "Paused: a job hit an error and needs your input."
	case model.CheckpointPreMerge:
		if ctx != nil && ctx.JobName != "" {
			return "Paused before merging " + ctx.JobName + " — approve to continue."
		}
		return "Paused before merging — approve to continue."
	case model.CheckpointPrePR:
		return "All jobs merged. Paused before opening the pull request — approve to continue."
	}
	return "Plan paused."
}
