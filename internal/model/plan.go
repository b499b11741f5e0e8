// Package model defines the data types shared by the state store, monitor,
// merge train, and orchestrator: Plan, Job, LaunchedJob, Report, and
// PendingQuestion.
package model

import "time"

// PlanMode controls how much the Orchestrator proceeds without approval.
type PlanMode string

const (
	ModeAutopilot  PlanMode = "autopilot"
	ModeCopilot    PlanMode = "copilot"
	ModeSupervisor PlanMode = "supervisor"
)

// PlanStatus is the plan-level state machine (spec.md §4.1).
type PlanStatus string

const (
	PlanPending    PlanStatus = "pending"
	PlanRunning    PlanStatus = "running"
	PlanPaused     PlanStatus = "paused"
	PlanMerging    PlanStatus = "merging"
	PlanCreatingPR PlanStatus = "creating_pr"
	PlanCompleted  PlanStatus = "completed"
	PlanFailed     PlanStatus = "failed"
	PlanCanceled   PlanStatus = "canceled"
)

// planTransitions enumerates every valid Plan.Status transition. A request
// outside this table is logged by the orchestrator and still written.
var planTransitions = map[PlanStatus]map[PlanStatus]bool{
	PlanPending: {
		PlanRunning:  true,
		PlanCanceled: true,
	},
	PlanRunning: {
		PlanPaused:     true,
		PlanMerging:    true,
		PlanCreatingPR: true,
		PlanCompleted:  true,
		PlanFailed:     true,
		PlanCanceled:   true,
	},
	PlanPaused: {
		PlanRunning:  true,
		PlanCanceled: true,
		PlanFailed:   true,
	},
	PlanMerging: {
		PlanRunning:  true,
		PlanFailed:   true,
		PlanCanceled: true,
	},
	PlanCreatingPR: {
		PlanCompleted: true,
		PlanFailed:    true,
		PlanCanceled:  true,
	},
}

// IsValidPlanTransition reports whether from -> to is in the valid-transitions
// table. Terminal statuses never transition anywhere.
func IsValidPlanTransition(from, to PlanStatus) bool {
	if from == to {
		return true
	}
	next, ok := planTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminalPlanStatus reports whether status is a terminal Plan state.
func IsTerminalPlanStatus(s PlanStatus) bool {
	switch s {
	case PlanCompleted, PlanFailed, PlanCanceled:
		return true
	}
	return false
}

// CheckpointType names the three points where the Orchestrator pauses for
// explicit user approval.
type CheckpointType string

const (
	CheckpointPreMerge CheckpointType = "pre_merge"
	CheckpointOnError  CheckpointType = "on_error"
	CheckpointPrePR    CheckpointType = "pre_pr"
)

// FailureKind classifies why an on_error checkpoint was raised.
type FailureKind string

const (
	FailureTouchSet      FailureKind = "touchset"
	FailureMergeConflict FailureKind = "merge_conflict"
	FailureTestFailure   FailureKind = "test_failure"
	FailureJobFailed     FailureKind = "job_failed"
)

// CheckpointContext carries the data a caller needs to decide how to approve
// or retry a paused plan.
type CheckpointContext struct {
	JobName              string      `json:"jobName,omitempty"`
	FailureKind          FailureKind `json:"failureKind,omitempty"`
	TouchSetViolations   []string    `json:"touchSetViolations,omitempty"`
	TouchSetPatterns     []string    `json:"touchSetPatterns,omitempty"`
}

// Plan is the single active orchestration plan (spec.md §3).
type Plan struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Mode                PlanMode            `json:"mode"`
	Status              PlanStatus          `json:"status"`
	Jobs                []*Job              `json:"jobs"`
	IntegrationBranch   string              `json:"integrationBranch"`
	IntegrationWorktree string              `json:"integrationWorktree"`
	BaseBranch          string              `json:"baseBranch"`
	BaseCommit          string              `json:"baseCommit"`
	Checkpoint          CheckpointType      `json:"checkpoint,omitempty"`
	CheckpointContext   *CheckpointContext  `json:"checkpointContext,omitempty"`
	PRUrl               string              `json:"prUrl,omitempty"`
	LaunchSessionID      string              `json:"launchSessionID,omitempty"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// JobByName returns the job with the given name, or nil.
func (p *Plan) JobByName(name string) *Job {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// Clone returns a deep-enough copy of the plan for safe concurrent reads:
// the Jobs slice, each Job, and the CheckpointContext are copied; slices
// and pointers inside each Job (TouchSet, DependsOn, MergedAt) are shared.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Jobs = make([]*Job, len(p.Jobs))
	for i, j := range p.Jobs {
		jc := *j
		cp.Jobs[i] = &jc
	}
	if p.CheckpointContext != nil {
		ctxCopy := *p.CheckpointContext
		cp.CheckpointContext = &ctxCopy
	}
	return &cp
}
