package model

import "time"

// JobStatus is the per-job state machine (spec.md §4.1): 12 states.
type JobStatus string

const (
	JobQueued       JobStatus = "queued"
	JobWaitingDeps  JobStatus = "waiting_deps"
	JobRunning      JobStatus = "running"
	JobCompleted    JobStatus = "completed"
	JobFailed       JobStatus = "failed"
	JobReadyToMerge JobStatus = "ready_to_merge"
	JobMerging      JobStatus = "merging"
	JobMerged       JobStatus = "merged"
	JobConflict     JobStatus = "conflict"
	JobNeedsRebase  JobStatus = "needs_rebase"
	JobStopped      JobStatus = "stopped"
	JobCanceled     JobStatus = "canceled"
)

// jobTransitions enumerates every valid Job.Status transition.
var jobTransitions = map[JobStatus]map[JobStatus]bool{
	JobQueued:       {JobWaitingDeps: true, JobRunning: true, JobStopped: true, JobCanceled: true},
	JobWaitingDeps:  {JobRunning: true, JobStopped: true, JobCanceled: true},
	JobRunning:      {JobCompleted: true, JobFailed: true, JobStopped: true, JobCanceled: true},
	JobCompleted:    {JobReadyToMerge: true, JobFailed: true, JobStopped: true, JobCanceled: true},
	JobFailed:       {JobReadyToMerge: true, JobStopped: true, JobCanceled: true},
	JobReadyToMerge: {JobMerging: true, JobStopped: true, JobCanceled: true},
	JobMerging:      {JobMerged: true, JobConflict: true, JobFailed: true, JobStopped: true, JobCanceled: true},
	JobMerged:       {JobNeedsRebase: true, JobStopped: true, JobCanceled: true},
	JobConflict:     {JobReadyToMerge: true, JobStopped: true, JobCanceled: true},
	JobNeedsRebase:  {JobReadyToMerge: true, JobStopped: true, JobCanceled: true},
}

// IsValidJobTransition reports whether from -> to is in the valid-transitions
// table. Any state may move to stopped/canceled, which the table above
// already encodes for every entry.
func IsValidJobTransition(from, to JobStatus) bool {
	if from == to {
		return true
	}
	next, ok := jobTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// IsTerminalJobStatus reports whether status is a terminal Job state.
func IsTerminalJobStatus(s JobStatus) bool {
	switch s {
	case JobStopped, JobCanceled:
		return true
	}
	return false
}

// Job is a single unit of work within a Plan (spec.md §3).
type Job struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Prompt       string     `json:"prompt"`
	TouchSet     []string   `json:"touchSet,omitempty"`
	DependsOn    []string   `json:"dependsOn,omitempty"`
	Status       JobStatus  `json:"status"`
	Branch       string     `json:"branch,omitempty"`
	WorktreePath string     `json:"worktreePath,omitempty"`
	MergeOrder   int        `json:"mergeOrder"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	Error        string     `json:"error,omitempty"`
	// Model overrides the plan-wide default agent model for this job alone,
	// surfaced in the launcher script (spec.md §6: "invoked by the launcher
	// script with a model identifier"). Empty means use the configured
	// default.
	Model string `json:"model,omitempty"`

	Metadata JobMetadata `json:"metadata"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JobMetadata holds supplemental, non-spec-critical bookkeeping surfaced by
// the status dashboard and the Notifier's rollup message, grounded on the
// teacher's JobMetadata (pkg/orchestration/job.go).
type JobMetadata struct {
	RetryCount int    `json:"retryCount,omitempty"`
	LastError  string `json:"lastError,omitempty"`
}

// Placement is where a LaunchedJob's multiplexer view lives.
type Placement string

const (
	PlacementSession Placement = "session"
	PlacementWindow  Placement = "window"
)

// LaunchedJob is the runtime counterpart of a Job (spec.md §3).
type LaunchedJob struct {
	JobID           string     `json:"jobId"`
	TmuxTarget      string     `json:"tmuxTarget"`
	Placement       Placement  `json:"placement"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	LaunchSessionID string     `json:"launchSessionID,omitempty"`
	Port            int        `json:"port,omitempty"`
}

// ReportStatus is the status an agent reports about its own job via the
// side-channel report file.
type ReportStatus string

const (
	ReportWorking     ReportStatus = "working"
	ReportProgress    ReportStatus = "progress"
	ReportBlocked     ReportStatus = "blocked"
	ReportNeedsReview ReportStatus = "needs_review"
	ReportCompleted   ReportStatus = "completed"
)

// Report is the agent -> host side-channel message, written by the agent to
// a well-known path inside its own worktree (spec.md §3, §6).
type Report struct {
	JobID     string       `json:"jobId"`
	JobName   string       `json:"jobName"`
	Status    ReportStatus `json:"status"`
	Message   string       `json:"message"`
	Progress  *int         `json:"progress,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// PendingQuestion is an agent question awaiting a human (or policy) answer.
// At most one exists per (JobID, PartID).
type PendingQuestion struct {
	JobID           string    `json:"jobId"`
	PartID          string    `json:"partId"`
	RemoteSessionID string    `json:"remoteSessionID"`
	Port            int       `json:"port"`
	Question        string    `json:"question"`
	Options         []string  `json:"options,omitempty"`
	Multiple        bool      `json:"multiple,omitempty"`
	DetectedAt      time.Time `json:"detectedAt"`
}

// CanBeRetried reports whether a job's current status permits approve(retry=...).
func (j *Job) CanBeRetried() bool {
	switch j.Status {
	case JobFailed, JobConflict, JobNeedsRebase:
		return true
	}
	return false
}
