// Package orchestrator implements the Orchestrator / Reconciler (spec.md
// §4.5): it validates a submitted plan, drives the dependency scheduler,
// spawns LaunchedJobs, feeds completed jobs to the Merge Train, manages
// supervisor checkpoints, and finalizes a successful plan with a pull
// request. Grounded on the teacher's Orchestrator.RunAll/UpdateJobStatus
// (pkg/orchestration/orchestrator.go): same shape (status snapshot ->
// compute runnable set -> bounded-concurrency dispatch -> sleep
// CheckInterval), retargeted from "run a job directly" to "launch a
// tmux-supervised agent and wait for Job Monitor events".
package orchestrator

import (
	"sync"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/config"
	"github.com/nigel-dev/missionctl/internal/logging"
	"github.com/nigel-dev/missionctl/internal/mergetrain"
	"github.com/nigel-dev/missionctl/internal/model"
	"github.com/nigel-dev/missionctl/internal/monitor"
	"github.com/nigel-dev/missionctl/internal/store"
)

// JobSpec is one task within a startPlan request (spec.md §3: "the plan is
// user-supplied").
type JobSpec struct {
	Name      string
	Prompt    string
	TouchSet  []string
	DependsOn []string
	Model     string
}

// StartPlanSpec is the input to StartPlan (spec.md §4.5).
type StartPlanSpec struct {
	Name            string
	Mode            model.PlanMode
	Repo            string
	BaseBranch      string
	Jobs            []JobSpec
	LaunchSessionID string
}

// ApproveOptions parameterizes Approve (spec.md §4.5). Retry and Relaunch
// are mutually exclusive.
type ApproveOptions struct {
	Retry    string
	Relaunch string
	// CorrectionPrompt is appended to the original job prompt when Relaunch
	// is set, steering the re-spawned agent away from its prior mistake.
	CorrectionPrompt string
}

// Orchestrator owns the reconciler loop for the single active plan
// (spec.md §3: "at most one Plan exists at any time").
type Orchestrator struct {
	store    *store.Store
	git      adapter.GitPorcelain
	mux      adapter.Multiplexer
	vcs      adapter.VCSClient
	launcher adapter.AgentLauncher
	chatHost adapter.ChatHost
	mon      *monitor.Monitor
	cfg      *config.Config
	log      logging.Logger

	mu               sync.Mutex
	isReconciling    bool
	running          bool
	stopCh           chan struct{}
	kickCh           chan struct{}
	wg               sync.WaitGroup
	unsubscribe      func()
	train            *mergetrain.Train
	approvedForMerge map[string]bool
}

// New constructs an Orchestrator. chatHost may be nil, in which case plan
// notifications (spec.md §4.5 step 7/8) are silently skipped — the host
// chat plugin surface is an out-of-scope external collaborator per
// spec.md §1.
func New(
	st *store.Store,
	git adapter.GitPorcelain,
	mux adapter.Multiplexer,
	vcs adapter.VCSClient,
	launcher adapter.AgentLauncher,
	chatHost adapter.ChatHost,
	mon *monitor.Monitor,
	cfg *config.Config,
	log logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:            st,
		git:              git,
		mux:              mux,
		vcs:              vcs,
		launcher:         launcher,
		chatHost:         chatHost,
		mon:              mon,
		cfg:              cfg,
		log:              log,
		approvedForMerge: make(map[string]bool),
	}
}
