// Package mergetrain implements the serialized branch-integration pipeline
// (spec.md §4.4): trial merge, commit, dependency install, test, and
// rollback-on-failure against a single integration worktree. Subprocess
// invocation is grounded on the teacher's GitClientAdapter
// (pkg/orchestration/git_client_adapter.go): every git call goes through
// exec.CommandContext with stdout/stderr captured and the exit code
// inspected; this package adds the rollback sequence the teacher never
// needed, following the same subprocess-wrapping idiom.
package mergetrain

import "time"

// MergeStrategy mirrors config.MergeStrategy without importing internal/config,
// keeping this package's dependency surface narrow.
type MergeStrategy string

const (
	StrategySquash MergeStrategy = "squash"
	StrategyFFOnly MergeStrategy = "ff-only"
	StrategyNoFF   MergeStrategy = "merge"
)

// JobSpec is the input the Orchestrator enqueues for one job (spec.md §4.4).
type JobSpec struct {
	JobID       string
	JobName     string
	Branch      string
	TouchSet    []string
}

// SetupStatus reports the outcome of the dependency-install step.
type SetupStatus struct {
	Status   string   `json:"status"` // "ok" | "failed" | "skipped"
	Commands []string `json:"commands,omitempty"`
	Output   string   `json:"output,omitempty"`
}

// MergeTestReport is the structured test-report variant spec.md §9 directs
// implementations to follow (the "Open question" resolution).
type MergeTestReport struct {
	Status    string `json:"status"` // "passed" | "failed" | "skipped"
	Command   string `json:"command,omitempty"`
	Output    string `json:"output,omitempty"`
	TimedOut  bool   `json:"timedOut,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Setup     SetupStatus `json:"setup"`
}

// ResultType classifies a MergeResult's failure, if any.
type ResultType string

const (
	ResultConflict     ResultType = "conflict"
	ResultTestFailure  ResultType = "test_failure"
)

// MergeResult is processNext's return value (spec.md §4.4).
type MergeResult struct {
	Success    bool
	Type       ResultType
	Files      []string // conflicting files, when Type == conflict
	Output     string
	MergedAt   time.Time
	TestReport MergeTestReport
}

// lockfileInstallCommand maps a well-known lockfile to its canonical
// install command (spec.md §5.4, implied by step 5).
var lockfileInstallCommand = map[string]string{
	"package-lock.json": "npm ci",
	"yarn.lock":         "yarn install --frozen-lockfile",
	"pnpm-lock.yaml":    "pnpm install --frozen-lockfile",
	"go.sum":            "go mod download",
}

// dependencyDirFor names the directory whose presence means dependencies
// are already installed for a given lockfile.
var dependencyDirFor = map[string]string{
	"package-lock.json": "node_modules",
	"yarn.lock":         "node_modules",
	"pnpm-lock.yaml":    "node_modules",
	"go.sum":            "",
}

// lockfileCheckOrder fixes the iteration order over lockfileInstallCommand
// so resolveInstall is deterministic when a repo somehow carries more than
// one lockfile.
var lockfileCheckOrder = []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum"}
