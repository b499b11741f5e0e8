package mergetrain

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
)

// conflictPattern extracts paths from git's combined merge output (spec.md
// §4.4 step 3): "CONFLICT (...): [Merge conflict in ]<path>".
var conflictPattern = regexp.MustCompile(`CONFLICT \([^)]*\): (?:Merge conflict in )?(.+)`)

// Train owns the integration worktree and processes enqueued job branches
// strictly sequentially (spec.md §4.4), never concurrently, grounded on the
// teacher's GitClientAdapter subprocess idiom.
type Train struct {
	git         adapter.GitPorcelain
	worktree    string // integration worktree path
	strategy    MergeStrategy
	testCommand string
	testTimeout time.Duration
	setupCmds   []string
	log         logging.Logger

	q *queue
}

// Options configures a Train.
type Options struct {
	Worktree    string
	Strategy    MergeStrategy
	TestCommand string
	TestTimeout time.Duration
	SetupCmds   []string
}

func New(git adapter.GitPorcelain, log logging.Logger, opts Options) *Train {
	strategy := opts.Strategy
	if strategy == StrategyFFOnly {
		// "ff-only degrades to squash inside the train since the
		// integration branch must accumulate merges" (spec.md §4.4).
		strategy = StrategySquash
	}
	return &Train{
		git:         git,
		worktree:    opts.Worktree,
		strategy:    strategy,
		testCommand: opts.TestCommand,
		testTimeout: opts.TestTimeout,
		setupCmds:   opts.SetupCmds,
		log:         log,
		q:           newQueue(),
	}
}

func (t *Train) Enqueue(spec JobSpec) { t.q.enqueue(spec) }
func (t *Train) GetQueue() []JobSpec  { return t.q.Copy() }
func (t *Train) Clear()               { t.q.clear() }
func (t *Train) Len() int             { return t.q.len() }

// ProcessNext pops and integrates the head of the queue (spec.md §4.4).
// Returns (nil, false) when the queue is empty.
func (t *Train) ProcessNext(ctx context.Context) (*MergeResult, bool) {
	spec, ok := t.q.peek()
	if !ok {
		return nil, false
	}
	result := t.processOne(ctx, spec)
	t.q.pop()
	return &result, true
}

// ProcessAll drains the queue, integrating one job at a time.
func (t *Train) ProcessAll(ctx context.Context) []struct {
	Job    JobSpec
	Result MergeResult
} {
	var out []struct {
		Job    JobSpec
		Result MergeResult
	}
	for {
		spec, ok := t.q.peek()
		if !ok {
			break
		}
		result := t.processOne(ctx, spec)
		t.q.pop()
		out = append(out, struct {
			Job    JobSpec
			Result MergeResult
		}{Job: spec, Result: result})
	}
	return out
}

func (t *Train) processOne(ctx context.Context, spec JobSpec) MergeResult {
	snapshotHead, err := t.git.RevParse(ctx, t.worktree, "HEAD")
	if err != nil {
		return MergeResult{Success: false, Type: ResultTestFailure, Output: fmt.Sprintf("snapshot HEAD: %v", err)}
	}

	mergeOutput, mergeErr := t.runMerge(ctx, spec.JobName, spec.Branch)
	if mergeErr != nil {
		if files := parseConflicts(mergeOutput); len(files) > 0 {
			t.rollback(ctx, snapshotHead)
			return MergeResult{Success: false, Type: ResultConflict, Files: files, Output: mergeOutput}
		}
		t.rollback(ctx, snapshotHead)
		return MergeResult{Success: false, Type: ResultTestFailure, Output: mergeOutput, TestReport: MergeTestReport{Status: "failed", Reason: "merge failed without parseable conflicts"}}
	}

	testCmd, testReport, skip := t.resolveTestCommand()
	if skip {
		return MergeResult{Success: true, MergedAt: time.Now(), TestReport: testReport}
	}

	setupCmds, err := resolveInstall(t.worktree, t.setupCmds)
	if err != nil {
		t.rollback(ctx, snapshotHead)
		return MergeResult{Success: false, Type: ResultTestFailure, Output: err.Error(), TestReport: MergeTestReport{Setup: SetupStatus{Status: "failed", Output: err.Error()}}}
	}
	setupStatus := SetupStatus{Status: "ok", Commands: setupCmds}
	for _, cmd := range setupCmds {
		out, err := t.runShell(ctx, cmd, t.testTimeout)
		if err != nil {
			setupStatus.Status = "failed"
			setupStatus.Output = out
			t.rollback(ctx, snapshotHead)
			return MergeResult{
				Success:    false,
				Type:       ResultTestFailure,
				Output:     out,
				TestReport: MergeTestReport{Status: "failed", Reason: "dependency install failed", Setup: setupStatus},
			}
		}
	}

	out, timedOut, runErr := t.runShellTimed(ctx, testCmd, t.testTimeout)
	if runErr != nil {
		t.rollback(ctx, snapshotHead)
		reason := ""
		if timedOut {
			out = out + "\ntest command timed out"
		}
		return MergeResult{
			Success: false,
			Type:    ResultTestFailure,
			Output:  out,
			TestReport: MergeTestReport{
				Status:   "failed",
				Command:  testCmd,
				Output:   out,
				TimedOut: timedOut,
				Reason:   reason,
				Setup:    setupStatus,
			},
		}
	}

	return MergeResult{
		Success:  true,
		MergedAt: time.Now(),
		TestReport: MergeTestReport{
			Status:  "passed",
			Command: testCmd,
			Output:  out,
			Setup:   setupStatus,
		},
	}
}

func (t *Train) runMerge(ctx context.Context, jobName, branch string) (string, error) {
	switch t.strategy {
	case StrategySquash:
		if out, err := t.git.Merge(ctx, t.worktree, "--squash", branch); err != nil {
			return out, err
		}
		if err := t.git.Commit(ctx, t.worktree, fmt.Sprintf("Merge %s", jobName)); err != nil {
			return "", err
		}
		return "", nil
	case StrategyNoFF:
		out, err := t.git.Merge(ctx, t.worktree, "--no-ff", "-m", fmt.Sprintf("Merge %s", jobName), branch)
		return out, err
	default:
		out, err := t.git.Merge(ctx, t.worktree, "--squash", branch)
		if err != nil {
			return out, err
		}
		return "", t.git.Commit(ctx, t.worktree, fmt.Sprintf("Merge %s", jobName))
	}
}

// resolveTestCommand implements spec.md §4.4 step 4.
func (t *Train) resolveTestCommand() (cmd string, skippedReport MergeTestReport, skip bool) {
	if t.testCommand != "" {
		return t.testCommand, MergeTestReport{}, false
	}
	if pkgTest, ok := readPackageJSONTestScript(t.worktree); ok {
		return pkgTest, MergeTestReport{}, false
	}
	return "", MergeTestReport{Status: "skipped", Reason: "no test command configured and no scripts.test in package.json"}, true
}

// rollback restores the integration worktree to snapshotHead (spec.md
// §4.4): merge --abort (best effort), reset --hard, clean -fd. Must always
// leave HEAD at the snapshot and the tree clean.
func (t *Train) rollback(ctx context.Context, snapshotHead string) {
	_ = t.git.MergeAbort(ctx, t.worktree)
	if err := t.git.ResetHard(ctx, t.worktree, snapshotHead); err != nil {
		t.log.Error("rollback reset --hard failed", "error", err)
	}
	if err := t.git.CleanFD(ctx, t.worktree); err != nil {
		t.log.Error("rollback clean -fd failed", "error", err)
	}
}

// TrialMerge performs the pre-enqueue mergeability check (spec.md §4.4):
// `--no-commit --no-ff`, always aborted+reset+cleaned regardless of
// outcome. Returns true if the branch merges cleanly.
func (t *Train) TrialMerge(ctx context.Context, branch string) (clean bool, err error) {
	snapshotHead, err := t.git.RevParse(ctx, t.worktree, "HEAD")
	if err != nil {
		return false, err
	}
	_, mergeErr := t.git.Merge(ctx, t.worktree, "--no-commit", "--no-ff", branch)
	t.rollback(ctx, snapshotHead)
	return mergeErr == nil, nil
}

func parseConflicts(output string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		m := conflictPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		f := strings.TrimSpace(m[1])
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}

// runShell runs command in the integration worktree with a deadline,
// capturing combined output, always waiting on exit and killing the
// process group on deadline (spec.md §9).
func (t *Train) runShell(ctx context.Context, command string, timeout time.Duration) (string, error) {
	out, _, err := t.runShellTimed(ctx, command, timeout)
	return out, err
}

func (t *Train) runShellTimed(ctx context.Context, command string, timeout time.Duration) (output string, timedOut bool, err error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, "sh", "-c", command)
	cmd.Dir = t.worktree
	setProcGroup(cmd)
	cmd.Cancel = func() error {
		return killProcessGroup(cmd.Process.Pid)
	}

	out, runErr := cmd.CombinedOutput()
	if runCtx.Err() == context.DeadlineExceeded {
		return string(out), true, fmt.Errorf("command timed out after %s", timeout)
	}
	return string(out), false, runErr
}
