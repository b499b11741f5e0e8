package mergetrain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
)

var errConflict = errors.New("merge conflict")

func newTestTrain(t *testing.T, git *adapter.FakeGitPorcelain, opts Options) *Train {
	t.Helper()
	if opts.Worktree == "" {
		opts.Worktree = t.TempDir()
	}
	return New(git, logging.Discard(), opts)
}

func TestNew_FFOnlyDegradesToSquash(t *testing.T) {
	tr := newTestTrain(t, adapter.NewFakeGitPorcelain(), Options{Strategy: StrategyFFOnly})
	if tr.strategy != StrategySquash {
		t.Fatalf("expected ff-only to degrade to squash inside the train, got %s", tr.strategy)
	}
}

func TestTrialMerge_CleanAlwaysRollsBack(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash})

	clean, err := tr.TrialMerge(context.Background(), "feature/a")
	require.NoError(t, err)
	require.True(t, clean)
	require.Equal(t, 1, git.MergeAbortCalls)
	require.Equal(t, []string{git.RevParseResult}, git.ResetHardCalls)
	require.Equal(t, 1, git.CleanFDCalls)
}

func TestTrialMerge_ConflictStillRollsBack(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	git.MergeResults = []adapter.FakeMergeResult{{Output: "CONFLICT", Err: errConflict}}
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash})

	clean, err := tr.TrialMerge(context.Background(), "feature/a")
	require.NoError(t, err)
	require.False(t, clean)
	require.Equal(t, 1, git.MergeAbortCalls)
	require.Equal(t, 1, git.CleanFDCalls)
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	tr := newTestTrain(t, adapter.NewFakeGitPorcelain(), Options{Strategy: StrategySquash})
	result, ok := tr.ProcessNext(context.Background())
	require.False(t, ok)
	require.Nil(t, result)
}

func TestProcessNext_SuccessfulMergeAndTest(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash, TestCommand: "true"})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})

	result, ok := tr.ProcessNext(context.Background())
	require.True(t, ok)
	require.True(t, result.Success)
	require.Equal(t, "passed", result.TestReport.Status)
	require.Len(t, git.CommitCalls, 1)
	require.Equal(t, 0, git.MergeAbortCalls, "a successful merge must not be rolled back")
	require.Equal(t, 0, tr.Len())
}

func TestProcessNext_MergeConflict(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	git.MergeResults = []adapter.FakeMergeResult{
		{Output: "CONFLICT (content): Merge conflict in pkg/foo.go", Err: errConflict},
	}
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash, TestCommand: "true"})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})

	result, ok := tr.ProcessNext(context.Background())
	require.True(t, ok)
	require.False(t, result.Success)
	require.Equal(t, ResultConflict, result.Type)
	require.Equal(t, []string{"pkg/foo.go"}, result.Files)
	require.Equal(t, 1, git.MergeAbortCalls)
	require.Empty(t, git.CommitCalls, "a conflicting merge must never be committed")
}

func TestProcessNext_TestFailureRollsBack(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash, TestCommand: "false"})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})

	result, ok := tr.ProcessNext(context.Background())
	require.True(t, ok)
	require.False(t, result.Success)
	require.Equal(t, ResultTestFailure, result.Type)
	require.Equal(t, "failed", result.TestReport.Status)
	require.Equal(t, 1, git.MergeAbortCalls, "a failed test run must roll back the merge")
	require.Len(t, git.CommitCalls, 1, "the squash commit happens before the test runs")
}

func TestProcessNext_NoTestCommandConfiguredSkipsTest(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})

	result, ok := tr.ProcessNext(context.Background())
	require.True(t, ok)
	require.True(t, result.Success)
	require.Equal(t, "skipped", result.TestReport.Status)
}

func TestProcessAll_DrainsQueueSequentially(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategySquash, TestCommand: "true"})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})
	tr.Enqueue(JobSpec{JobID: "j2", JobName: "job-two", Branch: "feature/b"})

	results := tr.ProcessAll(context.Background())
	require.Len(t, results, 2)
	require.Equal(t, "job-one", results[0].Job.JobName)
	require.Equal(t, "job-two", results[1].Job.JobName)
	require.True(t, results[0].Result.Success)
	require.True(t, results[1].Result.Success)
	require.Equal(t, 0, tr.Len())
}

func TestRunMerge_NoFFStrategySkipsSeparateCommit(t *testing.T) {
	git := adapter.NewFakeGitPorcelain()
	tr := newTestTrain(t, git, Options{Strategy: StrategyNoFF, TestCommand: "true"})
	tr.Enqueue(JobSpec{JobID: "j1", JobName: "job-one", Branch: "feature/a"})

	result, ok := tr.ProcessNext(context.Background())
	require.True(t, ok)
	require.True(t, result.Success)
	require.Empty(t, git.CommitCalls, "no-ff merges commit as part of the merge itself")
	require.Len(t, git.MergeCalls, 1)
	require.Contains(t, git.MergeCalls[0].Args, "--no-ff")
}
