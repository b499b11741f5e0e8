package model

import "testing"

func TestIsValidJobTransition(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		want     bool
	}{
		{JobQueued, JobRunning, true},
		{JobQueued, JobMerged, false},
		{JobRunning, JobCompleted, true},
		{JobCompleted, JobReadyToMerge, true},
		{JobReadyToMerge, JobMerging, true},
		{JobMerging, JobMerged, true},
		{JobMerging, JobConflict, true},
		{JobMerged, JobRunning, false},
		{JobQueued, JobQueued, true}, // a no-op transition is always valid
		{JobStopped, JobRunning, false},
	}
	for _, c := range cases {
		if got := IsValidJobTransition(c.from, c.to); got != c.want {
			t.Errorf("IsValidJobTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminalJobStatus(t *testing.T) {
	for _, s := range []JobStatus{JobStopped, JobCanceled} {
		if !IsTerminalJobStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []JobStatus{JobQueued, JobRunning, JobMerged, JobFailed} {
		if IsTerminalJobStatus(s) {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}

func TestJob_CanBeRetried(t *testing.T) {
	for _, s := range []JobStatus{JobFailed, JobConflict, JobNeedsRebase} {
		j := &Job{Status: s}
		if !j.CanBeRetried() {
			t.Errorf("expected job in status %s to be retryable", s)
		}
	}
	for _, s := range []JobStatus{JobQueued, JobRunning, JobMerged, JobCompleted} {
		j := &Job{Status: s}
		if j.CanBeRetried() {
			t.Errorf("expected job in status %s not to be retryable", s)
		}
	}
}
