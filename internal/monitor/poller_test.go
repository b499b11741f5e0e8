package monitor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
)

func newTestPoller(mux *adapter.FakeMultiplexer, target, worktree string) *jobPoller {
	return &jobPoller{
		jobID:         "j1",
		jobName:       "job-one",
		target:        target,
		worktreePath:  worktree,
		mux:           mux,
		idleThreshold: 0,
		log:           logging.Discard(),
		emit:          func(Event) {},
		acc:           &Accumulator{},
	}
}

func TestPollOnce_AwaitingInputEmitsOnlyOnce(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	mux.Panes["job:0"] = "pick one\n↑↓ select"
	p := newTestPoller(mux, "job:0", t.TempDir())

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	p.pollOnce(context.Background())
	p.pollOnce(context.Background())

	if len(events) != 1 {
		t.Fatalf("expected exactly one awaiting_input emission across two polls, got %d", len(events))
	}
	if events[0].Kind != EventAwaitingInput {
		t.Fatalf("expected EventAwaitingInput, got %s", events[0].Kind)
	}
}

func TestPollOnce_IdlePastThresholdCompletesJob(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	mux.Panes["job:0"] = "ctrl+p commands"
	p := newTestPoller(mux, "job:0", t.TempDir())
	p.idleThreshold = 0

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	// First poll establishes LastChangedAt; idleThreshold 0 means it is
	// already "past the threshold" the moment the hash is recorded.
	done := p.pollOnce(context.Background())
	if !done {
		t.Fatal("expected idle pane past threshold to terminate polling")
	}
	if len(events) != 1 || events[0].Kind != EventComplete {
		t.Fatalf("expected a single EventComplete, got %v", events)
	}
}

func TestPollOnce_PaneGoneCleanExitEmitsComplete(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	mux.AliveSet["job:0"] = false
	p := newTestPoller(mux, "job:0", t.TempDir())

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	done := p.pollOnce(context.Background())
	if !done {
		t.Fatal("expected a dead pane to terminate polling")
	}
	if len(events) != 1 || events[0].Kind != EventComplete {
		t.Fatalf("expected EventComplete for a clean exit, got %v", events)
	}
}

func TestPollOnce_PaneGoneNonZeroExitEmitsFailed(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	mux.AliveSet["job:0"] = false
	worktree := t.TempDir()
	exitPath := filepath.Join(worktree, ".missionctl-exit-code")
	if err := os.WriteFile(exitPath, []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p := newTestPoller(mux, "job:0", worktree)

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	done := p.pollOnce(context.Background())
	if !done {
		t.Fatal("expected a dead pane to terminate polling")
	}
	if len(events) != 1 || events[0].Kind != EventFailed {
		t.Fatalf("expected EventFailed for a nonzero exit code, got %v", events)
	}
}

func TestCheckReportFile_CompletedTakesPriority(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	worktree := t.TempDir()
	mux.Panes["job:0"] = "⬝ still streaming" // would otherwise classify as streaming
	reportPath := filepath.Join(worktree, ".missionctl-report.json")
	report := `{"jobId":"j1","jobName":"job-one","status":"completed","message":"done","timestamp":"` + time.Now().Format(time.RFC3339Nano) + `"}`
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		t.Fatal(err)
	}
	p := newTestPoller(mux, "job:0", worktree)

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	done := p.pollOnce(context.Background())
	if !done {
		t.Fatal("expected a completed report to terminate polling regardless of pane state")
	}
	if len(events) != 1 || events[0].Kind != EventComplete {
		t.Fatalf("expected EventComplete from the report file, got %v", events)
	}
}

func TestRun_FileWriteDelaysIdleCompletion(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	worktree := t.TempDir()
	mux.Panes["job:0"] = "ctrl+p commands" // classifies idle from the first poll
	p := newTestPoller(mux, "job:0", worktree)
	p.pollInterval = 20 * time.Millisecond
	p.idleThreshold = 150 * time.Millisecond

	var mu sync.Mutex
	var events []Event
	p.emit = func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		p.run(ctx)
		close(done)
	}()

	// Keep writing into the worktree for longer than idleThreshold so a
	// real file edit (not just the unchanging pane tail) keeps resetting
	// LastChangedAt and the job does not complete early.
	writeDeadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(writeDeadline) {
		if err := os.WriteFile(filepath.Join(worktree, "out.txt"), []byte(time.Now().String()), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			t.Fatal("job completed as idle while the worktree was still being written to")
		}
	}

	select {
	case <-done:
		t.Fatal("run should still be polling, not have exited, once writes stop")
	default:
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(events)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected idle completion once file writes stopped")
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if events[0].Kind != EventComplete {
		t.Fatalf("expected EventComplete, got %v", events[0].Kind)
	}
}

func TestCheckReportFile_BlockedDoesNotTerminate(t *testing.T) {
	mux := adapter.NewFakeMultiplexer()
	worktree := t.TempDir()
	mux.Panes["job:0"] = "ctrl+p commands"
	reportPath := filepath.Join(worktree, ".missionctl-report.json")
	report := `{"jobId":"j1","jobName":"job-one","status":"blocked","message":"waiting","timestamp":"` + time.Now().Format(time.RFC3339Nano) + `"}`
	if err := os.WriteFile(reportPath, []byte(report), 0644); err != nil {
		t.Fatal(err)
	}
	p := newTestPoller(mux, "job:0", worktree)

	var events []Event
	p.emit = func(e Event) { events = append(events, e) }

	done := p.pollOnce(context.Background())
	if done {
		t.Fatal("expected a blocked report not to terminate polling")
	}
	if len(events) != 1 || events[0].Kind != EventBlocked {
		t.Fatalf("expected EventBlocked, got %v", events)
	}
}
