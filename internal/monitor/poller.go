package monitor

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
	"github.com/nigel-dev/missionctl/internal/model"
)

// jobPoller runs the pane-polling observation mode for one job (spec.md
// §4.3, fallback mode), grounded on the teacher's periodic-poll/mutex-guard
// idiom (WorktreeManager/executor polling loops) generalized to capture and
// hash a tmux pane.
type jobPoller struct {
	jobID, jobName string
	target         string // multiplexer pane target
	worktreePath   string
	mux            adapter.Multiplexer
	pollInterval   time.Duration
	idleThreshold  time.Duration
	log            logging.Logger

	emit func(Event)
	acc  *Accumulator
}

func (p *jobPoller) run(ctx context.Context) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	watcher, err := newFileWatcher(p.worktreePath)
	var fsEvents chan fsnotify.Event
	if err != nil {
		p.log.Warn("file watcher unavailable, idle detection falls back to pane-hash only", "job", p.jobName, "error", err)
	} else {
		defer watcher.Close()
		fsEvents = watcher.Events
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.pollOnce(ctx) {
				return
			}
		case ev, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				p.acc.recordFileEdit(ev.Name)
				p.acc.LastChangedAt = time.Now()
			}
		}
	}
}

// pollOnce performs a single poll, returning true if the job reached a
// terminal state and polling should stop.
func (p *jobPoller) pollOnce(ctx context.Context) bool {
	// Agent-side report takes priority over pane heuristics (spec.md §4.3).
	if done := p.checkReportFile(); done {
		return true
	}

	if !p.mux.Alive(ctx, p.target) {
		return p.handlePaneGone()
	}

	tail, err := p.mux.CapturePane(ctx, p.target)
	if err != nil {
		p.log.Warn("capture-pane failed", "job", p.jobName, "error", err)
		return false
	}

	hash := hashTail(tail)
	now := time.Now()
	if hash != p.acc.LastHash {
		p.acc.LastHash = hash
		p.acc.LastChangedAt = now
		p.acc.NotifiedAwait = false
	}

	state := classifyPane(tail)
	switch state {
	case paneAwaitingInput:
		if !p.acc.NotifiedAwait {
			p.acc.NotifiedAwait = true
			p.emit(Event{
				Kind:       EventAwaitingInput,
				JobID:      p.jobID,
				JobName:    p.jobName,
				Tiebreaker: strconv.FormatInt(now.UnixNano(), 10),
				DetectedAt: now,
			})
		}
	case paneIdle:
		if now.Sub(p.acc.LastChangedAt) >= p.idleThreshold {
			p.emit(Event{
				Kind:       EventComplete,
				JobID:      p.jobID,
				JobName:    p.jobName,
				Tiebreaker: now.Format(time.RFC3339Nano),
				DetectedAt: now,
			})
			return true
		}
	}
	return false
}

func (p *jobPoller) handlePaneGone() bool {
	now := time.Now()
	raw, err := os.ReadFile(model.ExitCodePath(p.worktreePath))
	exitCode := 0
	if err == nil {
		exitCode, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
	}
	kind := EventComplete
	if exitCode != 0 {
		kind = EventFailed
	}
	p.emit(Event{
		Kind:       kind,
		JobID:      p.jobID,
		JobName:    p.jobName,
		Tiebreaker: now.Format(time.RFC3339Nano),
		DetectedAt: now,
	})
	return true
}

// checkReportFile implements the priority rule: a report with status
// completed/needs_review finishes the job immediately regardless of pane
// state; blocked emits without completing.
func (p *jobPoller) checkReportFile() bool {
	raw, err := os.ReadFile(model.ReportPath(p.worktreePath))
	if err != nil {
		return false
	}
	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return false
	}

	tiebreaker := report.Timestamp.Format(time.RFC3339Nano)
	switch report.Status {
	case model.ReportCompleted:
		p.emit(Event{Kind: EventComplete, JobID: p.jobID, JobName: p.jobName, Message: report.Message, Tiebreaker: tiebreaker, DetectedAt: report.Timestamp})
		return true
	case model.ReportNeedsReview:
		p.emit(Event{Kind: EventNeedsReview, JobID: p.jobID, JobName: p.jobName, Message: report.Message, Tiebreaker: tiebreaker, DetectedAt: report.Timestamp})
		return true
	case model.ReportBlocked:
		p.emit(Event{Kind: EventBlocked, JobID: p.jobID, JobName: p.jobName, Message: report.Message, Tiebreaker: tiebreaker, DetectedAt: report.Timestamp})
		return false
	}
	return false
}
