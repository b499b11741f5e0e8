package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nigel-dev/missionctl/internal/logging"
)

// sseEvent is the agent server-sent-event payload (spec.md §4.3).
type sseEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type sessionStatusData struct {
	Status string `json:"status"`
}

type messagePartUpdatedData struct {
	Tool  string `json:"tool"`
	State struct {
		Status string `json:"status"`
	} `json:"state"`
	PartID          string   `json:"partId"`
	RemoteSessionID string   `json:"remoteSessionID"`
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	Multiple        bool     `json:"multiple"`
}

type fileEditedData struct {
	Path string `json:"path"`
}

// jobStreamReader maintains a single long-lived SSE subscription to the
// agent's event endpoint for one job (spec.md §4.3, preferred mode). The
// read loop's shape — context cancellation, sync.WaitGroup, bufio.Scanner
// with an enlarged buffer — is grounded on kdlbs-kandev's StreamReader
// (apps/backend/internal/agent/streaming/reader.go), retargeted from Docker
// log demuxing to `data: {...}\n\n` SSE framing and from NATS publish to the
// monitor's dispatcher.
type jobStreamReader struct {
	jobID, jobName string
	port           int
	httpClient     *http.Client
	log            logging.Logger

	emit       func(Event)
	acc        *Accumulator
	questions  *questionTable
	permission PermissionPolicy

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// PermissionPolicy decides how to respond to a permission.updated event.
type PermissionPolicy interface {
	Evaluate(tool string) PermissionDecision
}

type PermissionDecision string

const (
	PermissionAllow  PermissionDecision = "allow"
	PermissionPrompt PermissionDecision = "prompt"
	PermissionDeny   PermissionDecision = "deny"
)

func (r *jobStreamReader) start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.connectLoop(ctx)
}

func (r *jobStreamReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// connectLoop reconnects with exponential backoff from 100ms to 30s,
// doubling, capped, resetting the attempt counter on any successful event
// (spec.md §4.3).
func (r *jobStreamReader) connectLoop(ctx context.Context) {
	defer r.wg.Done()

	backoff := 100 * time.Millisecond
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		gotEvent, err := r.readOnce(ctx)
		if err != nil {
			r.log.Warn("event stream disconnected", "job", r.jobName, "error", err)
		}
		if gotEvent {
			backoff = 100 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (r *jobStreamReader) readOnce(ctx context.Context) (gotEvent bool, err error) {
	url := fmt.Sprintf("http://127.0.0.1:%d/events", r.port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var dataLines []string
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return gotEvent, ctx.Err()
		default:
		}

		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data:"))
		case line == "" && len(dataLines) > 0:
			payload := strings.Join(dataLines, "\n")
			dataLines = nil
			if r.processPayload(payload) {
				gotEvent = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return gotEvent, err
	}
	return gotEvent, nil
}

func (r *jobStreamReader) processPayload(payload string) bool {
	var ev sseEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		r.log.Debug("non-event payload", "job", r.jobName, "payload", payload)
		return false
	}

	now := time.Now()
	switch ev.Type {
	case "session.idle":
		r.emit(Event{Kind: EventComplete, JobID: r.jobID, JobName: r.jobName, Tiebreaker: now.Format(time.RFC3339Nano), DetectedAt: now})
		return true
	case "session.status":
		var d sessionStatusData
		_ = json.Unmarshal(ev.Data, &d)
		if d.Status == "idle" {
			r.emit(Event{Kind: EventComplete, JobID: r.jobID, JobName: r.jobName, Tiebreaker: now.Format(time.RFC3339Nano), DetectedAt: now})
		}
		return true
	case "session.error":
		r.emit(Event{Kind: EventFailed, JobID: r.jobID, JobName: r.jobName, Tiebreaker: now.Format(time.RFC3339Nano), DetectedAt: now})
		return true
	case "message.part.updated":
		var d messagePartUpdatedData
		_ = json.Unmarshal(ev.Data, &d)
		r.handlePartUpdated(d, now)
		return true
	case "file.edited":
		var d fileEditedData
		_ = json.Unmarshal(ev.Data, &d)
		r.acc.recordFileEdit(d.Path)
		return true
	case "permission.updated":
		r.handlePermission(ev.Data, now)
		return true
	default:
		return true
	}
}

func (r *jobStreamReader) handlePartUpdated(d messagePartUpdatedData, now time.Time) {
	if d.Tool != "question" {
		return
	}
	key := PendingQuestionKey{JobID: r.jobID, PartID: d.PartID}
	switch d.State.Status {
	case "running":
		if r.questions.addIfAbsent(key, d.RemoteSessionID, d.Question, d.Options, d.Multiple, now) {
			r.emit(Event{Kind: EventQuestion, JobID: r.jobID, JobName: r.jobName, Message: d.Question, Tiebreaker: d.PartID, DetectedAt: now})
		}
	case "completed", "error":
		r.questions.remove(key)
	}
}

func (r *jobStreamReader) handlePermission(data json.RawMessage, now time.Time) {
	if r.permission == nil {
		return
	}
	var d struct {
		Tool string `json:"tool"`
	}
	_ = json.Unmarshal(data, &d)
	switch r.permission.Evaluate(d.Tool) {
	case PermissionAllow, PermissionDeny:
		// Auto-respond path: the concrete agent transport for approving or
		// denying a permission request is the out-of-scope agent process's
		// own protocol; the monitor only decides the verdict here.
	case PermissionPrompt:
		r.emit(Event{Kind: EventQuestion, JobID: r.jobID, JobName: r.jobName, Message: fmt.Sprintf("permission requested: %s", d.Tool), Tiebreaker: now.Format(time.RFC3339Nano), DetectedAt: now})
	}
}
