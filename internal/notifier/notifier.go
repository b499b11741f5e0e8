// Package notifier consumes Job Monitor events, deduplicates them, renders
// a templated chat message, and delivers it to the host chat surface and
// toast surface (spec.md §4.6). Fire-and-forget delivery with a timeout
// is grounded on the teacher's callGroveHookWithSync
// (pkg/orchestration/hooks.go): same shape — best-effort external call, a
// done channel + select timeout, swallow errors — retargeted from
// "notify grove-hooks of job start/stop" to "deliver a chat message".
package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nigel-dev/missionctl/internal/adapter"
	"github.com/nigel-dev/missionctl/internal/logging"
	"github.com/nigel-dev/missionctl/internal/monitor"
)

const deliveryTimeout = 5 * time.Second

// toastKindByEvent maps monitor event kinds to toast variants.
var toastKindByEvent = map[monitor.EventKind]string{
	monitor.EventComplete:      "success",
	monitor.EventFailed:        "error",
	monitor.EventBlocked:       "warning",
	monitor.EventNeedsReview:   "info",
	monitor.EventAwaitingInput: "info",
	monitor.EventQuestion:      "info",
}

var emojiByEvent = map[monitor.EventKind]string{
	monitor.EventComplete:      "✅",
	monitor.EventFailed:        "❌",
	monitor.EventBlocked:       "⛔",
	monitor.EventNeedsReview:   "👀",
	monitor.EventAwaitingInput: "⌨️",
	monitor.EventQuestion:      "❓",
}

var nextCommandByEvent = map[monitor.EventKind]string{
	monitor.EventComplete:      "missionctl plan status",
	monitor.EventFailed:        "missionctl plan approve --retry %s",
	monitor.EventBlocked:       "missionctl plan status",
	monitor.EventNeedsReview:   "missionctl plan status",
	monitor.EventAwaitingInput: "missionctl jobs attach %s",
	monitor.EventQuestion:      "missionctl jobs attach %s",
}

// SessionResolver maps a job to its target chat session: the plan's
// launchSessionID, falling back to the active session (spec.md §4.6).
type SessionResolver func(jobID string) (sessionID string, ok bool)

// Notifier delivers deduplicated, templated messages for monitor events.
type Notifier struct {
	host     adapter.ChatHost
	resolve  SessionResolver
	log      logging.Logger

	mu       sync.Mutex
	seen     map[string]bool
	pending  int // jobs needing attention since the last rollup, for title annotation
	// inFlight serializes delivery through a single promise chain (spec.md
	// §4.6): the next deliver blocks on the previous one's completion.
	inFlight chan struct{}
}

func New(host adapter.ChatHost, resolve SessionResolver, log logging.Logger) *Notifier {
	n := &Notifier{
		host:     host,
		resolve:  resolve,
		log:      log,
		seen:     make(map[string]bool),
		inFlight: make(chan struct{}, 1),
	}
	n.inFlight <- struct{}{}
	return n
}

// Listen subscribes to m and delivers every event it emits; returns the
// unsubscribe func.
func (n *Notifier) Listen(m *monitor.Monitor) func() {
	return m.Subscribe(n.handle)
}

func (n *Notifier) handle(e monitor.Event) {
	key := string(e.Kind) + "|" + e.JobID + "|" + e.Tiebreaker
	n.mu.Lock()
	if n.seen[key] {
		n.mu.Unlock()
		return
	}
	n.seen[key] = true
	n.mu.Unlock()

	if n.host.IsSubagentSession(e.JobID) {
		return
	}

	sessionID, ok := n.resolve(e.JobID)
	if !ok {
		return
	}

	n.deliver(sessionID, e)
}

// deliver serializes delivery through the single in-flight slot: acquire,
// run with a 5s deadline, release.
func (n *Notifier) deliver(sessionID string, e monitor.Event) {
	<-n.inFlight
	defer func() { n.inFlight <- struct{}{} }()

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.deliverOnce(ctx, sessionID, e)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		n.log.Warn("notification delivery timed out", "job", e.JobName, "event", e.Kind)
	}
}

func (n *Notifier) deliverOnce(ctx context.Context, sessionID string, e monitor.Event) {
	title, err := n.host.SessionTitle(ctx, sessionID)
	if err != nil {
		n.log.Warn("fetch session title failed", "error", err)
		title = sessionID
	}

	message := renderMessage(e)
	if err := n.host.SendMessage(ctx, sessionID, message); err != nil {
		n.log.Warn("notification send failed", "error", err)
		return
	}

	if kind, ok := toastKindByEvent[e.Kind]; ok {
		_ = n.host.ShowToast(ctx, sessionID, kind, message)
	}

	n.annotateTitle(ctx, sessionID, title, e)
}

func (n *Notifier) annotateTitle(ctx context.Context, sessionID, baseTitle string, e monitor.Event) {
	n.mu.Lock()
	n.pending++
	count := n.pending
	n.mu.Unlock()

	var newTitle string
	if count > 1 {
		newTitle = fmt.Sprintf("%d jobs need attention", count)
	} else {
		newTitle = fmt.Sprintf("%s done", e.JobName)
	}
	_ = n.host.UpdateSessionTitle(ctx, sessionID, newTitle)
	_ = baseTitle
}

// ResetPendingCount is called once the user has acknowledged outstanding
// notifications (e.g. by opening the status dashboard).
func (n *Notifier) ResetPendingCount() {
	n.mu.Lock()
	n.pending = 0
	n.mu.Unlock()
}

func renderMessage(e monitor.Event) string {
	emoji := emojiByEvent[e.Kind]
	nextCmdTpl, hasNext := nextCommandByEvent[e.Kind]
	msg := fmt.Sprintf("%s %s: %s", emoji, e.JobName, describeEvent(e))
	if hasNext {
		nextCmd := nextCmdTpl
		if strings.Contains(nextCmdTpl, "%s") {
			nextCmd = fmt.Sprintf(nextCmdTpl, e.JobName)
		}
		msg += fmt.Sprintf("\nNext: `%s`", nextCmd)
	}
	return msg
}

func describeEvent(e monitor.Event) string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case monitor.EventComplete:
		return "completed"
	case monitor.EventFailed:
		return "failed"
	case monitor.EventBlocked:
		return "blocked"
	case monitor.EventNeedsReview:
		return "needs review"
	case monitor.EventAwaitingInput:
		return "awaiting input"
	case monitor.EventQuestion:
		return "has a question"
	default:
		return string(e.Kind)
	}
}
