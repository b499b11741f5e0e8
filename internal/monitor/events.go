// Package monitor implements the Job Monitor (spec.md §4.3): pane-polling
// and event-stream observation of running agents, emitting deduplicated
// semantic job events and owning per-job activity accumulators.
package monitor

import "time"

// EventKind is the semantic event the monitor emits for a job.
type EventKind string

const (
	EventComplete      EventKind = "complete"
	EventFailed        EventKind = "failed"
	EventBlocked       EventKind = "blocked"
	EventNeedsReview   EventKind = "needs_review"
	EventAwaitingInput EventKind = "awaiting_input"
	EventQuestion      EventKind = "question"
)

// Event is a single emission from the monitor to its subscriber.
type Event struct {
	Kind        EventKind
	JobID       string
	JobName     string
	Message     string
	Tiebreaker  string
	DetectedAt  time.Time
}

// dedupKey identifies an event for at-most-once delivery (spec.md §4.3):
// "(event, jobId, tiebreaker) where the tiebreaker is completedAt for
// terminal events and reportTimestamp|partId for advisory events".
func dedupKey(e Event) string {
	return string(e.Kind) + "|" + e.JobID + "|" + e.Tiebreaker
}

// Accumulator is the per-job recent-activity state owned by the monitor
// (spec.md §4.3: "filesEdited capped at 100, FIFO eviction; currentFile,
// lastActivityAt").
type Accumulator struct {
	FilesEdited    []string
	CurrentFile    string
	LastActivityAt time.Time
	LastHash       uint64
	LastChangedAt  time.Time
	NotifiedAwait  bool
}

const maxFilesEdited = 100

func (a *Accumulator) recordFileEdit(path string) {
	a.CurrentFile = path
	a.LastActivityAt = time.Now()
	a.FilesEdited = append(a.FilesEdited, path)
	if len(a.FilesEdited) > maxFilesEdited {
		a.FilesEdited = a.FilesEdited[len(a.FilesEdited)-maxFilesEdited:]
	}
}

// PendingQuestionKey identifies a question for dedup, matching
// model.PendingQuestion's (jobId, partId) uniqueness (spec.md §3, §4.3).
type PendingQuestionKey struct {
	JobID  string
	PartID string
}
