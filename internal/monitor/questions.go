package monitor

import (
	"sync"
	"time"

	"github.com/nigel-dev/missionctl/internal/model"
)

// questionTable holds at most one PendingQuestion per (jobId, partId)
// (spec.md §3, §4.3).
type questionTable struct {
	mu    sync.Mutex
	byKey map[PendingQuestionKey]*model.PendingQuestion
}

func newQuestionTable() *questionTable {
	return &questionTable{byKey: make(map[PendingQuestionKey]*model.PendingQuestion)}
}

// addIfAbsent records the question and reports true if it was newly added
// (the emit-once rule in spec.md §4.3).
func (t *questionTable) addIfAbsent(key PendingQuestionKey, remoteSessionID, question string, options []string, multiple bool, detectedAt time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byKey[key]; ok {
		return false
	}
	t.byKey[key] = &model.PendingQuestion{
		JobID:           key.JobID,
		PartID:          key.PartID,
		RemoteSessionID: remoteSessionID,
		Question:        question,
		Options:         options,
		Multiple:        multiple,
		DetectedAt:      detectedAt,
	}
	return true
}

func (t *questionTable) remove(key PendingQuestionKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byKey, key)
}

func (t *questionTable) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byKey = make(map[PendingQuestionKey]*model.PendingQuestion)
}

// All returns a snapshot of every pending question.
func (t *questionTable) All() []*model.PendingQuestion {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*model.PendingQuestion, 0, len(t.byKey))
	for _, q := range t.byKey {
		out = append(out, q)
	}
	return out
}
