package monitor

import (
	"testing"
	"time"
)

func TestQuestionTable_AddIfAbsent_EmitsOnce(t *testing.T) {
	qt := newQuestionTable()
	key := PendingQuestionKey{JobID: "j1", PartID: "p1"}

	first := qt.addIfAbsent(key, "sess", "pick one", []string{"a", "b"}, false, time.Now())
	second := qt.addIfAbsent(key, "sess", "pick one again", nil, false, time.Now())

	if !first {
		t.Fatal("expected first add to report true")
	}
	if second {
		t.Fatal("expected duplicate (jobId, partId) add to report false")
	}
	if len(qt.All()) != 1 {
		t.Fatalf("expected exactly one pending question, got %d", len(qt.All()))
	}
}

func TestQuestionTable_RemoveThenReAdd(t *testing.T) {
	qt := newQuestionTable()
	key := PendingQuestionKey{JobID: "j1", PartID: "p1"}

	qt.addIfAbsent(key, "sess", "q", nil, false, time.Now())
	qt.remove(key)

	if len(qt.All()) != 0 {
		t.Fatal("expected no pending questions after remove")
	}
	if !qt.addIfAbsent(key, "sess", "q2", nil, false, time.Now()) {
		t.Fatal("expected re-add after remove to succeed")
	}
}

func TestQuestionTable_DistinctPartIDsBothKept(t *testing.T) {
	qt := newQuestionTable()
	qt.addIfAbsent(PendingQuestionKey{JobID: "j1", PartID: "p1"}, "s", "q1", nil, false, time.Now())
	qt.addIfAbsent(PendingQuestionKey{JobID: "j1", PartID: "p2"}, "s", "q2", nil, false, time.Now())

	if len(qt.All()) != 2 {
		t.Fatalf("expected 2 distinct pending questions, got %d", len(qt.All()))
	}
}

func TestQuestionTable_Clear(t *testing.T) {
	qt := newQuestionTable()
	qt.addIfAbsent(PendingQuestionKey{JobID: "j1", PartID: "p1"}, "s", "q1", nil, false, time.Now())
	qt.clear()
	if len(qt.All()) != 0 {
		t.Fatal("expected clear to drop all pending questions")
	}
}
