package mergetrain

import "testing"

func TestQueue_FIFOOrder(t *testing.T) {
	q := newQueue()
	q.enqueue(JobSpec{JobName: "a"})
	q.enqueue(JobSpec{JobName: "b"})

	first, ok := q.peek()
	if !ok || first.JobName != "a" {
		t.Fatalf("peek = %v, %v, want a", first, ok)
	}
	q.pop()

	second, ok := q.peek()
	if !ok || second.JobName != "b" {
		t.Fatalf("peek = %v, %v, want b", second, ok)
	}
}

func TestQueue_PeekEmpty(t *testing.T) {
	q := newQueue()
	if _, ok := q.peek(); ok {
		t.Fatal("expected peek on empty queue to report false")
	}
}

func TestQueue_PopEmptyIsNoop(t *testing.T) {
	q := newQueue()
	q.pop()
	if q.len() != 0 {
		t.Fatalf("expected len 0, got %d", q.len())
	}
}

func TestQueue_CopyIsSnapshot(t *testing.T) {
	q := newQueue()
	q.enqueue(JobSpec{JobName: "a"})

	snap := q.Copy()
	q.enqueue(JobSpec{JobName: "b"})

	if len(snap) != 1 {
		t.Fatalf("expected snapshot to have 1 item, got %d", len(snap))
	}
	if q.len() != 2 {
		t.Fatalf("expected live queue to have 2 items, got %d", q.len())
	}
}

func TestQueue_Clear(t *testing.T) {
	q := newQueue()
	q.enqueue(JobSpec{JobName: "a"})
	q.enqueue(JobSpec{JobName: "b"})
	q.clear()
	if q.len() != 0 {
		t.Fatalf("expected len 0 after clear, got %d", q.len())
	}
}
