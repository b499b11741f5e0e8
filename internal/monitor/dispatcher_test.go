package monitor

import (
	"sync"
	"testing"
	"time"
)

func TestDispatcher_DeliversToAllSubscribers(t *testing.T) {
	d := newDispatcher()
	var mu sync.Mutex
	var got1, got2 []Event

	unsub1 := d.Subscribe(func(e Event) { mu.Lock(); got1 = append(got1, e); mu.Unlock() })
	unsub2 := d.Subscribe(func(e Event) { mu.Lock(); got2 = append(got2, e); mu.Unlock() })
	defer unsub1()
	defer unsub2()

	d.Emit(Event{Kind: EventComplete, JobID: "j1"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		ok := len(got1) == 1 && len(got2) == 1
		mu.Unlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected both subscribers to receive the event, got %d and %d", len(got1), len(got2))
}

func TestDispatcher_UnsubscribeStopsDelivery(t *testing.T) {
	d := newDispatcher()
	var mu sync.Mutex
	count := 0

	unsub := d.Subscribe(func(e Event) { mu.Lock(); count++; mu.Unlock() })
	unsub()

	d.Emit(Event{Kind: EventComplete, JobID: "j1"})
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestDispatcher_EmitNeverBlocksOnFullQueue(t *testing.T) {
	d := newDispatcher()
	block := make(chan struct{})
	d.Subscribe(func(e Event) { <-block })

	done := make(chan struct{})
	go func() {
		for i := 0; i < 300; i++ {
			d.Emit(Event{Kind: EventComplete, JobID: "j1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked with a full subscriber queue")
	}
	close(block)
}
