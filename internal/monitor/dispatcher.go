package monitor

import "sync"

// Handler consumes monitor events. Handlers run in arrival order per
// subscriber (spec.md §4.3, §9: "single-consumer queue per subscriber").
type Handler func(Event)

// dispatcher fans emitted events out to subscribers through a bounded FIFO
// channel each, so a slow handler never reorders or drops another
// subscriber's events and never blocks the emitting goroutine indefinitely.
type dispatcher struct {
	mu   sync.Mutex
	subs []*subscriber
}

type subscriber struct {
	queue chan Event
	done  chan struct{}
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

// Subscribe registers handler and starts its single-consumer goroutine.
func (d *dispatcher) Subscribe(handler Handler) func() {
	sub := &subscriber{
		queue: make(chan Event, 256),
		done:  make(chan struct{}),
	}
	go func() {
		for {
			select {
			case e, ok := <-sub.queue:
				if !ok {
					return
				}
				handler(e)
			case <-sub.done:
				return
			}
		}
	}()

	d.mu.Lock()
	d.subs = append(d.subs, sub)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		close(sub.done)
		for i, s := range d.subs {
			if s == sub {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				break
			}
		}
	}
}

// Emit enqueues e onto every subscriber's queue, never blocking on a full
// queue so one stuck subscriber cannot stall emission to the rest.
func (d *dispatcher) Emit(e Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		select {
		case s.queue <- e:
		default:
		}
	}
}

// closeAll tears down every subscriber goroutine (stop(), spec.md §4.3).
func (d *dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.subs {
		close(s.done)
	}
	d.subs = nil
}
