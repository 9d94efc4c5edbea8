package broadcast

import "sync"

// Subscription delivers snapshots on a channel with latest-wins semantics:
// when the buffer is full the oldest undelivered snapshot is discarded.
type Subscription struct {
	// C receives snapshots. It is closed when the subscription ends.
	C <-chan Snapshot

	mu     sync.Mutex
	ch     chan Snapshot
	done   bool
	cancel func()
}

// Channel subscribes a new channel observer with the given buffer size
// (minimum 1).
func (b *Broadcaster) Channel(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)
	sub := &Subscription{C: ch, ch: ch}

	cancel, ok := b.subscribe(sub)
	sub.cancel = cancel
	if !ok {
		sub.close()
	}
	return sub
}

// Notify implements Observer without ever blocking.
func (s *Subscription) Notify(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Cancel unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancel()
	s.close()
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return
	}
	s.done = true
	close(s.ch)
}
