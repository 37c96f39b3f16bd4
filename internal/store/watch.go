package store

import (
	"context"
	"sync"
)

// notifier fans a "something changed" signal out to live query
// subscriptions. Deliveries are coalesced: a subscriber that has not drained
// its channel yet receives one pending signal, not a backlog.
type notifier struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[chan struct{}]struct{})}
}

// Watch returns a channel that receives a signal after every local mutation.
// The first signal is delivered immediately so the subscriber's initial read
// reflects current state. The channel is closed when ctx is done.
func (n *notifier) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)
	ch <- struct{}{} // current state at subscribe time

	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, ch)
		n.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Broadcast signals every subscriber without blocking on slow ones.
func (n *notifier) Broadcast() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
