package ledger

import (
	"log"
	"sync"

	"tripledger/internal/domain"
)

// Notifier fans ledger events out to in-process subscribers. Publication
// happens after the originating mutation has committed, so subscribers only
// ever see durable state changes.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan domain.Event
	next int
}

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan domain.Event)}
}

// Subscribe registers a new subscriber with the given channel buffer.
// The returned cancel function removes the subscription and closes the
// channel.
func (n *Notifier) Subscribe(buffer int) (<-chan domain.Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++

	ch := make(chan domain.Event, buffer)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Publish delivers an event to every subscriber. Slow subscribers with a
// full buffer miss the event; the log of record is the event repository,
// not the subscription channel.
func (n *Notifier) Publish(event domain.Event) {
	log.Printf("[EVENT] seq=%d type=%s payload=%v", event.Sequence, event.Type, event.Payload)

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
		}
	}
}
