package ledger

import (
	"testing"

	"tripledger/internal/domain"
)

func TestNotifier_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	n := NewNotifier()

	first, cancelFirst := n.Subscribe(1)
	defer cancelFirst()
	second, cancelSecond := n.Subscribe(1)
	defer cancelSecond()

	n.Publish(domain.Event{Type: domain.EventDriverRegistered, Sequence: 1})

	for i, ch := range []<-chan domain.Event{first, second} {
		select {
		case event := <-ch:
			if event.Type != domain.EventDriverRegistered {
				t.Errorf("subscriber %d: unexpected event type %s", i, event.Type)
			}
		default:
			t.Errorf("subscriber %d missed the event", i)
		}
	}
}

func TestNotifier_CancelStopsDelivery(t *testing.T) {
	t.Parallel()

	n := NewNotifier()

	ch, cancel := n.Subscribe(1)
	cancel()

	// Publishing after cancel must not panic or deliver.
	n.Publish(domain.Event{Type: domain.EventTripRecorded, Sequence: 1})

	if _, ok := <-ch; ok {
		t.Error("expected closed channel after cancel")
	}
}

func TestNotifier_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	n := NewNotifier()

	ch, cancel := n.Subscribe(1)
	defer cancel()

	n.Publish(domain.Event{Sequence: 1})
	n.Publish(domain.Event{Sequence: 2}) // buffer full, dropped

	event := <-ch
	if event.Sequence != 1 {
		t.Errorf("expected first event, got sequence %d", event.Sequence)
	}

	select {
	case extra := <-ch:
		t.Errorf("expected drop, received sequence %d", extra.Sequence)
	default:
	}
}
