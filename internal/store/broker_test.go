package store

import "testing"

func TestBrokerFanout(t *testing.T) {
	b := NewBroker()

	ch1 := b.Subscribe("1234")
	ch2 := b.Subscribe("1234")
	other := b.Subscribe("5678")

	b.Publish("1234", Event{Type: EventState})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Type != EventState {
				t.Errorf("subscriber %d: event %+v", i, ev)
			}
		default:
			t.Errorf("subscriber %d: no event delivered", i)
		}
	}
	select {
	case <-other:
		t.Error("unrelated session received an event")
	default:
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker()

	ch := b.Subscribe("1234")
	b.Unsubscribe("1234", ch)
	b.Publish("1234", Event{Type: EventState})

	select {
	case <-ch:
		t.Error("unsubscribed channel received an event")
	default:
	}
}

func TestBrokerDropsWhenFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("1234")

	// One more publish than the channel buffers; must not block.
	for range cap(ch) + 1 {
		b.Publish("1234", Event{Type: EventState})
	}

	if len(ch) != cap(ch) {
		t.Errorf("buffered %d events, want %d", len(ch), cap(ch))
	}
}
