package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_FanOutToAllSubscribers(t *testing.T) {
	h := NewHub()

	chans := make([]<-chan Event, 3)
	for i, id := range []string{"a", "b", "c"} {
		chans[i] = h.Register(id)
		h.Subscribe(id, 7)
	}

	other := h.Register("d")
	h.Subscribe("d", 8)

	want := Event{
		Type:            EventParticipantJoined,
		OfferingID:      7,
		NewCount:        4,
		EffectivePrice:  90,
		DiscountPercent: 10,
		ParticipantName: "Ada",
	}
	h.Publish(7, want)

	for _, ch := range chans {
		assert.Equal(t, want, recvOne(t, ch))
	}
	assertNoEvent(t, other)
}

func TestHub_ConnectionSubscribesToMultipleOfferings(t *testing.T) {
	h := NewHub()

	ch := h.Register("a")
	h.Subscribe("a", 1)
	h.Subscribe("a", 2)

	h.Publish(1, Event{Type: EventParticipantJoined, OfferingID: 1})
	h.Publish(2, Event{Type: EventStatusChanged, OfferingID: 2})

	first := recvOne(t, ch)
	second := recvOne(t, ch)
	assert.Equal(t, uint(1), first.OfferingID)
	assert.Equal(t, uint(2), second.OfferingID)
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()

	ch := h.Register("a")
	h.Subscribe("a", 1)
	h.Unsubscribe("a", 1)

	h.Publish(1, Event{Type: EventParticipantJoined, OfferingID: 1})

	assertNoEvent(t, ch)
	assert.Zero(t, h.SubscriberCount(1))
}

func TestHub_ConnectionClosedDropsAllSubscriptions(t *testing.T) {
	h := NewHub()

	ch := h.Register("a")
	h.Subscribe("a", 1)
	h.Subscribe("a", 2)

	h.ConnectionClosed("a")

	_, open := <-ch
	assert.False(t, open, "event channel should be closed")
	assert.Zero(t, h.SubscriberCount(1))
	assert.Zero(t, h.SubscriberCount(2))
}

func TestHub_SlowSubscriberDoesNotBlockOthers(t *testing.T) {
	h := NewHub()

	// "slow" never drains its channel; fill its buffer completely.
	h.Register("slow")
	h.Subscribe("slow", 1)
	fast := h.Register("fast")
	h.Subscribe("fast", 1)

	for i := 0; i < sendBufSize+10; i++ {
		h.Publish(1, Event{Type: EventParticipantJoined, OfferingID: 1, NewCount: i})
	}

	// The fast consumer still gets events delivered in publish order.
	for i := 0; i < 5; i++ {
		evt := recvOne(t, fast)
		require.Equal(t, i, evt.NewCount)
		// drain the rest lazily
		if i == 4 {
			break
		}
	}
}

func TestHub_PublishToOfferingWithoutSubscribers(t *testing.T) {
	h := NewHub()

	// Must not panic or block.
	h.Publish(99, Event{Type: EventStatusChanged, OfferingID: 99})
}

func TestHub_ReRegisterReplacesConnection(t *testing.T) {
	h := NewHub()

	old := h.Register("a")
	h.Subscribe("a", 1)

	fresh := h.Register("a")
	h.Subscribe("a", 1)

	_, open := <-old
	assert.False(t, open, "old channel should be closed on re-register")

	h.Publish(1, Event{Type: EventParticipantJoined, OfferingID: 1})
	assert.Equal(t, uint(1), recvOne(t, fresh).OfferingID)
	assert.Equal(t, 1, h.SubscriberCount(1))
}
