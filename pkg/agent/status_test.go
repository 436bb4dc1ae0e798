package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewStatusBroadcaster()

	first, cancelFirst := b.Subscribe()
	second, cancelSecond := b.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	b.Publish(StatusEvent{Kind: StatusToolCall, Message: "calling echo"})

	for _, ch := range []<-chan StatusEvent{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, StatusToolCall, event.Kind)
			assert.False(t, event.Timestamp.IsZero())
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestBroadcasterNeverBlocksThePublisher(t *testing.T) {
	b := NewStatusBroadcaster()

	// A subscriber that never reads.
	_, cancel := b.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*4; i++ {
			b.Publish(StatusEvent{Kind: StatusAwaitingModel})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestBroadcasterDropsWhenBufferIsFull(t *testing.T) {
	b := NewStatusBroadcaster()

	events, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer*2; i++ {
		b.Publish(StatusEvent{Kind: StatusResponding})
	}

	assert.Equal(t, subscriberBuffer, len(events), "overflow events are dropped, not queued")
}

func TestBroadcasterCancelClosesTheChannel(t *testing.T) {
	b := NewStatusBroadcaster()

	events, cancel := b.Subscribe()
	cancel()

	_, open := <-events
	require.False(t, open)

	// Cancel is idempotent and publishing after cancel is safe.
	cancel()
	b.Publish(StatusEvent{Kind: StatusComplete})
}

func TestPublishWithNoSubscribers(t *testing.T) {
	b := NewStatusBroadcaster()
	b.Publish(StatusEvent{Kind: StatusComplete})
}
