package liveevents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()

	sub, backlog, err := hub.Subscribe(TopicApprovals)
	require.NoError(t, err)
	defer sub.Close()
	assert.Empty(t, backlog)

	hub.Publish(TopicApprovals, Event{Type: "approval_requested", Data: "s-1"})

	select {
	case event := <-sub.Events():
		assert.Equal(t, "approval_requested", event.Type)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribeReplaysBacklog(t *testing.T) {
	hub := NewHub()

	hub.Publish(TopicPurchases, Event{Type: "purchase_committed", Data: "p-1"})
	hub.Publish(TopicPurchases, Event{Type: "purchase_committed", Data: "p-2"})

	sub, backlog, err := hub.Subscribe(TopicPurchases)
	require.NoError(t, err)
	defer sub.Close()

	require.Len(t, backlog, 2)
	assert.Equal(t, "p-1", backlog[0].Data)
	assert.Equal(t, "p-2", backlog[1].Data)
}

func TestBacklogCapped(t *testing.T) {
	hub := NewHub()

	for i := 0; i < DefaultBufferSize+10; i++ {
		hub.Publish(TopicPurchases, Event{Type: "purchase_committed", Data: i})
	}

	sub, backlog, err := hub.Subscribe(TopicPurchases)
	require.NoError(t, err)
	defer sub.Close()

	require.Len(t, backlog, DefaultBufferSize)
	assert.Equal(t, 10, backlog[0].Data)
}

func TestTopicsAreIsolated(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe(TopicApprovals)
	require.NoError(t, err)
	defer sub.Close()

	hub.Publish(TopicPurchases, Event{Type: "purchase_committed"})

	select {
	case <-sub.Events():
		t.Fatal("event crossed topics")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe(TopicApprovals)
	require.NoError(t, err)
	sub.Close()
	sub.Close()

	// Publishing after unsubscribe must not panic or block.
	hub.Publish(TopicApprovals, Event{Type: "approval_requested"})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()

	sub, _, err := hub.Subscribe(TopicApprovals)
	require.NoError(t, err)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < DefaultSubscriberBuffer*2; i++ {
			hub.Publish(TopicApprovals, Event{Type: "approval_requested", Data: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on slow subscriber")
	}
}
