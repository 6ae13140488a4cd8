package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestNewEvent_EncodesPayload(t *testing.T) {
	ev, err := NewEvent(EventThreadCreated, map[string]string{"id": "abc"})
	require.NoError(t, err)

	assert.Equal(t, EventThreadCreated, ev.Type)
	assert.JSONEq(t, `{"id":"abc"}`, string(ev.Data))
	assert.False(t, ev.OccurredAt.IsZero())
}

func TestMemoryEventBroker_FanOut(t *testing.T) {
	b := NewMemoryEventBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := b.Subscribe(ctx)
	require.NoError(t, err)
	second, err := b.Subscribe(ctx)
	require.NoError(t, err)

	ev, _ := NewEvent(EventVoteCast, map[string]int{"upvotes": 1})
	require.NoError(t, b.Publish(ctx, ev))

	assert.Equal(t, EventVoteCast, receive(t, first).Type)
	assert.Equal(t, EventVoteCast, receive(t, second).Type)
}

func TestMemoryEventBroker_CancelClosesChannel(t *testing.T) {
	b := NewMemoryEventBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := b.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEventBroker_PublishAfterClose(t *testing.T) {
	b := NewMemoryEventBroker()
	require.NoError(t, b.Close())

	err := b.Publish(context.Background(), Event{Type: EventThreadDeleted})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRedisEventBroker_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	b := NewRedisEventBroker(client)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Subscribe(ctx)
	require.NoError(t, err)

	ev, _ := NewEvent(EventCommentCreated, map[string]string{"threadId": "t1"})
	require.NoError(t, b.Publish(ctx, ev))

	got := receive(t, events)
	assert.Equal(t, EventCommentCreated, got.Type)

	var data map[string]string
	require.NoError(t, json.Unmarshal(got.Data, &data))
	assert.Equal(t, "t1", data["threadId"])
}
