package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(time.Second):
		require.FailNow(t, "no event received")
		return nil
	}
}

func TestMemoryPubSub_PatternDeliversInOrder(t *testing.T) {
	ps := NewMemoryPubSub()
	defer ps.Close()

	events, err := ps.SubscribePattern(context.Background(), PatternFrames)
	require.NoError(t, err)

	for _, body := range []string{"one", "two", "three"} {
		ev, err := NewEvent(EventFrame, FramesChannel("room-a"), FramePayload{ChannelID: "room-a", Data: []byte(body)})
		require.NoError(t, err)
		require.NoError(t, ps.Publish(context.Background(), FramesChannel("room-a"), ev))
	}

	for _, want := range []string{"one", "two", "three"} {
		ev := receive(t, events)
		var payload FramePayload
		require.NoError(t, ev.UnmarshalPayload(&payload))
		require.Equal(t, want, string(payload.Data))
		require.Equal(t, "room-a", payload.ChannelID)
	}
}

func TestMemoryPubSub_ExactChannelIgnoresOthers(t *testing.T) {
	ps := NewMemoryPubSub()
	defer ps.Close()

	events, err := ps.Subscribe(context.Background(), FramesChannel("a"))
	require.NoError(t, err)

	ev, err := NewEvent(EventFrame, FramesChannel("b"), FramePayload{})
	require.NoError(t, err)
	require.NoError(t, ps.Publish(context.Background(), FramesChannel("b"), ev))
	require.NoError(t, ps.Publish(context.Background(), FramesChannel("a"), ev))

	got := receive(t, events)
	require.Equal(t, ev, got)
	select {
	case extra := <-events:
		require.Nil(t, extra, "unexpected second event")
	default:
	}
}

func TestMemoryPubSub_UnsubscribeClosesChannel(t *testing.T) {
	ps := NewMemoryPubSub()
	defer ps.Close()

	events, err := ps.Subscribe(context.Background(), "x")
	require.NoError(t, err)
	require.NoError(t, ps.Unsubscribe(context.Background(), "x"))

	_, ok := <-events
	require.False(t, ok)
}

func TestMemoryPubSub_ContextCancelClosesChannel(t *testing.T) {
	ps := NewMemoryPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := ps.Subscribe(ctx, "x")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		require.False(t, ok)
	case <-time.After(time.Second):
		require.FailNow(t, "subscription not closed after cancel")
	}
}

func TestMemoryPubSub_Closed(t *testing.T) {
	ps := NewMemoryPubSub()
	require.NoError(t, ps.Close())

	_, err := ps.Subscribe(context.Background(), "x")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, ps.Publish(context.Background(), "x", &Event{}), ErrClosed)
}

func TestChannelNames(t *testing.T) {
	ch := FramesChannel("pubsub/1234")
	require.Equal(t, "tauchat:channel:pubsub/1234:frames", ch)
	require.True(t, matchPattern(PatternFrames, ch))
	require.False(t, matchPattern(PatternFrames, "other:channel:x:frames"))

	id, err := ChannelIDFromFrames(ch)
	require.NoError(t, err)
	require.Equal(t, "pubsub/1234", id)

	_, err = ChannelIDFromFrames("tauchat:channel::frames")
	require.Error(t, err)
	_, err = ChannelIDFromFrames("nope")
	require.Error(t, err)
}

func TestNewPubSub_DefaultsToMemory(t *testing.T) {
	ps, err := NewPubSub(DefaultConfig())
	require.NoError(t, err)
	defer ps.Close()
	require.IsType(t, &MemoryPubSub{}, ps)
}
