package stream

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/enums"
	"github.com/stretchr/testify/require"
)

func recvFrame(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case frame, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before frame arrived")
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return nil
}

func TestPublishReachesOwnSubscribersOnly(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	chA, cancelA, err := hub.Subscribe(1)
	require.NoError(t, err)
	defer cancelA()

	chB, cancelB, err := hub.Subscribe(2)
	require.NoError(t, err)
	defer cancelB()

	event := NewStatusEvent(10, enums.OrderStatusConfirmed, "Your order has been confirmed by the restaurant", time.Now())
	require.NoError(t, hub.Publish(1, event))

	frame := recvFrame(t, chA)
	var decoded StatusEvent
	require.NoError(t, json.Unmarshal(frame, &decoded))
	require.Equal(t, EventTypeStatusUpdate, decoded.Type)
	require.EqualValues(t, 10, decoded.OrderID)
	require.Equal(t, enums.OrderStatusConfirmed, decoded.Status)

	select {
	case f := <-chB:
		t.Fatalf("user 2 must not receive user 1 frames, got %s", f)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultipleSubscribersSameUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch1, cancel1, err := hub.Subscribe(7)
	require.NoError(t, err)
	defer cancel1()

	ch2, cancel2, err := hub.Subscribe(7)
	require.NoError(t, err)
	defer cancel2()

	require.Equal(t, 2, hub.SubscriberCount(7))
	require.NoError(t, hub.Publish(7, NewConnectedEvent(7)))

	for _, ch := range []<-chan []byte{ch1, ch2} {
		var decoded ConnectedEvent
		require.NoError(t, json.Unmarshal(recvFrame(t, ch), &decoded))
		require.Equal(t, EventTypeConnected, decoded.Type)
		require.EqualValues(t, 7, decoded.UserID)
	}
}

func TestUnsubscribeRemovesEntry(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, cancel, err := hub.Subscribe(3)
	require.NoError(t, err)

	cancel()
	cancel() // idempotent

	require.Equal(t, 0, hub.SubscriberCount(3))

	_, ok := <-ch
	require.False(t, ok, "channel must be closed after unsubscribe")

	// publishing to a user with no subscribers is a no-op
	require.NoError(t, hub.Publish(3, NewConnectedEvent(3)))
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, cancel, err := hub.Subscribe(5)
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultSubscriberBuffer*3; i++ {
			_ = hub.Publish(5, NewConnectedEvent(5))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestClosedHubRejectsUse(t *testing.T) {
	hub := NewHub()

	ch, cancel, err := hub.Subscribe(9)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, hub.Close())
	require.NoError(t, hub.Close()) // idempotent

	_, ok := <-ch
	require.False(t, ok)

	_, _, err = hub.Subscribe(9)
	require.Error(t, err)
	require.Error(t, hub.Publish(9, NewConnectedEvent(9)))
}
