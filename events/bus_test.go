package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	first := bus.Subscribe()
	second := bus.Subscribe()
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(NewStatusEvent("run-1", "running", "started"))

	for _, ch := range []chan Event{first, second} {
		event := <-ch
		status, ok := event.(StatusEvent)
		require.True(t, ok)
		assert.Equal(t, "run-1", status.RunID)
		assert.Equal(t, "running", status.Status)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()
	bus.Unsubscribe(ch)
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open)

	// Unsubscribing twice must not panic.
	bus.Unsubscribe(ch)
}

func TestBus_PublishNeverBlocks(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe()

	// Overfill the subscriber buffer; the excess is dropped.
	for i := 0; i < subscriberBuffer+10; i++ {
		bus.Publish(NewLogEvent("info", "line"))
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriberBuffer, received)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe()

	bus.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.SubscriberCount())

	// Operations after close are no-ops.
	bus.Publish(NewLogEvent("info", "ignored"))
	late := bus.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
