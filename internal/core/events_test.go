package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{Entity: EntityProcess, ID: 1, Op: "create"})

	e := <-ch
	assert.Equal(t, EntityProcess, e.Entity)
	assert.Equal(t, int64(1), e.ID)
}

func TestBus_SlowSubscriberDropsEvents(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// The second publish must not block even though the buffer is full.
	bus.Publish(Event{Entity: EntityPhase, ID: 1, Op: "start"})
	bus.Publish(Event{Entity: EntityPhase, ID: 1, Op: "complete"})

	e := <-ch
	assert.Equal(t, "start", e.Op)
	select {
	case e := <-ch:
		t.Fatalf("expected dropped event, got %+v", e)
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)

	cancel()
	// A second cancel is a no-op.
	cancel()

	_, open := <-ch
	require.False(t, open)

	// Publishing after cancel must not panic.
	bus.Publish(Event{Entity: EntityLicense, ID: 1, Op: "create"})
}
