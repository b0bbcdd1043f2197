package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridrush/tictactoe-server/internal/entity"
)

func TestBroker_FanOut(t *testing.T) {
	// Given: a broker with two subscribers
	bus := New()
	defer bus.Close()

	first, unsubFirst := bus.Subscribe()
	defer unsubFirst()
	second, unsubSecond := bus.Subscribe()
	defer unsubSecond()

	// When: one update is published
	bus.Publish(Update{GameID: "g1", Game: entity.NewGame()})

	// Then: both subscribers receive it
	require.Equal(t, "g1", (<-first).GameID)
	require.Equal(t, "g1", (<-second).GameID)
}

func TestBroker_PerSessionOrder(t *testing.T) {
	// Given: a subscriber
	bus := New()
	defer bus.Close()

	updates, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// When: several updates for the same game are published in sequence
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		bus.Publish(Update{GameID: id})
	}

	// Then: they arrive in publish order
	for _, id := range ids {
		require.Equal(t, id, (<-updates).GameID)
	}
}

func TestBroker_SlowSubscriberDropsUpdates(t *testing.T) {
	// Given: a subscriber that never drains
	bus := New()
	defer bus.Close()

	updates, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	// When: more updates are published than the buffer holds
	published := subscriberBuffer + 10
	for i := 0; i < published; i++ {
		bus.Publish(Update{GameID: "slow"})
	}

	// Then: exactly one buffer's worth is retained; the rest were dropped
	// without blocking the publisher
	require.Len(t, updates, subscriberBuffer)
}

func TestBroker_Unsubscribe(t *testing.T) {
	// Given: a subscriber that gives up its subscription
	bus := New()
	defer bus.Close()

	updates, unsubscribe := bus.Subscribe()
	unsubscribe()

	// When: an update is published afterwards
	bus.Publish(Update{GameID: "gone"})

	// Then: the channel is closed and delivered nothing
	_, ok := <-updates
	require.False(t, ok)

	// Then: a second unsubscribe is harmless
	assert.NotPanics(t, unsubscribe)
}

func TestBroker_Close(t *testing.T) {
	// Given: a broker with a live subscriber
	bus := New()
	updates, _ := bus.Subscribe()

	// When: the broker shuts down
	bus.Close()

	// Then: the subscriber channel closes and later calls are no-ops
	_, ok := <-updates
	require.False(t, ok)

	assert.NotPanics(t, func() {
		bus.Publish(Update{GameID: "late"})
		bus.Close()
	})

	// Then: subscribing after close yields an already-closed channel
	late, unsubscribe := bus.Subscribe()
	_, ok = <-late
	require.False(t, ok)
	assert.NotPanics(t, unsubscribe)
}
