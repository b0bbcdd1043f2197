// Package broker is the update bus: a fan-out pub/sub of self-contained
// session snapshots keyed by game id. Every connection handler owns a
// subscription and filters by the id it cares about.
package broker

import (
	"sync"

	"github.com/gridrush/tictactoe-server/internal/entity"
	"github.com/gridrush/tictactoe-server/internal/metrics"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// further behind than this misses snapshots instead of stalling publishers;
// snapshots are self-contained, so the next delivered one resynchronizes it.
const subscriberBuffer = 64

// Update carries one published snapshot. Game is a deep copy owned by the
// bus consumers; publishers never touch it again.
type Update struct {
	GameID string
	Game   *entity.Game
}

type Broker struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Update
	nextID      uint64
	closed      bool
}

func New() *Broker {
	return &Broker{
		subscribers: make(map[uint64]chan Update),
	}
}

// Subscribe returns a receive channel and an unsubscribe function. The
// channel is closed on unsubscribe or when the broker shuts down.
func (that *Broker) Subscribe() (<-chan Update, func()) {
	that.mu.Lock()
	defer that.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	id := that.nextID
	that.nextID++

	if that.closed {
		close(ch)
		return ch, func() {}
	}

	that.subscribers[id] = ch

	unsubscribe := func() {
		that.mu.Lock()
		defer that.mu.Unlock()

		if _, ok := that.subscribers[id]; ok {
			delete(that.subscribers, id)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// Publish fans the update out to every subscriber. It never blocks: a full
// subscriber buffer drops this update for that subscriber only.
func (that *Broker) Publish(update Update) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if that.closed {
		return
	}

	metrics.UpdatesPublished.Inc()

	for _, ch := range that.subscribers {
		select {
		case ch <- update:
		default:
			metrics.UpdatesDropped.Inc()
		}
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (that *Broker) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}
	that.closed = true

	for id, ch := range that.subscribers {
		delete(that.subscribers, id)
		close(ch)
	}
}
