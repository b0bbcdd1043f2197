package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/metrics"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the peer counts as dead.
	pongWait = 60 * time.Second

	// Ping cadence; must be shorter than pongWait.
	pingPeriod = 54 * time.Second

	maxMessageSize = 4096
	sendBuffer     = 256
)

// client is one websocket connection: it reads intents, forwards them to
// the registry, and relays bus updates for its subscribed game back out.
type client struct {
	logger   *slog.Logger
	registry gameRegistry
	conn     *websocket.Conn

	send        chan []byte
	updates     <-chan broker.Update
	unsubscribe func()

	closeOnce sync.Once
	done      chan struct{}

	// mu guards subscribedID: written by the read pump, read by the relay.
	mu           sync.Mutex
	subscribedID string
}

func newClient(logger *slog.Logger, registry gameRegistry, bus subscriber, conn *websocket.Conn) *client {
	updates, unsubscribe := bus.Subscribe()

	return &client{
		logger:      logger.With("component", "client", "remote", conn.RemoteAddr().String()),
		registry:    registry,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		updates:     updates,
		unsubscribe: unsubscribe,
		done:        make(chan struct{}),
	}
}

// run blocks until the connection dies. The read pump runs on the calling
// goroutine; the write pump and the bus relay get their own.
func (that *client) run() {
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	go that.writePump()
	go that.relayUpdates()

	that.readPump()
}

// shutdown tears the connection down exactly once. Closing done releases
// the write pump and the relay; closing the conn releases the read pump.
func (that *client) shutdown() {
	that.closeOnce.Do(func() {
		close(that.done)
		that.unsubscribe()

		if err := that.conn.Close(); err != nil {
			that.logger.Debug("error closing connection", "error", err)
		}
	})
}

func (that *client) readPump() {
	defer that.shutdown()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := that.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				that.logger.Error("unexpected close", "error", err)
			} else {
				that.logger.Info("client disconnected", "reason", err)
			}
			return
		}

		that.dispatch(raw)
	}
}

// dispatch maps one inbound frame to a registry intent. Malformed and
// unrecognized messages are logged and dropped; the connection stays open.
func (that *client) dispatch(raw []byte) {
	log := that.logger.With("method", "dispatch")

	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Error("dropping malformed message", "error", err)
		return
	}

	switch msg.Type {
	case TypeJoinGame:
		that.handleJoin(&msg)
	case TypeMakeMove:
		that.handleMove(&msg)
	case TypeResetGame:
		that.handleReset(&msg)
	default:
		log.Error("unknown message type", "type", msg.Type)
	}
}

func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.shutdown()
	}()

	for {
		select {
		case <-that.done:
			return
		case payload := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				that.logger.Error("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// relayUpdates forwards bus snapshots whose game id matches the current
// subscription.
func (that *client) relayUpdates() {
	for {
		select {
		case <-that.done:
			return
		case update, ok := <-that.updates:
			if !ok {
				return
			}

			if update.GameID == "" || update.GameID != that.subscribed() {
				continue
			}

			that.enqueue(UpdateState{Type: TypeUpdateState, GameID: update.GameID, Game: update.Game})
		}
	}
}

// enqueue marshals a reply and queues it for the write pump. A connection
// whose send buffer is full is beyond saving; it gets closed rather than
// allowed to stall the relay.
func (that *client) enqueue(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		that.logger.Error("failed to marshal message", "error", err)
		return
	}

	select {
	case that.send <- payload:
	case <-that.done:
	default:
		that.logger.Error("send buffer full, dropping connection")
		that.shutdown()
	}
}

func (that *client) subscribed() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.subscribedID
}

func (that *client) setSubscription(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.subscribedID = gameID
}

func (that *client) setSubscriptionIfEmpty(gameID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.subscribedID == "" {
		that.subscribedID = gameID
	}
}
