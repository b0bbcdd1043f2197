// Package registry owns the authoritative in-memory session map. Every
// mutation runs inside a per-session critical section, and every accepted
// mutation publishes exactly one snapshot on the update bus.
package registry

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridrush/tictactoe-server/internal/apperror"
	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/entity"
	"github.com/gridrush/tictactoe-server/internal/metrics"
)

type publisher interface {
	Publish(update broker.Update)
}

type Registry struct {
	logger *slog.Logger
	bus    publisher

	// mu guards the map only; each session carries its own mutex so that
	// unrelated games never serialize against each other.
	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	mu   sync.Mutex
	game *entity.Game
}

func New(logger *slog.Logger, bus publisher) *Registry {
	return &Registry{
		logger:   logger.With("component", "registry"),
		bus:      bus,
		sessions: make(map[string]*session),
	}
}

// Join adds a player to the session, creating it lazily on first contact.
// On success it returns the assigned mark and the published snapshot.
func (that *Registry) Join(gameID, name string) (entity.Mark, *entity.Game, error) {
	sess := that.getOrCreate(gameID)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	mark, err := sess.game.Join(name)
	if err != nil {
		return "", nil, fmt.Errorf("failed to join game %q: %w", gameID, err)
	}

	that.logger.Info("player joined", "gameID", gameID, "mark", mark, "name", name)

	return mark, that.publish(gameID, sess.game), nil
}

// Move applies one move. Unknown game ids are not created here.
func (that *Registry) Move(gameID string, mark entity.Mark, x, y int) (*entity.Game, error) {
	sess, err := that.lookup(gameID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err = sess.game.MakeMove(mark, x, y); err != nil {
		return nil, fmt.Errorf("failed to make move in game %q: %w", gameID, err)
	}

	return that.publish(gameID, sess.game), nil
}

// Reset starts a fresh round, keeping players, names, and scores.
func (that *Registry) Reset(gameID string) (*entity.Game, error) {
	sess, err := that.lookup(gameID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.game.Reset()
	that.logger.Info("game reset", "gameID", gameID)

	return that.publish(gameID, sess.game), nil
}

// Reap evicts sessions whose last activity is older than timeout, measured
// against the supplied now. It returns the number of evicted sessions.
func (that *Registry) Reap(now time.Time, timeout time.Duration) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	evicted := 0
	for id, sess := range that.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.game.LastActivity())
		sess.mu.Unlock()

		if idle >= timeout {
			delete(that.sessions, id)
			evicted++
		}
	}

	if evicted > 0 {
		metrics.GamesReaped.Add(float64(evicted))
		metrics.GamesActive.Set(float64(len(that.sessions)))
	}

	return evicted
}

// Len reports the number of live sessions.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.sessions)
}

// publish clones the session state and puts the snapshot on the bus. Called
// with the session lock held, so per-session publish order is exactly commit
// order; the bus never blocks, so holding the lock here cannot deadlock.
func (that *Registry) publish(gameID string, game *entity.Game) *entity.Game {
	snapshot := game.Clone()
	that.bus.Publish(broker.Update{GameID: gameID, Game: snapshot})

	return snapshot
}

func (that *Registry) getOrCreate(gameID string) *session {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[gameID]
	if !ok {
		sess = &session{game: entity.NewGame()}
		that.sessions[gameID] = sess
		metrics.GamesActive.Set(float64(len(that.sessions)))
		that.logger.Info("created new game", "gameID", gameID)
	}

	return sess
}

func (that *Registry) lookup(gameID string) (*session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	sess, ok := that.sessions[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperror.ErrGameNotFound, gameID)
	}

	return sess, nil
}
