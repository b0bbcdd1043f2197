package mirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/entity"
)

// fakeRepo records writes and can be told to fail.
type fakeRepo struct {
	mu     sync.Mutex
	writes []string
	fail   bool
}

func (that *fakeRepo) CreateOrUpdate(_ context.Context, gameID string, _ *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.fail {
		return errors.New("storage unavailable")
	}

	that.writes = append(that.writes, gameID)

	return nil
}

func (that *fakeRepo) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.writes)
}

func (that *fakeRepo) setFail(fail bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.fail = fail
}

func TestMirror_Run(t *testing.T) {
	// Given: a mirror subscribed to a live bus
	bus := broker.New()
	defer bus.Close()

	repo := &fakeRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	snapshots := New(logger, repo, bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		snapshots.Run(ctx)
	}()

	// When: updates are published
	bus.Publish(broker.Update{GameID: "g1", Game: entity.NewGame()})
	bus.Publish(broker.Update{GameID: "g2", Game: entity.NewGame()})

	// Then: both snapshots reach the repository
	require.Eventually(t, func() bool {
		return repo.count() == 2
	}, time.Second, 5*time.Millisecond)

	// When: the context is canceled
	cancel()

	// Then: Run returns
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mirror did not stop on cancel")
	}
}

func TestMirror_WriteFailureDoesNotStopIt(t *testing.T) {
	// Given: a mirror whose repository rejects the first update
	bus := broker.New()
	defer bus.Close()

	repo := &fakeRepo{}
	repo.setFail(true)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	snapshots := New(logger, repo, bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go snapshots.Run(ctx)

	// When: one update fails and a later one succeeds
	bus.Publish(broker.Update{GameID: "lost", Game: entity.NewGame()})
	time.Sleep(20 * time.Millisecond)
	repo.setFail(false)
	bus.Publish(broker.Update{GameID: "kept", Game: entity.NewGame()})

	// Then: the mirror keeps draining and records the later write
	require.Eventually(t, func() bool {
		return repo.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMirror_StopsWhenBusCloses(t *testing.T) {
	// Given: a running mirror
	bus := broker.New()
	repo := &fakeRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	snapshots := New(logger, repo, bus)

	done := make(chan struct{})
	go func() {
		defer close(done)
		snapshots.Run(context.Background())
	}()

	// When: the bus shuts down
	bus.Close()

	// Then: Run returns without needing context cancellation
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("mirror did not stop when the bus closed")
	}
}
