package reaper

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeRegistry counts sweeps and signals each one.
type fakeRegistry struct {
	mu      sync.Mutex
	sweeps  int
	timeout time.Duration
	swept   chan struct{}
}

func (that *fakeRegistry) Reap(_ time.Time, timeout time.Duration) int {
	that.mu.Lock()
	that.sweeps++
	that.timeout = timeout
	that.mu.Unlock()

	select {
	case that.swept <- struct{}{}:
	default:
	}

	return 1
}

func (that *fakeRegistry) Len() int {
	return 0
}

func TestReaper_Run(t *testing.T) {
	// Given: a reaper ticking fast over a fake registry
	registry := &fakeRegistry{swept: make(chan struct{}, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := New(logger, registry, 5*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		sweeper.Run(ctx)
	}()

	// When: at least one tick fires
	select {
	case <-registry.swept:
	case <-time.After(time.Second):
		t.Fatal("reaper never swept")
	}

	// Then: the sweep used the configured timeout
	registry.mu.Lock()
	require.Equal(t, time.Hour, registry.timeout)
	require.GreaterOrEqual(t, registry.sweeps, 1)
	registry.mu.Unlock()

	// When: the context is canceled
	cancel()

	// Then: Run returns
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on cancel")
	}
}
