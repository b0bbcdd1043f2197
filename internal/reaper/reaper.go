// Package reaper runs the periodic idle-session sweep.
package reaper

import (
	"context"
	"log/slog"
	"time"
)

type registry interface {
	Reap(now time.Time, timeout time.Duration) int
	Len() int
}

type Reaper struct {
	logger   *slog.Logger
	registry registry
	interval time.Duration
	timeout  time.Duration
}

func New(logger *slog.Logger, registry registry, interval, timeout time.Duration) *Reaper {
	return &Reaper{
		logger:   logger.With("component", "reaper"),
		registry: registry,
		interval: interval,
		timeout:  timeout,
	}
}

// Run sweeps until the context is canceled. No-op sweeps are silent.
func (that *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if evicted := that.registry.Reap(now, that.timeout); evicted > 0 {
				that.logger.Info("cleaned up inactive games", "evicted", evicted, "remaining", that.registry.Len())
			}
		}
	}
}
