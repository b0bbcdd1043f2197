// Package mirror copies every published snapshot into Redis so operators
// and external tooling can inspect live games. The server never reads the
// mirror back; authoritative state stays in memory.
package mirror

import (
	"context"
	"log/slog"

	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/entity"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, gameID string, game *entity.Game) error
}

type subscriber interface {
	Subscribe() (<-chan broker.Update, func())
}

type Mirror struct {
	logger *slog.Logger
	repo   gameRepo

	updates     <-chan broker.Update
	unsubscribe func()
}

func New(logger *slog.Logger, repo gameRepo, bus subscriber) *Mirror {
	updates, unsubscribe := bus.Subscribe()

	return &Mirror{
		logger:      logger.With("component", "mirror"),
		repo:        repo,
		updates:     updates,
		unsubscribe: unsubscribe,
	}
}

// Run drains the bus subscription until the context is canceled or the bus
// closes. Write failures are logged and skipped; the mirror is best-effort.
func (that *Mirror) Run(ctx context.Context) {
	defer that.unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-that.updates:
			if !ok {
				return
			}

			if err := that.repo.CreateOrUpdate(ctx, update.GameID, update.Game); err != nil {
				that.logger.Error("failed to mirror snapshot", "gameID", update.GameID, "error", err)
			}
		}
	}
}
