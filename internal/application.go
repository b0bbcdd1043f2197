package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/config"
	"github.com/gridrush/tictactoe-server/internal/mirror"
	"github.com/gridrush/tictactoe-server/internal/reaper"
	"github.com/gridrush/tictactoe-server/internal/registry"
	"github.com/gridrush/tictactoe-server/internal/repository"
	"github.com/gridrush/tictactoe-server/internal/repository/storage"
	"github.com/gridrush/tictactoe-server/internal/transport/rest"
	"github.com/gridrush/tictactoe-server/internal/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	bus := broker.New()
	defer bus.Close()

	gameRegistry := registry.New(logger, bus)

	if redisAddr := conf.Redis.GetRedisAddr(); redisAddr != "" {
		redisClient, err := storage.New(ctx, redisAddr)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}
		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		gameRepo := repository.NewGameRepository(redisClient, conf.Game.IdleTimeout)
		snapshotMirror := mirror.New(logger, gameRepo, bus)
		go snapshotMirror.Run(ctx)

		log.Info("Snapshot mirror enabled", "addr", redisAddr)
	}

	idleReaper := reaper.New(logger, gameRegistry, conf.Game.ReapInterval, conf.Game.IdleTimeout)
	go idleReaper.Run(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameRegistry, bus)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
