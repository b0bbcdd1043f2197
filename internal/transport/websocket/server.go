package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridrush/tictactoe-server/internal/broker"
	"github.com/gridrush/tictactoe-server/internal/entity"
)

type gameRegistry interface {
	Join(gameID, name string) (entity.Mark, *entity.Game, error)
	Move(gameID string, mark entity.Mark, x, y int) (*entity.Game, error)
	Reset(gameID string) (*entity.Game, error)
}

type subscriber interface {
	Subscribe() (<-chan broker.Update, func())
}

type Server struct {
	logger   *slog.Logger
	registry gameRegistry
	bus      subscriber
	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, registry gameRegistry, bus subscriber) *Server {
	return &Server{
		logger:   logger,
		registry: registry,
		bus:      bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The client is served from arbitrary origins (itch-style static
			// hosting); game ids are the only access control.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Start serves /ws until the context is canceled. Connections are long
// lived, so the server carries no blanket read timeout; per-connection
// liveness is enforced by the ping/pong deadlines in the client pumps.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.handleUpgrade)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		// Close rather than Shutdown: hijacked websocket connections never
		// drain on their own.
		if err := srv.Close(); err != nil {
			return fmt.Errorf("failed to close server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	}
}

func (that *Server) handleUpgrade(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleUpgrade")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established", "remote", conn.RemoteAddr().String())

	newClient(that.logger, that.registry, that.bus, conn).run()
}
