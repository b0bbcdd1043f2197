package websocket

import (
	"errors"

	"github.com/google/uuid"

	"github.com/gridrush/tictactoe-server/internal/apperror"
	"github.com/gridrush/tictactoe-server/internal/entity"
	"github.com/gridrush/tictactoe-server/internal/metrics"
)

const anonymousName = "Anonymous"

// handleJoin processes JOIN_GAME: the session is created lazily on a fresh
// id, and an empty id gets a server-generated one. On success the client's
// subscription retargets to this game and it receives JOIN_SUCCESS followed
// by a full snapshot.
func (that *client) handleJoin(msg *ClientMessage) {
	log := that.logger.With("method", "handleJoin")

	gameID := msg.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	name := msg.Name
	if name == "" {
		name = anonymousName
	}

	mark, snapshot, err := that.registry.Join(gameID, name)
	if err != nil {
		log.Error("join rejected", "gameID", gameID, "error", err)
		that.enqueue(ErrorMessage{Type: TypeError, Message: userMessage(err)})
		return
	}

	that.setSubscription(gameID)

	that.enqueue(JoinSuccess{
		Type:   TypeJoinSuccess,
		Player: mark,
		GameID: gameID,
		Name:   name,
		Scores: snapshot.Scores,
		Names:  snapshot.PlayerNames,
	})
	that.enqueue(UpdateState{Type: TypeUpdateState, GameID: gameID, Game: snapshot})
}

// handleMove processes MAKE_MOVE. Failures go back to this client only; the
// accepted move reaches everyone through the bus, plus a direct snapshot
// reply here.
func (that *client) handleMove(msg *ClientMessage) {
	log := that.logger.With("method", "handleMove")

	mark, err := entity.ParseMark(msg.Player)
	if err != nil {
		log.Error("invalid player in move", "player", msg.Player)
		that.enqueue(ErrorMessage{Type: TypeMoveFailed, Message: "Invalid player"})
		return
	}

	snapshot, err := that.registry.Move(msg.GameID, mark, msg.X, msg.Y)
	if err != nil {
		metrics.MovesRejected.Inc()
		log.Error("move rejected", "gameID", msg.GameID, "mark", mark, "error", err)
		that.enqueue(ErrorMessage{Type: TypeMoveFailed, Message: userMessage(err)})
		return
	}

	that.setSubscriptionIfEmpty(msg.GameID)

	that.enqueue(UpdateState{Type: TypeUpdateState, Game: snapshot})
}

// handleReset processes RESET_GAME. There is no direct reply; subscribers
// see the fresh board through the broadcast.
func (that *client) handleReset(msg *ClientMessage) {
	log := that.logger.With("method", "handleReset")

	if _, err := that.registry.Reset(msg.GameID); err != nil {
		log.Error("reset rejected", "gameID", msg.GameID, "error", err)
	}
}

// userMessage maps internal errors to client-facing text without leaking
// wrapped context.
func userMessage(err error) string {
	switch {
	case errors.Is(err, apperror.ErrGameFull):
		return "Game is full"
	case errors.Is(err, apperror.ErrGameNotFound):
		return "Game not found"
	case errors.Is(err, apperror.ErrGameFinished):
		return "Game is over"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "It's not your turn"
	case errors.Is(err, apperror.ErrOutOfBounds):
		return "Coordinates out of bounds"
	case errors.Is(err, apperror.ErrCellOccupied):
		return "Cell already taken"
	case errors.Is(err, apperror.ErrPlayerNotInGame):
		return "Player not in game"
	default:
		return "Internal error"
	}
}
