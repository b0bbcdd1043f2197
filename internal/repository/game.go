package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridrush/tictactoe-server/internal/apperror"
	"github.com/gridrush/tictactoe-server/internal/entity"
)

type GameRepository interface {
	CreateOrUpdate(ctx context.Context, gameID string, game *entity.Game) error
	GetByID(ctx context.Context, gameID string) (*entity.Game, error)
	DeleteByID(ctx context.Context, gameID string) error
}

// dbGame stores game snapshots under "game:{id}". Entries expire on their
// own so evicted sessions disappear from Redis without an explicit delete.
type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbGame) CreateOrUpdate(ctx context.Context, gameID string, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	gameKey := "game:" + gameID
	if err = that.client.Set(ctx, gameKey, gameJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, gameID string) (*entity.Game, error) {
	gameKey := "game:" + gameID

	response, err := that.client.Get(ctx, gameKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game entity.Game
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *dbGame) DeleteByID(ctx context.Context, gameID string) error {
	gameKey := "game:" + gameID

	if err := that.client.Del(ctx, gameKey).Err(); err != nil {
		return fmt.Errorf("failed to delete game by ID: %w", err)
	}

	return nil
}
