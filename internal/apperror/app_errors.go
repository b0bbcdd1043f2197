package apperror

import "errors"

var (
	ErrGameFinished    = errors.New("game is over")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrOutOfBounds     = errors.New("coordinates out of bounds")
	ErrCellOccupied    = errors.New("cell already taken")
	ErrPlayerNotInGame = errors.New("player not in game")
	ErrGameFull        = errors.New("game is full")
	ErrGameNotFound    = errors.New("game not found")
)
