package entity

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridrush/tictactoe-server/internal/apperror"
)

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"
)

const (
	BoardSize  = 3
	maxPlayers = 2

	emptyCell = Mark("")
)

// Mark is a player's symbol within a game. X always moves first in a
// brand-new game; join order assigns X, then O.
type Mark string

var ErrInvalidMark = fmt.Errorf("invalid player mark")

// ParseMark validates a wire-level player string.
func ParseMark(s string) (Mark, error) {
	switch Mark(s) {
	case PlayerX, PlayerO:
		return Mark(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMark, s)
	}
}

func (that Mark) Other() Mark {
	if that == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// Board is a 3x3 grid of marks; the zero value is an empty board.
// A cell, once set, is only ever cleared by a full reset.
type Board [BoardSize][BoardSize]Mark

// MarshalJSON serializes the board as a 3x3 array of null|"X"|"O".
func (that Board) MarshalJSON() ([]byte, error) {
	var cells [BoardSize][BoardSize]*Mark
	for x := range that {
		for y := range that[x] {
			if that[x][y] != emptyCell {
				mark := that[x][y]
				cells[x][y] = &mark
			}
		}
	}

	data, err := json.Marshal(cells)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return data, nil
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells [BoardSize][BoardSize]*Mark
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	for x := range cells {
		for y := range cells[x] {
			if cells[x][y] != nil {
				that[x][y] = *cells[x][y]
			} else {
				that[x][y] = emptyCell
			}
		}
	}

	return nil
}

// Winner returns the mark holding a full row, column, or diagonal, or ""
// when no winning line exists.
func (that *Board) Winner() Mark {
	for i := 0; i < BoardSize; i++ {
		if that[i][0] != emptyCell && that[i][0] == that[i][1] && that[i][1] == that[i][2] {
			return that[i][0]
		}
		if that[0][i] != emptyCell && that[0][i] == that[1][i] && that[1][i] == that[2][i] {
			return that[0][i]
		}
	}

	if that[0][0] != emptyCell && that[0][0] == that[1][1] && that[1][1] == that[2][2] {
		return that[0][0]
	}
	if that[0][2] != emptyCell && that[0][2] == that[1][1] && that[1][1] == that[2][0] {
		return that[0][2]
	}

	return emptyCell
}

func (that *Board) IsFull() bool {
	for x := range that {
		for y := range that[x] {
			if that[x][y] == emptyCell {
				return false
			}
		}
	}
	return true
}

// Game is one session's complete state. Mutation is not synchronized here;
// the registry serializes access per session.
type Game struct {
	Board       Board           `json:"board"`
	Turn        Mark            `json:"current_turn"`
	GameOver    bool            `json:"game_over"`
	Draw        bool            `json:"draw"`
	Players     []Mark          `json:"players"`
	PlayerNames map[Mark]string `json:"player_names"`
	Scores      map[Mark]int    `json:"scores"`

	// firstMover is who opened the current round; reset alternates it.
	firstMover   Mark
	lastActivity time.Time
}

func NewGame() *Game {
	return &Game{
		Turn:        PlayerX,
		Players:     make([]Mark, 0, maxPlayers),
		PlayerNames: make(map[Mark]string, maxPlayers),
		Scores:      map[Mark]int{PlayerX: 0, PlayerO: 0},

		firstMover:   PlayerX,
		lastActivity: time.Now(),
	}
}

// Join assigns the next free mark to a player. X goes to the first joiner,
// O to the second; a third join is rejected.
func (that *Game) Join(name string) (Mark, error) {
	if len(that.Players) >= maxPlayers {
		return "", apperror.ErrGameFull
	}

	mark := PlayerX
	if that.HasPlayer(PlayerX) {
		mark = PlayerO
	}

	that.Players = append(that.Players, mark)
	that.PlayerNames[mark] = name
	if _, ok := that.Scores[mark]; !ok {
		that.Scores[mark] = 0
	}

	that.lastActivity = time.Now()

	return mark, nil
}

func (that *Game) HasPlayer(mark Mark) bool {
	for _, player := range that.Players {
		if player == mark {
			return true
		}
	}
	return false
}

// MakeMove applies one move. Precondition checks run in a fixed order and
// the first failure wins; a rejected move leaves the game untouched.
func (that *Game) MakeMove(mark Mark, x, y int) error {
	if !that.HasPlayer(mark) {
		return apperror.ErrPlayerNotInGame
	}
	if that.GameOver {
		return apperror.ErrGameFinished
	}
	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}
	if x < 0 || x >= BoardSize || y < 0 || y >= BoardSize {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, x, y)
	}
	if that.Board[x][y] != emptyCell {
		return apperror.ErrCellOccupied
	}

	that.Board[x][y] = mark

	// The winner check strictly precedes the draw check: a winning move on
	// the last free cell is a win, not a draw.
	switch {
	case that.Board.Winner() != emptyCell:
		that.GameOver = true
		that.Scores[mark]++
	case that.Board.IsFull():
		that.GameOver = true
		that.Draw = true
	default:
		that.Turn = mark.Other()
	}

	that.lastActivity = time.Now()

	return nil
}

// Reset starts a fresh round. Players, names, and scores survive; the
// opening turn alternates relative to the previous round's first mover.
func (that *Game) Reset() {
	that.Board = Board{}
	that.GameOver = false
	that.Draw = false

	that.firstMover = that.firstMover.Other()
	that.Turn = that.firstMover

	that.lastActivity = time.Now()
}

// Clone returns a deep copy safe to hand to other goroutines as a snapshot.
func (that *Game) Clone() *Game {
	clone := *that

	clone.Players = append(make([]Mark, 0, len(that.Players)), that.Players...)

	clone.PlayerNames = make(map[Mark]string, len(that.PlayerNames))
	for mark, name := range that.PlayerNames {
		clone.PlayerNames[mark] = name
	}

	clone.Scores = make(map[Mark]int, len(that.Scores))
	for mark, score := range that.Scores {
		clone.Scores[mark] = score
	}

	return &clone
}

func (that *Game) LastActivity() time.Time {
	return that.lastActivity
}
