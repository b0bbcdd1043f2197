package websocket

import "github.com/gridrush/tictactoe-server/internal/entity"

// Client-visible message types. One JSON object per websocket text frame.
const (
	TypeJoinGame  = "JOIN_GAME"
	TypeMakeMove  = "MAKE_MOVE"
	TypeResetGame = "RESET_GAME"

	TypeJoinSuccess = "JOIN_SUCCESS"
	TypeUpdateState = "UPDATE_STATE"
	TypeMoveFailed  = "MOVE_FAILED"
	TypeError       = "ERROR"
)

// ClientMessage is the flat inbound envelope; fields beyond Type are
// populated depending on the message type.
type ClientMessage struct {
	Type   string `json:"type"`
	GameID string `json:"game_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Player string `json:"player,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type JoinSuccess struct {
	Type   string                 `json:"type"`
	Player entity.Mark            `json:"player"`
	GameID string                 `json:"game_id"`
	Name   string                 `json:"name"`
	Scores map[entity.Mark]int    `json:"scores"`
	Names  map[entity.Mark]string `json:"names"`
}

// UpdateState carries a complete snapshot; clients resynchronize from it
// without any prior history.
type UpdateState struct {
	Type   string       `json:"type"`
	GameID string       `json:"game_id,omitempty"`
	Game   *entity.Game `json:"game"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
