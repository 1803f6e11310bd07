package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

const actionBoardUpdate = "board:update"

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// BoardPayload is a snapshot of the board. Cells hold 1 for player one, 2 for player two and 0 when empty.
type BoardPayload struct {
	Cells    [entity.CellCount]int `json:"cells"`
	Turn     int                   `json:"turn"`
	Winner   int                   `json:"winner"`
	Terminal bool                  `json:"terminal"`
	Grid     string                `json:"grid"`
}

func newBoardPayload(board *entity.Board) BoardPayload {
	payload := BoardPayload{
		Turn:     board.Turn().Number(),
		Winner:   board.Winner().Number(),
		Terminal: board.IsTerminal(),
		Grid:     board.String(),
	}

	for i, cell := range board.Cells() {
		payload.Cells[i] = cell.Number()
	}

	return payload
}

func encodeBoard(board *entity.Board) ([]byte, error) {
	payload, err := json.Marshal(newBoardPayload(board))
	if err != nil {
		return nil, err
	}

	return json.Marshal(Message{Action: actionBoardUpdate, Payload: payload})
}
