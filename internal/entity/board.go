package entity

import (
	"fmt"
	"strings"
)

const (
	BoardSize = 3
	CellCount = BoardSize * BoardSize
)

const (
	WinReward = 1.0

	CriticalWinSignal   = 0.1
	CriticalBlockSignal = -0.1
	NeutralSignal       = 0.2
)

// WinLines lists every line as flat cell indices: rows 0..2, columns 0..2,
// the main diagonal and the anti-diagonal.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Action addresses a cell by 0-indexed row and column.
type Action struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func ActionFromIndex(index int) Action {
	return Action{Row: index / BoardSize, Col: index % BoardSize}
}

func (that Action) Index() int {
	return that.Row*BoardSize + that.Col
}

func (that Action) IsValid() bool {
	return that.Row >= 0 && that.Row < BoardSize && that.Col >= 0 && that.Col < BoardSize
}

func (that Action) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// StateKey is the row-major encoding of the board contents.
type StateKey [CellCount]int8

// MoveResult reports the outcome of ApplyMove from the mover's point of view.
type MoveResult struct {
	Reward   float64
	Terminal bool
	Accepted bool
}

// Board is the 3x3 grid plus the player to move. The zero value is not ready
// for use, call NewBoard or Reset.
type Board struct {
	cells [CellCount]Player
	turn  Player
}

func NewBoard() *Board {
	board := &Board{}
	board.Reset()

	return board
}

// NewBoardFromCells builds a board from row-major cells with the given player to move.
func NewBoardFromCells(cells [CellCount]Player, turn Player) *Board {
	return &Board{cells: cells, turn: turn}
}

func (that *Board) Reset() {
	that.cells = [CellCount]Player{}
	that.turn = PlayerOne
}

func (that *Board) Turn() Player {
	return that.turn
}

func (that *Board) Cells() [CellCount]Player {
	return that.cells
}

func (that *Board) At(action Action) Player {
	return that.cells[action.Index()]
}

func (that *Board) State() StateKey {
	var key StateKey
	for i, cell := range that.cells {
		key[i] = int8(cell)
	}

	return key
}

// LegalActions returns the empty cells in row-major order.
func (that *Board) LegalActions() []Action {
	actions := make([]Action, 0, CellCount)
	for i, cell := range that.cells {
		if cell == EmptyCell {
			actions = append(actions, ActionFromIndex(i))
		}
	}

	return actions
}

// ApplyMove marks the cell for the player to move and hands the turn over.
// A move onto an occupied or out-of-range cell is ignored.
func (that *Board) ApplyMove(action Action) MoveResult {
	if !action.IsValid() || that.cells[action.Index()] != EmptyCell {
		return MoveResult{}
	}

	mover := that.turn
	that.cells[action.Index()] = mover

	result := MoveResult{Accepted: true, Terminal: that.IsTerminal()}
	if that.Winner() == mover {
		result.Reward = WinReward
	}

	that.turn = mover.Opponent()

	return result
}

// Winner returns the player owning a complete line, or Nobody.
func (that *Board) Winner() Player {
	for i := 0; i < BoardSize; i++ {
		if p := that.lineOwner(WinLines[i]); p != Nobody {
			return p
		}
		if p := that.lineOwner(WinLines[BoardSize+i]); p != Nobody {
			return p
		}
	}

	for _, line := range WinLines[2*BoardSize:] {
		if p := that.lineOwner(line); p != Nobody {
			return p
		}
	}

	return Nobody
}

func (that *Board) IsFull() bool {
	for _, cell := range that.cells {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that *Board) IsTerminal() bool {
	return that.Winner() != Nobody || that.IsFull()
}

// CriticalMove looks for a line one move away from completion, first for player
// and then for the opponent. It returns the shaping signal and, when a line was
// found, its empty cell.
func (that *Board) CriticalMove(player Player) (float64, Action, bool) {
	if action, ok := that.openLine(player); ok {
		return CriticalWinSignal, action, true
	}

	if action, ok := that.openLine(player.Opponent()); ok {
		return CriticalBlockSignal, action, true
	}

	return NeutralSignal, Action{}, false
}

func (that *Board) openLine(player Player) (Action, bool) {
	for _, line := range WinLines {
		owned, empty := 0, -1
		for _, idx := range line {
			switch that.cells[idx] {
			case player:
				owned++
			case EmptyCell:
				if empty < 0 {
					empty = idx
				}
			}
		}

		if owned == 2 && empty >= 0 {
			return ActionFromIndex(empty), true
		}
	}

	return Action{}, false
}

func (that *Board) lineOwner(line [3]int) Player {
	a, b, c := that.cells[line[0]], that.cells[line[1]], that.cells[line[2]]
	if a != EmptyCell && a == b && b == c {
		return a
	}

	return Nobody
}

func (that *Board) String() string {
	var sb strings.Builder
	for row := 0; row < BoardSize; row++ {
		if row > 0 {
			sb.WriteString("-+-+-\n")
		}
		for col := 0; col < BoardSize; col++ {
			if col > 0 {
				sb.WriteByte('|')
			}
			sb.WriteString(that.cells[row*BoardSize+col].Mark())
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}
