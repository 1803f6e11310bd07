package entity

import "fmt"

// Player identifies a side of the game. The same values are stored in board cells.
type Player int8

const (
	Nobody    Player = 0
	PlayerOne Player = 1
	PlayerTwo Player = -1

	EmptyCell = Nobody
)

const (
	SlotPlayerOne = "agent1"
	SlotPlayerTwo = "agent2"
)

func (that Player) Opponent() Player {
	return -that
}

// Slot returns the persistence identifier of the agent playing this side.
func (that Player) Slot() string {
	if that == PlayerTwo {
		return SlotPlayerTwo
	}
	return SlotPlayerOne
}

func (that Player) Mark() string {
	switch that {
	case PlayerOne:
		return "X"
	case PlayerTwo:
		return "O"
	default:
		return " "
	}
}

// Number returns the seat number, 0 for Nobody.
func (that Player) Number() int {
	switch that {
	case PlayerOne:
		return 1
	case PlayerTwo:
		return 2
	default:
		return 0
	}
}

func (that Player) String() string {
	if that == Nobody {
		return "nobody"
	}
	return fmt.Sprintf("Player %d", that.Number())
}

// PlayerFromNumber maps the human-facing seat number (1 or 2) to a Player.
func PlayerFromNumber(number int) (Player, bool) {
	switch number {
	case 1:
		return PlayerOne, true
	case 2:
		return PlayerTwo, true
	default:
		return Nobody, false
	}
}
