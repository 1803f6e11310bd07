package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

type mockTableRepo struct {
	mock.Mock
}

func (that *mockTableRepo) Save(ctx context.Context, slot string, table *qlearning.QTable) error {
	args := that.Called(ctx, slot, table)
	return args.Error(0)
}

func (that *mockTableRepo) Load(ctx context.Context, slot string) (*qlearning.QTable, error) {
	args := that.Called(ctx, slot)
	table, _ := args.Get(0).(*qlearning.QTable)
	return table, args.Error(1)
}

type recordingRenderer struct {
	boards   []entity.Board
	onRender func(count int)
}

func (that *recordingRenderer) Render(board entity.Board) {
	that.boards = append(that.boards, board)
	if that.onRender != nil {
		that.onRender(len(that.boards))
	}
}

type panickingRenderer struct {
	calls int
}

func (that *panickingRenderer) Render(entity.Board) {
	that.calls++
	panic("display gone")
}

// scriptedInput plays the queued moves first, then always the first legal action.
// After maxCalls moves it returns err.
type scriptedInput struct {
	moves     []entity.Action
	maxCalls  int
	calls     int
	err       error
	announced []string
}

func (that *scriptedInput) GetHumanMove(_ context.Context, actions []entity.Action) (entity.Action, error) {
	if that.calls >= that.maxCalls {
		return entity.Action{}, that.err
	}
	that.calls++

	if len(that.moves) > 0 {
		move := that.moves[0]
		that.moves = that.moves[1:]
		return move, nil
	}

	return actions[0], nil
}

func (that *scriptedInput) Announce(message string) {
	that.announced = append(that.announced, message)
}
