package usecase

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

// winningTable teaches player one to win the middle column against an
// opponent that always takes the first empty cell.
func winningTable() *qlearning.QTable {
	table := qlearning.NewQTable()
	board := entity.NewBoard()

	for _, pair := range [][2]entity.Action{
		{{Row: 1, Col: 1}, {Row: 0, Col: 0}},
		{{Row: 0, Col: 1}, {Row: 0, Col: 2}},
	} {
		table.Set(board.State(), pair[0], 1)
		board.ApplyMove(pair[0])
		board.ApplyMove(pair[1])
	}
	table.Set(board.State(), entity.Action{Row: 2, Col: 1}, 1)

	return table
}

func greedyAgent(player entity.Player, table *qlearning.QTable) *qlearning.Agent {
	return qlearning.NewGreedyAgent(player, table, rand.New(rand.NewSource(1)))
}

func TestPlaySession_PlayGame(t *testing.T) {
	t.Run("Greedy agent follows its table to a win", func(t *testing.T) {
		// Given: a trained player one agent and a human on the second seat
		input := &scriptedInput{maxCalls: 10, err: io.EOF}
		renderer := &recordingRenderer{}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerOne, winningTable()), input, renderer)

		// When: a game is played
		winner, err := session.PlayGame(context.Background())

		// Then: the agent wins after five moves and the result is announced
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerOne, winner)
		assert.Equal(t, 2, input.calls)
		assert.Len(t, renderer.boards, 6)
		assert.Equal(t, []string{"Player 1 wins!"}, input.announced)
	})

	t.Run("Rejected human move is asked again", func(t *testing.T) {
		// Given: the human tries to play on the agent's opening cell
		input := &scriptedInput{
			moves:    []entity.Action{{Row: 1, Col: 1}},
			maxCalls: 10,
			err:      io.EOF,
		}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerOne, winningTable()), input, nil)

		// When: a game is played
		winner, err := session.PlayGame(context.Background())

		// Then: the occupied cell is ignored and the game continues normally
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerOne, winner)
		assert.Equal(t, 3, input.calls)
	})

	t.Run("Human as player one against an untrained agent", func(t *testing.T) {
		input := &scriptedInput{maxCalls: 10, err: io.EOF}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerTwo, nil), input, nil)

		winner, err := session.PlayGame(context.Background())

		require.NoError(t, err)
		assert.True(t, session.board.IsTerminal())
		assert.Equal(t, session.board.Winner(), winner)
		require.Len(t, input.announced, 1)
		assert.Equal(t, ResultMessage(winner), input.announced[0])
	})
}

func TestPlaySession_Play(t *testing.T) {
	t.Run("Stops cleanly when the input ends", func(t *testing.T) {
		// Given: a human that gives up during the third game
		input := &scriptedInput{maxCalls: 4, err: io.EOF}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerOne, winningTable()), input, nil)

		// When: the session runs
		stats, err := session.Play(context.Background())

		// Then: the two finished games are counted
		require.NoError(t, err)
		assert.Equal(t, PlayStats{Games: 2, AgentWins: 2}, stats)
	})

	t.Run("Stops after the requested number of games", func(t *testing.T) {
		input := &scriptedInput{maxCalls: 100, err: io.EOF}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerOne, winningTable()), input, nil)

		stats, err := session.PlayGames(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, PlayStats{Games: 3, AgentWins: 3}, stats)
		assert.Equal(t, 6, input.calls)
	})

	t.Run("Stops cleanly when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		input := &scriptedInput{maxCalls: 0, err: context.Canceled}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerTwo, nil), input, nil)

		stats, err := session.Play(ctx)

		require.NoError(t, err)
		assert.Zero(t, stats.Games)
	})

	t.Run("Input failure is returned", func(t *testing.T) {
		input := &scriptedInput{maxCalls: 0, err: apperror.ErrInvalidAction}
		session := NewPlaySession(discardLogger(), greedyAgent(entity.PlayerTwo, nil), input, nil)

		_, err := session.Play(context.Background())

		require.ErrorIs(t, err, apperror.ErrInvalidAction)
	})
}

func TestLoadTable(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the stored table", func(t *testing.T) {
		repo := &mockTableRepo{}
		stored := winningTable()
		repo.On("Load", mock.Anything, entity.SlotPlayerTwo).Return(stored, nil).Once()

		table, err := LoadTable(ctx, discardLogger(), repo, entity.PlayerTwo, false)

		require.NoError(t, err)
		assert.Same(t, stored, table)
		repo.AssertExpectations(t)
	})

	t.Run("Missing model is an error without opt-in", func(t *testing.T) {
		repo := &mockTableRepo{}
		repo.On("Load", mock.Anything, entity.SlotPlayerOne).Return(nil, apperror.ErrModelNotFound).Once()

		table, err := LoadTable(ctx, discardLogger(), repo, entity.PlayerOne, false)

		require.ErrorIs(t, err, apperror.ErrModelNotFound)
		assert.Nil(t, table)
	})

	t.Run("Missing model becomes an empty table with opt-in", func(t *testing.T) {
		repo := &mockTableRepo{}
		repo.On("Load", mock.Anything, entity.SlotPlayerOne).Return(nil, apperror.ErrModelNotFound).Once()

		table, err := LoadTable(ctx, discardLogger(), repo, entity.PlayerOne, true)

		require.NoError(t, err)
		assert.Zero(t, table.Len())
	})

	t.Run("Corrupt model is never replaced", func(t *testing.T) {
		repo := &mockTableRepo{}
		repo.On("Load", mock.Anything, entity.SlotPlayerOne).Return(nil, apperror.ErrCorruptModel).Once()

		_, err := LoadTable(ctx, discardLogger(), repo, entity.PlayerOne, true)

		require.ErrorIs(t, err, apperror.ErrCorruptModel)
	})
}
