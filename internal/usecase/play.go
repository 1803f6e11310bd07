package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

// HumanInput is the human side of a game.
type HumanInput interface {
	// GetHumanMove blocks until the human picks one of actions.
	GetHumanMove(ctx context.Context, actions []entity.Action) (entity.Action, error)
	Announce(message string)
}

// PlayStats counts finished games from the human's point of view.
type PlayStats struct {
	Games     int
	HumanWins int
	AgentWins int
	Draws     int
}

// PlaySession pits a greedy agent against a human on a single board.
type PlaySession struct {
	logger   *slog.Logger
	board    *entity.Board
	agent    *qlearning.Agent
	human    entity.Player
	input    HumanInput
	renderer Renderer
}

func NewPlaySession(logger *slog.Logger, agent *qlearning.Agent, input HumanInput, renderer Renderer) *PlaySession {
	if renderer == nil {
		renderer = nopRenderer{}
	}

	return &PlaySession{
		logger:   logger.With("component", "play"),
		board:    entity.NewBoard(),
		agent:    agent,
		human:    agent.Player().Opponent(),
		input:    input,
		renderer: renderer,
	}
}

// LoadTable loads the table trained for player. A missing table is replaced by
// an empty one only when allowEmpty is set.
func LoadTable(ctx context.Context, logger *slog.Logger, repo tableRepo, player entity.Player, allowEmpty bool) (*qlearning.QTable, error) {
	table, err := repo.Load(ctx, player.Slot())
	if errors.Is(err, apperror.ErrModelNotFound) && allowEmpty {
		logger.Warn("no trained model found, playing with an empty table", "slot", player.Slot())
		return qlearning.NewQTable(), nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", player.Slot(), err)
	}

	logger.Info("model loaded", "slot", player.Slot(), "entries", table.Len())

	return table, nil
}

// ResultMessage describes how a game ended.
func ResultMessage(winner entity.Player) string {
	if winner == entity.Nobody {
		return "Draw!"
	}

	return winner.String() + " wins!"
}

// Play runs games until the input reports io.EOF or ctx is cancelled.
func (that *PlaySession) Play(ctx context.Context) (PlayStats, error) {
	return that.PlayGames(ctx, 0)
}

// PlayGames runs up to games games, or without limit when games is 0. Running out
// of input or a cancelled ctx ends the session without an error.
func (that *PlaySession) PlayGames(ctx context.Context, games int) (PlayStats, error) {
	var stats PlayStats

	for ctx.Err() == nil && (games == 0 || stats.Games < games) {
		that.input.Announce("Starting new game...")

		winner, err := that.PlayGame(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, err
		}

		stats.Games++
		switch winner {
		case that.human:
			stats.HumanWins++
		case that.agent.Player():
			stats.AgentWins++
		default:
			stats.Draws++
		}
	}

	return stats, nil
}

// PlayGame plays one game from an empty board and returns the winner, Nobody on a draw.
func (that *PlaySession) PlayGame(ctx context.Context) (entity.Player, error) {
	log := that.logger.With("method", "PlayGame")

	that.board.Reset()
	that.renderer.Render(*that.board)

	for !that.board.IsTerminal() {
		action, err := that.nextMove(ctx)
		if err != nil {
			return entity.Nobody, err
		}

		if result := that.board.ApplyMove(action); !result.Accepted {
			log.Debug("move rejected", "action", action.String())
			continue
		}

		that.renderer.Render(*that.board)
	}

	winner := that.board.Winner()
	message := ResultMessage(winner)
	that.input.Announce(message)
	log.Info("game finished", "result", message)

	return winner, nil
}

func (that *PlaySession) nextMove(ctx context.Context) (entity.Action, error) {
	actions := that.board.LegalActions()

	if that.board.Turn() == that.human {
		action, err := that.input.GetHumanMove(ctx, actions)
		if err != nil {
			return entity.Action{}, fmt.Errorf("failed to get human move: %w", err)
		}

		return action, nil
	}

	state := that.board.State()
	action, err := that.agent.SelectAction(state, actions)
	if err != nil {
		return entity.Action{}, fmt.Errorf("agent failed to move: %w", err)
	}

	that.logger.Debug("agent decision",
		"player", that.agent.Player().String(),
		"actions", actions,
		"q_values", that.agent.QValues(state, actions),
		"chosen", action.String(),
	)

	return action, nil
}
