package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

const (
	CriticalTakenReward = 2.0
	CriticalLossReward  = -2.0

	persistTimeout = 30 * time.Second
)

// Renderer observes the board. It must not keep or modify game state.
type Renderer interface {
	Render(board entity.Board)
}

type tableRepo interface {
	Save(ctx context.Context, slot string, table *qlearning.QTable) error
	Load(ctx context.Context, slot string) (*qlearning.QTable, error)
}

type nopRenderer struct{}

func (nopRenderer) Render(entity.Board) {}

// Stats are the aggregate results of a training run.
type Stats struct {
	Episodes      int  `json:"episodes"`
	PlayerOneWins int  `json:"player_one_wins"`
	PlayerTwoWins int  `json:"player_two_wins"`
	Draws         int  `json:"draws"`
	Aborted       bool `json:"aborted"`
}

// Trainer runs self-play episodes between two agents and persists both tables at the end.
type Trainer struct {
	logger   *slog.Logger
	repo     tableRepo
	renderer Renderer

	episodes int
	board    *entity.Board
	agents   map[entity.Player]*qlearning.Agent

	mu    sync.RWMutex
	stats Stats
}

func NewTrainer(logger *slog.Logger, repo tableRepo, renderer Renderer, episodes int, playerOne, playerTwo *qlearning.Agent) *Trainer {
	if renderer == nil {
		renderer = nopRenderer{}
	}

	return &Trainer{
		logger:   logger.With("component", "trainer"),
		repo:     repo,
		renderer: renderer,

		episodes: episodes,
		board:    entity.NewBoard(),
		agents: map[entity.Player]*qlearning.Agent{
			entity.PlayerOne: playerOne,
			entity.PlayerTwo: playerTwo,
		},
	}
}

// Stats returns a snapshot of the counters, safe to call while Run is in progress.
func (that *Trainer) Stats() Stats {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.stats
}

// Run plays the configured number of episodes. Cancelling ctx stops training
// between moves. Both tables are saved exactly once, whatever the outcome.
func (that *Trainer) Run(ctx context.Context) (Stats, error) {
	log := that.logger.With("method", "Run")

	trainErr := that.train(ctx)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	persistErr := that.persist(persistCtx)

	stats := that.Stats()
	log.Info("training finished",
		"episodes", stats.Episodes,
		"player_one_wins", stats.PlayerOneWins,
		"player_two_wins", stats.PlayerTwoWins,
		"draws", stats.Draws,
		"aborted", stats.Aborted,
	)

	if err := errors.Join(trainErr, persistErr); err != nil {
		return stats, fmt.Errorf("training failed: %w", err)
	}

	return stats, nil
}

func (that *Trainer) train(ctx context.Context) error {
	log := that.logger.With("method", "train")

	for episode := 1; episode <= that.episodes; episode++ {
		if that.aborted(ctx, log, episode, 0) {
			return nil
		}

		that.board.Reset()
		that.render()

		moves := 0
		for terminal := false; !terminal; moves++ {
			if that.aborted(ctx, log, episode, moves) {
				return nil
			}

			var err error
			if terminal, err = that.step(); err != nil {
				return fmt.Errorf("episode %d: %w", episode, err)
			}
		}

		winner := that.finishEpisode()
		log.Debug("episode finished", "episode", episode, "winner", winner.String(), "moves", moves)
	}

	return nil
}

// step plays one move for the player to move and learns from it.
func (that *Trainer) step() (bool, error) {
	player := that.board.Turn()
	agent := that.agents[player]

	state := that.board.State()
	actions := that.board.LegalActions()
	terminalBefore := that.board.IsTerminal()

	shaping, critical, hasCritical := that.board.CriticalMove(player)

	action, err := agent.SelectAction(state, actions)
	if err != nil {
		return false, fmt.Errorf("failed to select action: %w", err)
	}

	if hasCritical {
		switch {
		case action == critical:
			shaping = CriticalTakenReward
		case terminalBefore && shaping == -entity.WinReward:
			shaping = CriticalLossReward
		}
	}

	result := that.board.ApplyMove(action)
	if !result.Accepted {
		return false, fmt.Errorf("%w: %s rejected for %s", apperror.ErrInvalidAction, action, player)
	}
	that.render()

	next := that.board.State()
	var nextActions []entity.Action
	if !result.Terminal {
		nextActions = that.board.LegalActions()
	}

	agent.Update(state, action, shaping+result.Reward, next, nextActions)

	// the other side never gets another turn, so it learns the final transition here
	if result.Terminal && shaping != 0 {
		that.agents[player.Opponent()].Update(state, action, -shaping, next, nextActions)
	}

	return result.Terminal, nil
}

// render shows the board. A panicking renderer is logged and ignored.
func (that *Trainer) render() {
	defer func() {
		if r := recover(); r != nil {
			that.logger.Debug("renderer failed", "panic", r)
		}
	}()

	that.renderer.Render(*that.board)
}

// finishEpisode counts the outcome of the finished board.
func (that *Trainer) finishEpisode() entity.Player {
	winner := that.board.Winner()
	that.recordOutcome(winner)

	return winner
}

func (that *Trainer) recordOutcome(winner entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Episodes++
	switch winner {
	case entity.PlayerOne:
		that.stats.PlayerOneWins++
	case entity.PlayerTwo:
		that.stats.PlayerTwoWins++
	default:
		that.stats.Draws++
	}
}

// aborted reports whether ctx was cancelled and records the early stop.
func (that *Trainer) aborted(ctx context.Context, log *slog.Logger, episode, moves int) bool {
	if ctx.Err() == nil {
		return false
	}

	log.Info("training aborted", "episode", episode, "move", moves)

	that.mu.Lock()
	defer that.mu.Unlock()

	that.stats.Aborted = true

	return true
}

func (that *Trainer) persist(ctx context.Context) error {
	log := that.logger.With("method", "persist")

	var errs []error
	for _, player := range []entity.Player{entity.PlayerOne, entity.PlayerTwo} {
		agent := that.agents[player]
		if err := that.repo.Save(ctx, player.Slot(), agent.Table()); err != nil {
			errs = append(errs, fmt.Errorf("failed to save %s: %w", player.Slot(), err))
			continue
		}

		log.Info("table saved", "slot", player.Slot(), "entries", agent.Table().Len())
	}

	return errors.Join(errs...)
}
