package service

import (
	"context"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// RandomBot stands in for the human seat and plays a uniformly random legal move.
type RandomBot struct {
	rng *rand.Rand
}

func NewRandomBot(rng *rand.Rand) *RandomBot {
	return &RandomBot{rng: rng}
}

func (that *RandomBot) GetHumanMove(ctx context.Context, actions []entity.Action) (entity.Action, error) {
	if err := ctx.Err(); err != nil {
		return entity.Action{}, err
	}

	if len(actions) == 0 {
		return entity.Action{}, fmt.Errorf("bot failed to make turn: %w", apperror.ErrNoLegalActions)
	}

	return actions[that.rng.Intn(len(actions))], nil
}

func (that *RandomBot) Announce(string) {}
