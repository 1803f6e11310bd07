package qlearning

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// Params are the agent hyperparameters, constant for a whole run.
type Params struct {
	Epsilon float64 // exploration rate
	Alpha   float64 // learning rate
	Gamma   float64 // discount factor
}

// Agent is an epsilon-greedy tabular Q-learner for one side of the board.
type Agent struct {
	player entity.Player
	table  *QTable
	params Params
	rng    *rand.Rand
}

func NewAgent(player entity.Player, table *QTable, params Params, rng *rand.Rand) *Agent {
	if table == nil {
		table = NewQTable()
	}

	return &Agent{
		player: player,
		table:  table,
		params: params,
		rng:    rng,
	}
}

// NewGreedyAgent returns an agent that never explores, used to play against a human.
func NewGreedyAgent(player entity.Player, table *QTable, rng *rand.Rand) *Agent {
	return NewAgent(player, table, Params{}, rng)
}

func (that *Agent) Player() entity.Player {
	return that.player
}

func (that *Agent) Table() *QTable {
	return that.table
}

// QValues returns the value of every action in state, in the order given.
func (that *Agent) QValues(state entity.StateKey, actions []entity.Action) []float64 {
	values := make([]float64, len(actions))
	for i, action := range actions {
		values[i] = that.table.Get(state, action)
	}

	return values
}

// SelectAction explores with probability epsilon, otherwise picks uniformly
// among the actions sharing the highest value.
func (that *Agent) SelectAction(state entity.StateKey, actions []entity.Action) (entity.Action, error) {
	if len(actions) == 0 {
		return entity.Action{}, fmt.Errorf("%s: %w", that.player, apperror.ErrNoLegalActions)
	}

	if that.rng.Float64() < that.params.Epsilon {
		return actions[that.rng.Intn(len(actions))], nil
	}

	values := that.QValues(state, actions)
	best := values[0]
	for _, v := range values[1:] {
		best = max(best, v)
	}

	candidates := make([]entity.Action, 0, len(actions))
	for i, action := range actions {
		if values[i] == best {
			candidates = append(candidates, action)
		}
	}

	return candidates[that.rng.Intn(len(candidates))], nil
}

// Update applies the one-step Q-learning rule. An empty nextActions marks a
// terminal successor, which contributes no future value.
func (that *Agent) Update(state entity.StateKey, action entity.Action, reward float64, nextState entity.StateKey, nextActions []entity.Action) {
	var maxNext float64
	for i, next := range nextActions {
		v := that.table.Get(nextState, next)
		if i == 0 || v > maxNext {
			maxNext = v
		}
	}

	current := that.table.Get(state, action)
	target := reward + that.params.Gamma*maxNext

	// exact at both ends: α = 0 keeps current, α = 1 stores target
	alpha := that.params.Alpha
	that.table.Set(state, action, (1-alpha)*current+alpha*target)
}
