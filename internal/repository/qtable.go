package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

// TableRepository persists one Q-table per agent slot.
type TableRepository interface {
	Save(ctx context.Context, slot string, table *qlearning.QTable) error
	Load(ctx context.Context, slot string) (*qlearning.QTable, error)
}

// encodeState renders a state key as comma separated cell values, e.g. "1,0,-1,0,0,0,0,0,0".
func encodeState(state entity.StateKey) string {
	parts := make([]string, len(state))
	for i, cell := range state {
		parts[i] = strconv.Itoa(int(cell))
	}

	return strings.Join(parts, ",")
}

func decodeState(raw string) (entity.StateKey, error) {
	var state entity.StateKey

	parts := strings.Split(raw, ",")
	if len(parts) != len(state) {
		return state, fmt.Errorf("%w: state %q has %d cells", apperror.ErrCorruptModel, raw, len(parts))
	}

	for i, part := range parts {
		cell, err := strconv.Atoi(part)
		if err != nil || cell < -1 || cell > 1 {
			return state, fmt.Errorf("%w: state %q has bad cell %q", apperror.ErrCorruptModel, raw, part)
		}
		state[i] = int8(cell)
	}

	return state, nil
}

func validateEntries(entries []qlearning.Entry) error {
	for _, entry := range entries {
		if !entry.Action.IsValid() {
			return fmt.Errorf("%w: action %s out of range", apperror.ErrCorruptModel, entry.Action)
		}
		for _, cell := range entry.State {
			if cell < -1 || cell > 1 {
				return fmt.Errorf("%w: state %s has bad cell %d", apperror.ErrCorruptModel, encodeState(entry.State), cell)
			}
		}
	}

	return nil
}
