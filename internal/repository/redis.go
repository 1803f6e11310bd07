package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

type dbTable struct {
	client *redis.Client
}

func NewRedisTableRepository(client *redis.Client) TableRepository {
	return &dbTable{
		client: client,
	}
}

func (that *dbTable) Save(ctx context.Context, slot string, table *qlearning.QTable) error {
	tableJSON, err := json.Marshal(table.Entries())
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	tableKey := "qtable:" + slot
	err = that.client.Set(ctx, tableKey, tableJSON, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set table: %w", err)
	}

	return nil
}

func (that *dbTable) Load(ctx context.Context, slot string) (*qlearning.QTable, error) {
	tableKey := "qtable:" + slot

	response, err := that.client.Get(ctx, tableKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrModelNotFound, slot)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get table %s: %w", slot, err)
	}

	var entries []qlearning.Entry
	if err = json.Unmarshal([]byte(response), &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrCorruptModel, slot, err)
	}

	if err = validateEntries(entries); err != nil {
		return nil, fmt.Errorf("table %s: %w", slot, err)
	}

	return qlearning.NewQTableFromEntries(entries), nil
}
