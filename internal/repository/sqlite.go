package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

type sqlTable struct {
	conn *sql.DB
}

// NewSQLiteTableRepository expects the schema created by storage.Storage.Init.
func NewSQLiteTableRepository(conn *sql.DB) TableRepository {
	return &sqlTable{
		conn: conn,
	}
}

func (that *sqlTable) Save(ctx context.Context, slot string, table *qlearning.QTable) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	if _, err = tx.ExecContext(ctx, `DELETE FROM q_values WHERE slot = ?`, slot); err != nil {
		return fmt.Errorf("can't clear table %s: %w", slot, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO q_values (slot, state, action_row, action_col, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("can't prepare insert: %w", err)
	}
	defer stmt.Close()

	entries := table.Entries()
	for _, entry := range entries {
		_, err = stmt.ExecContext(ctx, slot, encodeState(entry.State), entry.Action.Row, entry.Action.Col, entry.Value)
		if err != nil {
			return fmt.Errorf("can't save value: %w", err)
		}
	}

	query := `INSERT INTO models (slot, entries) VALUES (?, ?) ON CONFLICT(slot) DO UPDATE SET entries = excluded.entries`
	if _, err = tx.ExecContext(ctx, query, slot, len(entries)); err != nil {
		return fmt.Errorf("can't save model %s: %w", slot, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit table %s: %w", slot, err)
	}

	return nil
}

func (that *sqlTable) Load(ctx context.Context, slot string) (*qlearning.QTable, error) {
	var expected int
	err := that.conn.QueryRowContext(ctx, `SELECT entries FROM models WHERE slot = ?`, slot).Scan(&expected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrModelNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("can't find model %s: %w", slot, err)
	}

	rows, err := that.conn.QueryContext(ctx, `SELECT state, action_row, action_col, value FROM q_values WHERE slot = ?`, slot)
	if err != nil {
		return nil, fmt.Errorf("can't load table %s: %w", slot, err)
	}
	defer rows.Close()

	entries := make([]qlearning.Entry, 0, expected)
	for rows.Next() {
		var (
			rawState string
			action   entity.Action
			value    float64
		)

		if err = rows.Scan(&rawState, &action.Row, &action.Col, &value); err != nil {
			return nil, fmt.Errorf("can't scan value: %w", err)
		}

		state, err := decodeState(rawState)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", slot, err)
		}

		entries = append(entries, qlearning.Entry{State: state, Action: action, Value: value})
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't load table %s: %w", slot, err)
	}

	if len(entries) != expected {
		return nil, fmt.Errorf("%w: %s has %d of %d values", apperror.ErrCorruptModel, slot, len(entries), expected)
	}

	if err = validateEntries(entries); err != nil {
		return nil, fmt.Errorf("table %s: %w", slot, err)
	}

	return qlearning.NewQTableFromEntries(entries), nil
}
