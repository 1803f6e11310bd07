package repository

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
)

type tableSnapshot struct {
	Slot    string
	Entries []qlearning.Entry
}

type fileTable struct {
	dir string
}

// NewFileTableRepository stores each table as <dir>/<slot>.gob.
func NewFileTableRepository(dir string) TableRepository {
	return &fileTable{
		dir: dir,
	}
}

func (that *fileTable) path(slot string) string {
	return filepath.Join(that.dir, slot+".gob")
}

func (that *fileTable) Save(_ context.Context, slot string, table *qlearning.QTable) error {
	if err := os.MkdirAll(that.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	file, err := os.CreateTemp(that.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer os.Remove(file.Name())

	snapshot := tableSnapshot{Slot: slot, Entries: table.Entries()}
	if err = gob.NewEncoder(file).Encode(&snapshot); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode table %s: %w", slot, err)
	}

	if err = file.Close(); err != nil {
		return fmt.Errorf("failed to write table %s: %w", slot, err)
	}

	if err = os.Rename(file.Name(), that.path(slot)); err != nil {
		return fmt.Errorf("failed to store table %s: %w", slot, err)
	}

	return nil
}

func (that *fileTable) Load(_ context.Context, slot string) (*qlearning.QTable, error) {
	file, err := os.Open(that.path(slot))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrModelNotFound, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open table %s: %w", slot, err)
	}
	defer file.Close()

	var snapshot tableSnapshot
	if err = gob.NewDecoder(file).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperror.ErrCorruptModel, slot, err)
	}

	if err = validateEntries(snapshot.Entries); err != nil {
		return nil, fmt.Errorf("table %s: %w", slot, err)
	}

	return qlearning.NewQTableFromEntries(snapshot.Entries), nil
}
