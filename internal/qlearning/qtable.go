package qlearning

import (
	"cmp"
	"slices"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// Key identifies a single Q-value.
type Key struct {
	State  entity.StateKey
	Action entity.Action
}

// Entry is a stored Q-value, the unit used by the persistence layer.
type Entry struct {
	State  entity.StateKey `json:"state"`
	Action entity.Action   `json:"action"`
	Value  float64         `json:"value"`
}

// QTable is a sparse table of action values. Unseen keys read as 0.
type QTable struct {
	values map[Key]float64
}

func NewQTable() *QTable {
	return &QTable{values: make(map[Key]float64)}
}

// NewQTableFromEntries rebuilds a table from persisted entries.
func NewQTableFromEntries(entries []Entry) *QTable {
	table := &QTable{values: make(map[Key]float64, len(entries))}
	for _, entry := range entries {
		table.Set(entry.State, entry.Action, entry.Value)
	}

	return table
}

func (that *QTable) Get(state entity.StateKey, action entity.Action) float64 {
	return that.values[Key{State: state, Action: action}]
}

func (that *QTable) Set(state entity.StateKey, action entity.Action, value float64) {
	that.values[Key{State: state, Action: action}] = value
}

func (that *QTable) Len() int {
	return len(that.values)
}

// Entries returns every stored value sorted by state and action so that
// serialized tables are byte-stable.
func (that *QTable) Entries() []Entry {
	entries := make([]Entry, 0, len(that.values))
	for key, value := range that.values {
		entries = append(entries, Entry{State: key.State, Action: key.Action, Value: value})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if c := slices.Compare(a.State[:], b.State[:]); c != 0 {
			return c
		}
		return cmp.Compare(a.Action.Index(), b.Action.Index())
	})

	return entries
}
