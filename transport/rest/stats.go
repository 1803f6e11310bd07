package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
)

// StatsProvider exposes the counters of a running training session.
type StatsProvider interface {
	Stats() usecase.Stats
}

type statsResponse struct {
	RunID string `json:"run_id"`
	usecase.Stats
}

type statsHandler struct {
	logger   *slog.Logger
	runID    string
	provider StatsProvider
}

func (that *statsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	response := statsResponse{RunID: that.runID, Stats: that.provider.Stats()}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		that.logger.Error("failed to write stats", "error", err)
	}
}
