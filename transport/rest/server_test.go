package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
)

type fixedStats usecase.Stats

func (that fixedStats) Stats() usecase.Stats {
	return usecase.Stats(that)
}

func newTestServer(t *testing.T, stats StatsProvider, spectators http.Handler) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(New(logger, "0", "run-1", stats, spectators).Handler())
	t.Cleanup(server.Close)

	return server
}

func TestServer(t *testing.T) {
	t.Run("Ping", func(t *testing.T) {
		// Given: a server without optional routes
		server := newTestServer(t, nil, nil)

		// When: /ping is requested
		resp, err := http.Get(server.URL + "/ping")
		require.NoError(t, err)
		defer resp.Body.Close()

		// Then: it answers pong
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", string(body))
	})

	t.Run("Stats", func(t *testing.T) {
		server := newTestServer(t, fixedStats{Episodes: 10, PlayerOneWins: 6, PlayerTwoWins: 1, Draws: 3}, nil)

		resp, err := http.Get(server.URL + "/stats")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var got statsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "run-1", got.RunID)
		assert.Equal(t, usecase.Stats{Episodes: 10, PlayerOneWins: 6, PlayerTwoWins: 1, Draws: 3}, got.Stats)
	})

	t.Run("Optional routes are absent without their providers", func(t *testing.T) {
		server := newTestServer(t, nil, nil)

		for _, path := range []string{"/stats", "/ws"} {
			resp, err := http.Get(server.URL + path)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		}
	})

	t.Run("Spectator route is delegated", func(t *testing.T) {
		spectators := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		server := newTestServer(t, nil, spectators)

		resp, err := http.Get(server.URL + "/ws")
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	})
}
