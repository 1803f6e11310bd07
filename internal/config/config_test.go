package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		// Given: a config file with only the mode set
		path := writeConfig(t, "mode: train\n")

		// When: the config is loaded
		conf, err := Load(path)

		// Then: defaults match the reference training run
		require.NoError(t, err)
		assert.Equal(t, 100000, conf.Training.Episodes)
		assert.InDelta(t, 0.25, conf.Training.Epsilon, 1e-12)
		assert.InDelta(t, 0.07, conf.Training.Alpha, 1e-12)
		assert.InDelta(t, 0.8, conf.Training.Gamma, 1e-12)
		assert.Equal(t, DriverFile, conf.Storage.Driver)
		assert.Equal(t, RenderNone, conf.Training.Render)
		assert.Equal(t, 1, conf.Play.HumanPlayer)
		assert.Equal(t, 1000, conf.Evaluate.Games)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Reads nested sections", func(t *testing.T) {
		path := writeConfig(t, `
log-level: debug
mode: play
training:
  episodes: 10
  epsilon: 0.5
  alpha: 1
  gamma: 0.5
play:
  human-player: 2
  allow-empty-model: true
storage:
  driver: redis
redis:
  host: cache
  port: "6380"
`)

		conf, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, ModePlay, conf.Mode)
		assert.Equal(t, 10, conf.Training.Episodes)
		assert.InDelta(t, 0.5, conf.Training.Epsilon, 1e-12)
		assert.Equal(t, 2, conf.Play.HumanPlayer)
		assert.True(t, conf.Play.AllowEmptyModel)
		assert.Equal(t, "cache:6380", conf.Redis.GetRedisAddr())
	})

	t.Run("Keeps an explicit zero epsilon and gamma", func(t *testing.T) {
		// Given: a greedy, myopic training setup
		path := writeConfig(t, "training:\n  epsilon: 0\n  gamma: 0\n")

		// When: the config is loaded
		conf, err := Load(path)

		// Then: the zeros are not replaced by defaults
		require.NoError(t, err)
		assert.Zero(t, conf.Training.Epsilon)
		assert.Zero(t, conf.Training.Gamma)
		assert.InDelta(t, 0.07, conf.Training.Alpha, 1e-12)
	})

	t.Run("Environment overrides epsilon and gamma", func(t *testing.T) {
		t.Setenv("TRAINING_EPSILON", "0.1")
		t.Setenv("TRAINING_GAMMA", "0")
		path := writeConfig(t, "training:\n  epsilon: 0.5\n  gamma: 0.9\n")

		conf, err := Load(path)

		require.NoError(t, err)
		assert.InDelta(t, 0.1, conf.Training.Epsilon, 1e-12)
		assert.Zero(t, conf.Training.Gamma)
	})

	t.Run("Rejects out of range hyperparameters", func(t *testing.T) {
		path := writeConfig(t, "training:\n  episodes: -1\n  epsilon: 1.5\n  alpha: 1.5\n  gamma: -0.1\n")

		_, err := Load(path)

		require.ErrorIs(t, err, apperror.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "episodes")
		assert.Contains(t, err.Error(), "epsilon")
		assert.Contains(t, err.Error(), "alpha")
		assert.Contains(t, err.Error(), "gamma")
	})

	t.Run("Rejects unknown mode", func(t *testing.T) {
		path := writeConfig(t, "mode: serve\n")

		_, err := Load(path)

		require.ErrorIs(t, err, apperror.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "serve")
	})

	t.Run("Rejects unknown storage driver", func(t *testing.T) {
		path := writeConfig(t, "storage:\n  driver: s3\n")

		_, err := Load(path)

		require.ErrorIs(t, err, apperror.ErrInvalidConfig)
		require.ErrorIs(t, err, apperror.ErrUnknownStorage)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})
}
