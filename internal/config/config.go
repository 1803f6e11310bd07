package config

import (
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
)

const (
	ModeTrain    = "train"
	ModePlay     = "play"
	ModeEvaluate = "evaluate"

	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"

	RenderNone      = "none"
	RenderConsole   = "console"
	RenderWebsocket = "websocket"
)

// Applied before reading: env-default would also overwrite an explicit zero.
const (
	DefaultEpsilon = 0.25
	DefaultGamma   = 0.8
)

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Mode     string   `yaml:"mode" env:"MODE" env-default:"train"`
	HTTPPort string   `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Training Training `yaml:"training"`
	Play     Play     `yaml:"play"`
	Evaluate Evaluate `yaml:"evaluate"`
	Storage  Storage  `yaml:"storage"`
	Redis    Redis    `yaml:"redis"`
}

type Training struct {
	Episodes int     `yaml:"episodes" env:"TRAINING_EPISODES" env-default:"100000"`
	Epsilon  float64 `yaml:"epsilon" env:"TRAINING_EPSILON"`
	Alpha    float64 `yaml:"alpha" env:"TRAINING_ALPHA" env-default:"0.07"`
	Gamma    float64 `yaml:"gamma" env:"TRAINING_GAMMA"`
	Seed     uint64  `yaml:"seed" env:"TRAINING_SEED" env-default:"0"`
	Render   string  `yaml:"render" env:"TRAINING_RENDER" env-default:"none"`
}

type Play struct {
	HumanPlayer     int    `yaml:"human-player" env:"PLAY_HUMAN_PLAYER" env-default:"1"`
	AllowEmptyModel bool   `yaml:"allow-empty-model" env:"PLAY_ALLOW_EMPTY_MODEL" env-default:"false"`
	Seed            uint64 `yaml:"seed" env:"PLAY_SEED" env-default:"0"`
}

// Evaluate pits the trained agent against a random bot on the human seat.
type Evaluate struct {
	Games int `yaml:"games" env:"EVALUATE_GAMES" env-default:"1000"`
}

type Storage struct {
	Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"file"`
	Dir        string `yaml:"dir" env:"STORAGE_DIR" env-default:"agents"`
	SQLitePath string `yaml:"sqlite-path" env:"STORAGE_SQLITE_PATH" env-default:"agents/models.db"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{
		Training: Training{
			Epsilon: DefaultEpsilon,
			Gamma:   DefaultGamma,
		},
	}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	var errs []error

	switch that.Mode {
	case ModeTrain, ModePlay, ModeEvaluate:
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", that.Mode))
	}

	if that.Training.Episodes <= 0 {
		errs = append(errs, fmt.Errorf("episodes must be positive, got %d", that.Training.Episodes))
	}
	if that.Training.Epsilon < 0 || that.Training.Epsilon > 1 {
		errs = append(errs, fmt.Errorf("epsilon must be in [0,1], got %v", that.Training.Epsilon))
	}
	if that.Training.Alpha <= 0 || that.Training.Alpha > 1 {
		errs = append(errs, fmt.Errorf("alpha must be in (0,1], got %v", that.Training.Alpha))
	}
	if that.Training.Gamma < 0 || that.Training.Gamma > 1 {
		errs = append(errs, fmt.Errorf("gamma must be in [0,1], got %v", that.Training.Gamma))
	}

	switch that.Training.Render {
	case RenderNone, RenderConsole, RenderWebsocket:
	default:
		errs = append(errs, fmt.Errorf("unknown renderer %q", that.Training.Render))
	}

	if that.Play.HumanPlayer != 1 && that.Play.HumanPlayer != 2 {
		errs = append(errs, fmt.Errorf("human player must be 1 or 2, got %d", that.Play.HumanPlayer))
	}

	if that.Evaluate.Games <= 0 {
		errs = append(errs, fmt.Errorf("evaluate games must be positive, got %d", that.Evaluate.Games))
	}

	switch that.Storage.Driver {
	case DriverFile, DriverRedis, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", apperror.ErrUnknownStorage, that.Storage.Driver))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidConfig, err)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
