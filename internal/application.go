package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/config"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/qlearning"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/service"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/console"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/rest"
	"github.com/rocketscienceinc/tictactoe-qlearning/transport/websocket"
)

// RunApp - runs the application in the configured mode.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	repo, closeStorage, err := newTableRepository(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStorage()

	switch conf.Mode {
	case config.ModeTrain:
		return runTraining(ctx, logger, conf, repo)
	case config.ModePlay:
		return runPlay(ctx, logger, conf, repo)
	case config.ModeEvaluate:
		return runEvaluation(ctx, logger, conf, repo)
	default:
		return fmt.Errorf("%w: unknown mode %q", apperror.ErrInvalidConfig, conf.Mode)
	}
}

func newTableRepository(ctx context.Context, logger *slog.Logger, conf *config.Config) (repository.TableRepository, func(), error) {
	log := logger.With("component", "storage")

	switch conf.Storage.Driver {
	case config.DriverFile:
		return repository.NewFileTableRepository(conf.Storage.Dir), func() {}, nil

	case config.DriverRedis:
		client, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}

		return repository.NewRedisTableRepository(client), closeFn, nil

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(conf.Storage.SQLitePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite dir: %w", err)
		}

		db, err := storage.NewSQLiteStorage(conf.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Error("could not close sqlite storage", "error", err)
			}
		}

		if err = db.Init(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteTableRepository(db.Connection), closeFn, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", apperror.ErrUnknownStorage, conf.Storage.Driver)
	}
}

func runTraining(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository) error {
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	log := logger.With("component", "app")

	seed := seedOrNow(conf.Training.Seed)
	rng := rand.New(rand.NewSource(seed))
	params := qlearning.Params{
		Epsilon: conf.Training.Epsilon,
		Alpha:   conf.Training.Alpha,
		Gamma:   conf.Training.Gamma,
	}

	var (
		renderer         usecase.Renderer
		spectatorHandler http.Handler
	)

	switch conf.Training.Render {
	case config.RenderConsole:
		renderer = console.NewRenderer(os.Stdout)
	case config.RenderWebsocket:
		hub := websocket.NewHub(logger)
		defer hub.Close()
		renderer = hub
		spectatorHandler = hub
	}

	trainer := usecase.NewTrainer(logger, repo, renderer, conf.Training.Episodes,
		qlearning.NewAgent(entity.PlayerOne, nil, params, rng),
		qlearning.NewAgent(entity.PlayerTwo, nil, params, rng),
	)

	server := rest.New(logger, conf.HTTPPort, runID, trainer, spectatorHandler)

	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()

	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if err := server.Start(serverCtx); err != nil {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("training started",
		"episodes", conf.Training.Episodes,
		"epsilon", params.Epsilon,
		"alpha", params.Alpha,
		"gamma", params.Gamma,
		"seed", seed,
	)

	stats, err := trainer.Run(ctx)

	fmt.Fprintf(os.Stdout, "Player 1 wins: %d times\nPlayer 2 wins: %d times\nDraws: %d\n",
		stats.PlayerOneWins, stats.PlayerTwoWins, stats.Draws)

	return err
}

func runPlay(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository) error {
	log := logger.With("component", "app")

	human, ok := entity.PlayerFromNumber(conf.Play.HumanPlayer)
	if !ok {
		return fmt.Errorf("%w: human player %d", apperror.ErrInvalidConfig, conf.Play.HumanPlayer)
	}

	table, err := usecase.LoadTable(ctx, logger, repo, human.Opponent(), conf.Play.AllowEmptyModel)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seedOrNow(conf.Play.Seed)))
	agent := qlearning.NewGreedyAgent(human.Opponent(), table, rng)

	session := usecase.NewPlaySession(logger, agent, console.NewInput(os.Stdin, os.Stdout), console.NewRenderer(os.Stdout))

	log.Info("play started", "human", human.String(), "agent", agent.Player().String())

	stats, err := session.Play(ctx)
	log.Info("play finished",
		"games", stats.Games,
		"human_wins", stats.HumanWins,
		"agent_wins", stats.AgentWins,
		"draws", stats.Draws,
	)

	return err
}

func runEvaluation(ctx context.Context, logger *slog.Logger, conf *config.Config, repo repository.TableRepository) error {
	log := logger.With("component", "app")

	botSeat, ok := entity.PlayerFromNumber(conf.Play.HumanPlayer)
	if !ok {
		return fmt.Errorf("%w: human player %d", apperror.ErrInvalidConfig, conf.Play.HumanPlayer)
	}

	table, err := usecase.LoadTable(ctx, logger, repo, botSeat.Opponent(), conf.Play.AllowEmptyModel)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seedOrNow(conf.Play.Seed)))
	agent := qlearning.NewGreedyAgent(botSeat.Opponent(), table, rng)
	session := usecase.NewPlaySession(logger, agent, service.NewRandomBot(rng), nil)

	stats, err := session.PlayGames(ctx, conf.Evaluate.Games)
	log.Info("evaluation finished",
		"agent", agent.Player().String(),
		"games", stats.Games,
		"agent_wins", stats.AgentWins,
		"bot_wins", stats.HumanWins,
		"draws", stats.Draws,
	)

	fmt.Fprintf(os.Stdout, "%s vs random bot over %d games: %d wins, %d losses, %d draws\n",
		agent.Player(), stats.Games, stats.AgentWins, stats.HumanWins, stats.Draws)

	return err
}

// seedOrNow treats 0 as "seed from the clock".
func seedOrNow(seed uint64) uint64 {
	if seed == 0 {
		return uint64(time.Now().UnixNano())
	}

	return seed
}
