package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger *slog.Logger
	router *mux.Router
	srv    *http.Server
}

// New builds the HTTP server. /stats is served only with a provider and /ws only with a spectator handler.
func New(logger *slog.Logger, port, runID string, stats StatsProvider, spectators http.Handler) *Server {
	log := logger.With("component", "rest")

	router := mux.NewRouter()
	router.HandleFunc("/ping", pingHandler).Methods(http.MethodGet)

	if stats != nil {
		router.Handle("/stats", &statsHandler{logger: log, runID: runID, provider: stats}).Methods(http.MethodGet)
	}

	if spectators != nil {
		router.Handle("/ws", spectators)
	}

	return &Server{
		logger: log,
		router: router,
		srv: &http.Server{
			Addr:        ":" + port,
			Handler:     router,
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 30 * time.Second,
		},
	}
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start serves until ctx is cancelled, then shuts the server down.
func (that *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := that.srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
