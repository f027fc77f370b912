package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/courseenroll/internal/bootstrap"
	"github.com/yigit/courseenroll/internal/config"
	"github.com/yigit/courseenroll/internal/db"
	"github.com/yigit/courseenroll/internal/pkg/helpers"
)

// Server holds the state for the HTTP server.
type Server struct {
	config          *config.Config
	router          *gin.Engine
	database        *db.PostgresDB
	logger          zerolog.Logger
	http            *http.Server
	shutdownTracing func(context.Context) error
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(ctx context.Context, configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	shutdownTracing, err := bootstrap.SetupTracing(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	txManager := bootstrap.NewTxManager(cfg, database)
	bootstrap.SeedCatalog(ctx, cfg, txManager, lgr)

	deps, err := bootstrap.BuildDependencies(cfg, txManager, database, lgr)
	if err != nil {
		database.Close()
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	return &Server{
		config:          cfg,
		router:          bootstrap.SetupRouter(cfg, deps, lgr),
		database:        database,
		logger:          lgr,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.closeResources(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	timeout := helpers.ParseDuration(s.config.Server.ShutdownTimeout, 10*time.Second)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var shutdownErr error
	if s.http != nil {
		s.logger.Info().Dur("timeout", timeout).Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownErr = errors.Join(shutdownErr, err)
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if err := s.closeResources(ctx); err != nil {
		shutdownErr = errors.Join(shutdownErr, err)
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownErr != nil {
		return fmt.Errorf("server shutdown completed with errors: %w", shutdownErr)
	}
	return nil
}

// closeResources flushes traces and closes the database pool.
func (s *Server) closeResources(ctx context.Context) error {
	var err error
	if s.shutdownTracing != nil {
		if tErr := s.shutdownTracing(ctx); tErr != nil {
			s.logger.Error().Err(tErr).Msg("Tracer provider shutdown error")
			err = tErr
		}
		s.shutdownTracing = nil
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.database.Close()
		s.database = nil
		s.logger.Info().Msg("Database connection pool closed.")
	}
	return err
}
