package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"procodus.dev/fleet-inventory/internal/inventory"
	"procodus.dev/fleet-inventory/pkg/metrics"
	"procodus.dev/fleet-inventory/pkg/mq"
)

// Server represents the fleet inventory API server.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	db         *gorm.DB
	events     *inventory.EventPublisher
	config     *ServerConfig
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// HTTP server configuration
	HTTPPort int

	// Database configuration
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Optional gateway lifecycle event feed. Empty MQURL disables it.
	MQURL   string
	MQQueue string

	// Debug exposes internal error detail in 500 responses.
	Debug bool
}

// NewServer creates a new API Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	if cfg.DBHost == "" {
		return nil, errors.New("database host cannot be empty")
	}

	if cfg.MQURL != "" && cfg.MQQueue == "" {
		return nil, errors.New("MQ queue name cannot be empty when MQ URL is set")
	}

	return &Server{
		logger: cfg.Logger,
		config: cfg,
	}, nil
}

// Run starts the API server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting fleet inventory server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Connect to database (runs migrations)
	db, err := inventory.NewDB(&inventory.DBConfig{
		Logger:   s.logger,
		Host:     s.config.DBHost,
		Port:     s.config.DBPort,
		User:     s.config.DBUser,
		Password: s.config.DBPassword,
		DBName:   s.config.DBName,
		SSLMode:  s.config.DBSSLMode,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db

	apiMetrics := metrics.NewAPIMetrics("fleet_inventory")
	if sqlDB, err := db.DB(); err == nil {
		metrics.RegisterDBStats("fleet_inventory", func() int {
			return sqlDB.Stats().OpenConnections
		})
	}

	// Optional event feed
	if s.config.MQURL != "" {
		pub := mq.New(s.config.MQQueue, s.config.MQURL, s.logger)
		s.events = inventory.NewEventPublisher(pub, s.logger, apiMetrics.EventsPublishedTotal)
		s.logger.Info("gateway event feed enabled", "queue", s.config.MQQueue)
	}

	store := inventory.NewStore(db)
	svc, err := inventory.NewService(store, s.logger, s.events)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	router := NewRouter(svc, s.logger, apiMetrics, s.config.Debug)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("fleet inventory server started successfully")

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			return err
		}
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down fleet inventory server")

	var shutdownErr error

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			s.logger.Error("event publisher close error", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}

	if s.db != nil {
		if err := inventory.CloseDB(s.db, s.logger); err != nil {
			s.logger.Error("database close error", "error", err)
			shutdownErr = errors.Join(shutdownErr, err)
		}
	}

	s.logger.Info("fleet inventory server shutdown complete")
	return shutdownErr
}
