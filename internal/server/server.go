// Package server runs the HTTP front of the sync service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/brizzai/notion-tasks-sync/internal/config"
	"github.com/brizzai/notion-tasks-sync/internal/logger"
	"github.com/brizzai/notion-tasks-sync/internal/server/handler"
	"github.com/brizzai/notion-tasks-sync/internal/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server serves the sign-in routes and the session protected API.
type Server struct {
	config  *config.Config
	handler *handler.Handler
}

// NewServer creates a new server instance with the provided configuration.
func NewServer(cfg *config.Config, h *handler.Handler) *Server {
	if cfg == nil {
		logger.Fatal("Config cannot be nil")
	}
	if h == nil {
		logger.Fatal("Handler cannot be nil")
	}
	return &Server{
		config:  cfg,
		handler: h,
	}
}

// Addr is the listen address built from the server config.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Server.Host, fmt.Sprint(s.config.Server.Port))
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("version", config.GetVersionInfo()),
	)
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs on an existing listener. The listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler.CreateHTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel for server errors
	errChan := make(chan error, 1)

	go func() {
		logger.Info("Listening", zap.String("address", ln.Addr().String()))

		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func newAPI(users *service.UserService, syncer *service.SyncService) *handler.API {
	return handler.NewAPI(users, syncer)
}

// runOnLifecycle starts the server with the fx app and stops it with it.
// A server that dies on its own shuts the app down.
func runOnLifecycle(lc fx.Lifecycle, shutdowner fx.Shutdowner, srv *Server) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				defer close(done)
				if err := srv.Start(runCtx); err != nil {
					logger.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

// Module provides the HTTP server and runs it with the app lifecycle
var Module = fx.Module("server",
	fx.Provide(
		newAPI,
		handler.NewHandler,
		NewServer,
	),
	fx.Invoke(runOnLifecycle),
)
