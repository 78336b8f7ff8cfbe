// Package app wires the reader API server together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qianmo517/reader/internal/config"
)

// ReaderApp encapsulates all components needed to run the reader API server
// It provides lifecycle management and graceful shutdown capabilities
type ReaderApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start runs the sync coordinator and the HTTP server.
// It blocks until both have stopped, and returns the first error either reported.
func (app *ReaderApp) Start() error {
	g, gctx := errgroup.WithContext(app.ctx)

	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(gctx); err != nil {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		zap.S().Infow("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	// Tear the server down if the coordinator fails or the app is cancelled.
	g.Go(func() error {
		<-gctx.Done()
		_ = app.httpServer.Close()
		return nil
	})

	return g.Wait()
}

// Stop gracefully stops the application with the given timeout
// It stops the sync coordinator and then shuts down the HTTP server
func (app *ReaderApp) Stop(timeout time.Duration) error {
	zap.S().Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		zap.S().Errorw("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := app.httpServer.Shutdown(shutdownCtx)

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	zap.S().Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ReaderApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *ReaderApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the wired components
func (app *ReaderApp) GetComponents() *AppComponents {
	return app.components
}
