package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	readerapp "github.com/qianmo517/reader/internal/app"
	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reader API server",
		Long: `Start the reader API server.

The server requires a configuration file (--config) that specifies:
- The rule engine endpoint and call timeout
- The source lists to sync (file, url or git) and the sync interval
- Optional telemetry settings`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		zap.S().Fatalf("Failed to bind address flag: %v", err)
	}
	if err := viper.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		zap.S().Fatalf("Failed to bind config flag: %v", err)
	}
	if err := cmd.MarkFlagRequired("config"); err != nil {
		zap.S().Fatalf("Failed to mark config flag as required: %v", err)
	}

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	zap.S().Infow("Loaded configuration",
		"path", configPath,
		"engine", cfg.Engine.Endpoint,
		"lists", len(cfg.Sources))

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorw("Failed to shutdown telemetry", "error", err)
		}
	}()

	opts := []readerapp.ReaderAppOptions{
		readerapp.WithConfig(cfg),
		readerapp.WithTelemetry(tel),
	}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, readerapp.WithAddress(address))
	}

	app, err := readerapp.NewReaderApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	if err := app.Stop(defaultGracefulTimeout); err != nil {
		return err
	}
	return <-errChan
}
