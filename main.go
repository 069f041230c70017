package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasel/courierhub/internal/server"
	"github.com/wasel/courierhub/internal/service"
	"github.com/wasel/courierhub/internal/smoke"
	"github.com/wasel/courierhub/internal/storage/memrepo"
	"github.com/wasel/courierhub/internal/telemetry"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "courierhub",
	Short:   "Wasel Courier Hub - Multi-provider shipping REST service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	RunE:  runServe,
}

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Exercise every provider against simulated carrier transports",
	RunE:  runSmoke,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(smokeCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracer = nil
	} else {
		defer tracerShutdown(ctx)
	}

	registry := initRegistry(cfg, logger, tracer)
	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	svc := service.New(registry, memrepo.New(), logger, metrics, tracer)

	logger.Info("Starting Wasel Courier Hub",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("sim_store", cfg.SimStore),
	)

	srv := server.New(server.Config{Port: cfg.Port}, svc, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runSmoke(cmd *cobra.Command, args []string) error {
	logger, err := initLogger("warn", "console")
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := initSmokeRegistry(logger)
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())
	svc := service.New(registry, memrepo.New(), logger, metrics, nil)

	return smoke.Run(cmd.Context(), svc, os.Stdout)
}
