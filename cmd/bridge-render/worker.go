package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aescanero/dago-template-bridge/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the Redis Streams render worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup("stdout")
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()
			return runWorker(cmd.Context(), a)
		},
	}
}

func runWorker(ctx context.Context, a *app) error {
	logger := a.logger
	logger.Info("starting render worker",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("worker_id", a.cfg.WorkerID),
	)

	// Log configuration (without sensitive data)
	logger.Info("configuration loaded",
		zap.String("config", a.cfg.String()),
		zap.Strings("bridges", a.registry.List()),
	)

	// Initialize Redis client
	redisClient := redis.NewClient(a.cfg.RedisOptions())
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis connection", zap.Error(err))
		}
	}()

	// Test Redis connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to connect to redis", zap.Error(err))
		return err
	}
	logger.Info("connected to redis", zap.String("addr", a.cfg.RedisAddr))

	w := worker.NewWorker(a.cfg, redisClient, a.renderer, logger)
	if err := w.Start(); err != nil {
		return err
	}

	// Wait for shutdown signal
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("render worker running, press Ctrl+C to stop")
	<-sigCtx.Done()

	logger.Info("shutdown signal received, stopping worker")
	if err := w.Stop(10 * time.Second); err != nil {
		logger.Warn("shutdown timeout exceeded, forcing exit", zap.Error(err))
		return err
	}

	logger.Info("worker stopped gracefully")
	return nil
}
