package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is the part of the Redis client health checks use
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// HealthChecker checks the dependencies of the render worker
type HealthChecker struct {
	redisClient  Pinger
	templateRoot string
	logger       *zap.Logger
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(redisClient Pinger, templateRoot string, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		redisClient:  redisClient,
		templateRoot: templateRoot,
		logger:       logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthy reports whether every check passed
func (r HealthResponse) Healthy() bool {
	return r.Status == "healthy"
}

// Check pings Redis and makes sure the template root is a readable directory
func (hc *HealthChecker) Check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	// Check Redis connection
	if err := hc.redisClient.Ping(ctx).Err(); err != nil {
		checks["redis"] = fmt.Sprintf("unhealthy: %v", err)
		healthy = false
	} else {
		checks["redis"] = "healthy"
	}

	// Check template tree
	if info, err := os.Stat(hc.templateRoot); err != nil {
		checks["templates"] = fmt.Sprintf("unhealthy: %v", err)
		healthy = false
	} else if !info.IsDir() {
		checks["templates"] = fmt.Sprintf("unhealthy: %s is not a directory", hc.templateRoot)
		healthy = false
	} else {
		checks["templates"] = "healthy"
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
		hc.logger.Warn("health check failed", zap.Any("checks", checks))
	}
	return HealthResponse{Status: status, Checks: checks}
}
