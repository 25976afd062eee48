package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aescanero/dago-template-bridge/internal/config"
)

// StreamClient is the part of the Redis client the worker uses
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Worker represents the render worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   StreamClient
	renderer      *Renderer
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	done          chan struct{}
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker
func NewWorker(
	cfg *config.Config,
	redisClient StreamClient,
	renderer *Renderer,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		renderer:      renderer,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting render worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	// Create consumer group if it doesn't exist
	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	// Start processing work
	go w.processWork()

	w.logger.Info("render worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker gracefully, waiting up to timeout for the message in
// flight to be rendered, published and acknowledged
func (w *Worker) Stop(timeout time.Duration) error {
	w.logger.Info("stopping render worker", zap.String("worker_id", w.id))

	// Cancel context to stop work processing
	w.cancel()

	select {
	case <-w.done:
	case <-time.After(timeout):
		return fmt.Errorf("worker %s did not stop within %s", w.id, timeout)
	}

	w.logger.Info("render worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	// Try to create the group
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP error means the group already exists, which is fine
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer close(w.done)
	w.logger.Info("starting work processing loop")

	w.recoverPending()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			// Read from stream
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if errors.Is(err, redis.Nil) || w.ctx.Err() != nil {
					// No messages available, or shutting down
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				w.sleep(time.Second)
				continue
			}

			// Process each message
			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// recoverPending handles messages delivered to this consumer before a
// restart that were never acknowledged
func (w *Worker) recoverPending() {
	start := "0"
	for w.ctx.Err() == nil {
		streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
			Group:    w.consumerGroup,
			Consumer: w.id,
			Streams:  []string{w.streamKey, start},
			Count:    10,
			Block:    -1,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && w.ctx.Err() == nil {
				w.logger.Error("failed to read pending messages", zap.Error(err))
			}
			return
		}

		handled := 0
		for _, stream := range streams {
			for _, message := range stream.Messages {
				w.handleMessage(message)
				start = message.ID
				handled++
			}
		}
		if handled == 0 {
			return
		}
		w.logger.Info("recovered pending messages", zap.Int("count", handled))
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.ctx.Done():
	case <-time.After(d):
	}
}

// handleMessage handles a single render request message. Stopping the worker
// does not cancel a message already read.
func (w *Worker) handleMessage(message redis.XMessage) {
	ctx := context.WithoutCancel(w.ctx)
	messageID := message.ID
	w.logger.Info("processing render request",
		zap.String("message_id", messageID),
	)

	// Parse the render request
	request, err := parseRenderRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse render request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(ctx, messageID)
		return
	}

	// Render and publish
	if err := w.processRenderRequest(ctx, request); err != nil {
		w.logger.Error("failed to process render request",
			zap.String("message_id", messageID),
			zap.String("request_id", request.RequestID),
			zap.Error(err),
		)
		// Publish error event
		w.publishError(ctx, request, err)
	}

	// Acknowledge the message
	w.acknowledgeMessage(ctx, messageID)
}

// parseRenderRequest parses a render request from a Redis message
func parseRenderRequest(values map[string]interface{}) (*RenderRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request RenderRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render request: %w", err)
	}

	return &request, nil
}

// processRenderRequest renders a request and publishes the result
func (w *Worker) processRenderRequest(ctx context.Context, request *RenderRequest) error {
	result, err := w.renderer.Render(ctx, request)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if err := w.publish(ctx, w.resultStream, result); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	w.logger.Info("published render result",
		zap.String("request_id", request.RequestID),
		zap.Int("outputs", len(result.Outputs)),
	)
	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(ctx context.Context, request *RenderRequest, err error) {
	errorEvent := map[string]interface{}{
		"request_id": request.RequestID,
		"script":     request.Script,
		"error":      err.Error(),
		"timestamp":  time.Now().UTC(),
	}

	// Publish error to a separate stream
	if publishErr := w.publish(ctx, w.resultStream+".errors", errorEvent); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

func (w *Worker) publish(ctx context.Context, stream string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = w.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(ctx context.Context, messageID string) {
	err := w.redisClient.XAck(ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}
