package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/common"
	"golang-market-stress/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// ExecutorService consumes run triggers and executes the pipeline.
type ExecutorService interface {
	ProcessTask(ctx context.Context)
}

// NewExecutorService creates a new ExecutorService.
func NewExecutorService(
	redisClient *redis.Client,
	marketStressSvc MarketStressService,
	log *logger.Logger,
	block time.Duration,
) ExecutorService {
	if block <= 0 {
		block = 2 * time.Second
	}
	return &executorService{
		redisClient:     redisClient,
		marketStressSvc: marketStressSvc,
		logger:          log,
		block:           block,
	}
}

type executorService struct {
	redisClient     *redis.Client
	marketStressSvc MarketStressService
	logger          *logger.Logger
	block           time.Duration
}

// ProcessTask dequeues a single run trigger and executes one pipeline run.
func (s *executorService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamMarketStressRun, ">"},
		Count:    1,
		Block:    s.block,
	}).Result()

	if err != nil {
		// Idle periods and shutdown are expected.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return
		}
		s.logger.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	defer s.ack(ctx, message.ID)

	var trigger dto.RunTrigger
	if payload, ok := message.Values["payload"].(string); ok {
		if err := json.Unmarshal([]byte(payload), &trigger); err != nil {
			s.logger.Warn("Malformed run trigger, running anyway", logger.ErrorField(err), logger.Field("message_id", message.ID))
		}
	}

	s.logger.Info("Processing market stress run",
		logger.Field("message_id", message.ID),
		logger.StringField("reason", trigger.Reason),
	)

	if _, err := s.marketStressSvc.Run(ctx); err != nil {
		s.logger.Error("Market stress run failed", logger.ErrorField(err), logger.Field("message_id", message.ID))
	}
}

// ack is done whatever the outcome: a failed run is recorded in history and a
// redelivery would only repeat classifier calls.
func (s *executorService) ack(ctx context.Context, id string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.redisClient.XAck(ackCtx, common.RedisStreamMarketStressRun, common.RedisStreamGroup, id).Err(); err != nil {
		s.logger.Error("Failed to acknowledge run trigger", logger.ErrorField(err), logger.Field("message_id", id))
	}
}
