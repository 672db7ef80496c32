package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-market-stress/internal/scheduler/config"
	"golang-market-stress/internal/scheduler/dto"
	"golang-market-stress/pkg/common"
	"golang-market-stress/pkg/logger"
	"golang-market-stress/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// StreamPublisher is the subset of the Redis client used to enqueue runs.
type StreamPublisher interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// SchedulerService publishes market stress run triggers, on a cron schedule or on demand.
type SchedulerService interface {
	Start(ctx context.Context) error
	TriggerRun(ctx context.Context, reason string) (*dto.TriggerRunResponse, error)
}

// NewSchedulerService creates a new scheduler service.
func NewSchedulerService(publisher StreamPublisher, log *logger.Logger, cfg *config.Config) SchedulerService {
	return &schedulerService{
		publisher:  publisher,
		logger:     log,
		cfg:        cfg,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:        time.Now,
	}
}

type schedulerService struct {
	publisher  StreamPublisher
	logger     *logger.Logger
	cfg        *config.Config
	cronParser cron.Parser
	now        func() time.Time
}

// Start registers the cron schedule and blocks until ctx is done.
func (s *schedulerService) Start(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(s.cronParser),
		cron.WithLocation(utils.LoadLocation(s.cfg.Scheduler.TimeZone)),
	)

	_, err := c.AddFunc(s.cfg.Scheduler.CronExpression, func() {
		if _, err := s.TriggerRun(ctx, "schedule"); err != nil {
			s.logger.Error("Failed to publish scheduled run", logger.ErrorField(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", s.cfg.Scheduler.CronExpression, err)
	}

	if s.cfg.Scheduler.RunOnStart {
		if _, err := s.TriggerRun(ctx, "startup"); err != nil {
			s.logger.Error("Failed to publish startup run", logger.ErrorField(err))
		}
	}

	c.Start()
	s.logger.Info("Scheduler started", logger.StringField("cron_expression", s.cfg.Scheduler.CronExpression))

	<-ctx.Done()
	s.logger.Info("Scheduler service stopping")
	<-c.Stop().Done()
	return nil
}

// TriggerRun enqueues one pipeline run on the Redis stream.
func (s *schedulerService) TriggerRun(ctx context.Context, reason string) (*dto.TriggerRunResponse, error) {
	if reason == "" {
		reason = "manual"
	}
	trigger := dto.RunTrigger{Reason: reason, RequestedAt: s.now()}

	payload, err := json.Marshal(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run trigger: %w", err)
	}

	id, err := s.publisher.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamMarketStressRun,
		Values: map[string]interface{}{"payload": string(payload)},
		MaxLen: s.cfg.Redis.StreamMaxLen,
		Approx: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue run: %w", err)
	}

	s.logger.Info("Run trigger published", logger.StringField("message_id", id), logger.StringField("reason", reason))
	return &dto.TriggerRunResponse{
		MessageID: id,
		Reason:    reason,
		QueuedAt:  trigger.RequestedAt,
	}, nil
}
