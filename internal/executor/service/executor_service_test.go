package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/common"
	"golang-market-stress/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingMarketStressService struct {
	runs int32
	err  error
}

func (s *countingMarketStressService) Run(ctx context.Context) (dto.RunReport, error) {
	atomic.AddInt32(&s.runs, 1)
	return dto.RunReport{Stage: dto.StageDone}, s.err
}

func newStreamClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	err := client.XGroupCreateMkStream(context.Background(), common.RedisStreamMarketStressRun, common.RedisStreamGroup, "0").Err()
	require.NoError(t, err)
	return client
}

func TestExecutorService_ProcessTask_RunsAndAcks(t *testing.T) {
	ctx := context.Background()
	client := newStreamClient(t)
	svc := &countingMarketStressService{}

	err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamMarketStressRun,
		Values: map[string]interface{}{"payload": `{"reason":"manual","requested_at":"2025-06-02T09:00:00Z"}`},
	}).Err()
	require.NoError(t, err)

	executor := NewExecutorService(client, svc, logger.NewNop(), 50*time.Millisecond)
	executor.ProcessTask(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.runs))
	pending, err := client.XPending(ctx, common.RedisStreamMarketStressRun, common.RedisStreamGroup).Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestExecutorService_ProcessTask_MalformedPayloadStillRuns(t *testing.T) {
	ctx := context.Background()
	client := newStreamClient(t)
	svc := &countingMarketStressService{}

	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamMarketStressRun,
		Values: map[string]interface{}{"payload": "{not json"},
	}).Err())

	NewExecutorService(client, svc, logger.NewNop(), 50*time.Millisecond).ProcessTask(ctx)

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.runs))
}

func TestExecutorService_ProcessTask_EmptyStream(t *testing.T) {
	client := newStreamClient(t)
	svc := &countingMarketStressService{}

	NewExecutorService(client, svc, logger.NewNop(), 20*time.Millisecond).ProcessTask(context.Background())

	assert.Zero(t, atomic.LoadInt32(&svc.runs))
}
