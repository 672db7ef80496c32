package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/config"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/internal/executor/repository"
	"golang-market-stress/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	source     *fakeNewsSource
	classifier *fakeClassifier
	store      *fakeNewsStore
	runs       *fakeRunRepo
	cache      *fakeCacheRepo
	notifier   *fakeNotifier
}

func newPipelineFixture() *pipelineFixture {
	return &pipelineFixture{
		source:     &fakeNewsSource{},
		classifier: &fakeClassifier{responses: map[string]string{}, errs: map[string]error{}},
		store:      newFakeNewsStore(),
		runs:       &fakeRunRepo{},
		cache:      &fakeCacheRepo{},
		notifier:   &fakeNotifier{},
	}
}

func (f *pipelineFixture) service(maxConcurrent int) MarketStressService {
	cfg := &config.Config{
		Pipeline: config.Pipeline{MaxConcurrent: maxConcurrent, StoreTimeout: time.Second},
	}
	svc := NewMarketStressService(cfg, logger.NewNop(), f.source, f.classifier, f.store, f.runs, f.cache, f.notifier)

	clock := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.(*marketStressService).now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func TestMarketStressService_Run_WritesOnlyFreshRecords(t *testing.T) {
	f := newPipelineFixture()
	for i := 0; i < 10; i++ {
		f.store.rows = append(f.store.rows, entity.NewsSentiment{Title: fmt.Sprintf("old-%d", i), Sentiment: entity.SentimentNegative})
	}
	f.source.items = items("old-1", "new-a", "new-b", "old-7", "new-c")
	f.classifier.responses["new-a"] = fencedAnswer("new-a", "positivo")
	f.classifier.responses["new-b"] = fencedAnswer("new-b", "positivo")
	f.classifier.responses["new-c"] = fencedAnswer("new-c", "negativo")

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StageDone, report.Stage)
	assert.Equal(t, 5, report.Candidates)
	assert.Equal(t, 3, report.NewItems)
	assert.Equal(t, 3, report.FreshRecords)
	assert.Equal(t, 10, report.HistoricalCount)
	assert.ElementsMatch(t, []string{"new-a", "new-b", "new-c"}, f.classifier.calls)

	require.Len(t, f.store.inserted, 3)
	assert.ElementsMatch(t, []string{"new-a", "new-b", "new-c"}, report.Write.Succeeded)
	assert.Len(t, f.store.rows, 13)

	assert.Equal(t, 13, report.Result.Total)
	assert.Equal(t, 2, report.Result.Positive)
	assert.Equal(t, entity.MarketStateStressed, report.Result.MarketState)
}

func TestMarketStressService_Run_MalformedResponseIsIsolated(t *testing.T) {
	f := newPipelineFixture()
	f.store = newFakeNewsStore(negative("old"))
	f.source.items = items("a", "b", "c", "d", "e")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")
	f.classifier.responses["b"] = `[{"titulo": "b", "resumen": "r", "sentimiento": "negativo"}]`
	f.classifier.responses["c"] = "```json\n[{\"titulo\": \"c\", \"sentimiento\": \n```"
	f.classifier.responses["d"] = fencedAnswer("d", "positive")
	f.classifier.responses["e"] = fencedAnswer("e", "NEGATIVO")

	report, err := f.service(3).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StageDone, report.Stage)
	assert.Equal(t, 4, report.FreshRecords)
	assert.Len(t, f.store.inserted, 4)
	require.Len(t, report.ItemFailures, 1)
	assert.Equal(t, "c", report.ItemFailures[0].Title)
	assert.Equal(t, dto.StageParsing, report.ItemFailures[0].Stage)

	assert.Equal(t, 5, report.Result.Total)
	assert.Equal(t, 2, report.Result.Positive)
	assert.Equal(t, 3, report.Result.Negative)
	assert.Equal(t, entity.MarketStateStressed, report.Result.MarketState)
	assert.InDelta(t, 0.6, report.Result.NegativeRatio, 1e-9)
}

func TestMarketStressService_Run_ClassifierErrorIsIsolated(t *testing.T) {
	f := newPipelineFixture()
	f.source.items = items("a", "b")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")
	f.classifier.errs["b"] = fmt.Errorf("%w: quota exceeded", repository.ErrClassifier)

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.FreshRecords)
	require.Len(t, report.ItemFailures, 1)
	assert.Equal(t, "b", report.ItemFailures[0].Title)
	assert.Equal(t, dto.StageClassifying, report.ItemFailures[0].Stage)
	assert.Equal(t, entity.MarketStateOptimistic, report.Result.MarketState)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, []string{"b"}, []string(f.runs.runs[0].FailedTitles))
}

func TestMarketStressService_Run_UsesSourceTitleWhenModelRephrases(t *testing.T) {
	f := newPipelineFixture()
	f.source.items = []dto.NewsItem{{Title: "Peso se aprecia", URL: "https://example.com/peso"}}
	f.classifier.responses["Peso se aprecia"] = fencedAnswer("El peso se aprecia frente al dólar", "positivo")

	_, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.store.inserted, 1)
	assert.Equal(t, "Peso se aprecia", f.store.inserted[0].Title)
	assert.Equal(t, "https://example.com/peso", f.store.inserted[0].URL)
}

func TestMarketStressService_Run_SourceUnavailableUsesHistory(t *testing.T) {
	f := newPipelineFixture()
	f.store = newFakeNewsStore(positive("a"), positive("b"), negative("c"))
	f.source.err = &repository.UpstreamError{Provider: "gnews", StatusCode: 503}

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StageDone, report.Stage)
	assert.NotEmpty(t, report.SourceError)
	assert.Equal(t, 0, report.Candidates)
	assert.Zero(t, f.store.insertCalls)
	assert.Equal(t, entity.MarketStateOptimistic, report.Result.MarketState)
	assert.InDelta(t, 2.0/3.0, report.Result.PositiveRatio, 1e-9)
}

func TestMarketStressService_Run_NothingAnywhereIsNeutral(t *testing.T) {
	f := newPipelineFixture()

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StageDone, report.Stage)
	assert.Empty(t, report.SourceError)
	assert.Equal(t, entity.MarketStateStressed, report.Result.MarketState)
	assert.Zero(t, report.Result.PositiveRatio)
	assert.Zero(t, report.Result.NegativeRatio)
	assert.Zero(t, f.store.insertCalls)
}

func TestMarketStressService_Run_StoreUnavailableFails(t *testing.T) {
	f := newPipelineFixture()
	f.store.down = true
	f.source.items = items("a")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")

	report, err := f.service(1).Run(context.Background())

	require.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.True(t, report.Failed())
	assert.Equal(t, dto.StageDeduplicating, report.FailedStage)
	assert.NotEmpty(t, report.Cause)
	assert.Empty(t, f.classifier.calls)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, entity.RunStatusFailed, f.runs.runs[0].Status)
	assert.Nil(t, f.cache.latest)
	assert.Empty(t, f.notifier.messages)
}

func TestMarketStressService_Run_StoreDownAtWriteKeepsResult(t *testing.T) {
	f := newPipelineFixture()
	f.store = newFakeNewsStore(negative("old"))
	f.store.writeDown = true
	f.source.items = items("a", "b")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")
	f.classifier.responses["b"] = fencedAnswer("b", "positivo")

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dto.StageDone, report.Stage)
	assert.False(t, report.Failed())
	assert.Contains(t, report.WriteError, repository.ErrStoreUnavailable.Error())
	assert.Empty(t, f.store.inserted)

	assert.Equal(t, 3, report.Result.Total)
	assert.Equal(t, entity.MarketStateOptimistic, report.Result.MarketState)
	assert.InDelta(t, 2.0/3.0, report.Result.PositiveRatio, 1e-9)

	require.Len(t, report.Write.Failed, 2)
	assert.Equal(t, "a", report.Write.Failed[0].Title)
	assert.Equal(t, "b", report.Write.Failed[1].Title)
	assert.Contains(t, report.Write.Failed[0].Error, repository.ErrWrite.Error())

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, entity.RunStatusDone, f.runs.runs[0].Status)
	assert.Equal(t, []string{"a", "b"}, []string(f.runs.runs[0].FailedTitles))
	require.NotNil(t, f.cache.latest)
	assert.Equal(t, entity.MarketStateOptimistic, f.cache.latest.MarketState)
	assert.Len(t, f.notifier.messages, 1)
}

func TestMarketStressService_Run_RecordsHistoryCacheAndNotification(t *testing.T) {
	f := newPipelineFixture()
	f.source.items = items("a")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")

	report, err := f.service(1).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, f.runs.runs, 1)
	run := f.runs.runs[0]
	assert.Equal(t, entity.RunStatusDone, run.Status)
	assert.Equal(t, 1, run.WrittenRows)
	assert.Equal(t, report.Duration.Milliseconds(), run.DurationMs)
	assert.NotEmpty(t, run.Report)

	require.NotNil(t, f.cache.latest)
	assert.Equal(t, entity.MarketStateOptimistic, f.cache.latest.MarketState)
	assert.Equal(t, report.CompletedAt, f.cache.latest.ComputedAt)

	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "Mercado optimista")
}

func TestMarketStressService_Run_OptionalCollaboratorsMayBeNil(t *testing.T) {
	f := newPipelineFixture()
	f.source.items = items("a")
	f.classifier.responses["a"] = fencedAnswer("a", "negativo")

	svc := NewMarketStressService(&config.Config{}, logger.NewNop(), f.source, f.classifier, f.store, nil, nil, nil)
	report, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, dto.StageDone, report.Stage)
	assert.Len(t, f.store.inserted, 1)
}

func TestMarketStressService_Run_CancelledContextSkipsClassification(t *testing.T) {
	f := newPipelineFixture()
	f.source.items = items("a", "b")
	f.classifier.responses["a"] = fencedAnswer("a", "positivo")
	f.classifier.responses["b"] = fencedAnswer("b", "positivo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.service(1).Run(ctx)
	require.NoError(t, err)

	assert.Empty(t, f.classifier.calls)
	assert.Len(t, report.ItemFailures, 2)
	assert.Zero(t, report.FreshRecords)
}
