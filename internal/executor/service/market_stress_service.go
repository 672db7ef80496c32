package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/config"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/internal/executor/repository"
	"golang-market-stress/pkg/logger"
	"golang-market-stress/pkg/telegram"
	"golang-market-stress/pkg/utils"

	"gorm.io/datatypes"
)

// MarketStressService runs the news sentiment pipeline.
type MarketStressService interface {
	// Run executes one pipeline run. The report is always well-formed; the
	// error is non-nil only when the news store cannot be read.
	Run(ctx context.Context) (dto.RunReport, error)
}

type marketStressService struct {
	cfg        *config.Config
	logger     *logger.Logger
	newsSource repository.NewsSourceRepository
	classifier repository.SentimentClassifierRepository
	newsRepo   repository.NewsSentimentRepository
	runRepo    repository.MarketStressRunRepository
	cacheRepo  repository.MarketStressCacheRepository
	notifier   telegram.Notifier
	now        func() time.Time
}

// NewMarketStressService creates a new MarketStressService. runRepo, cacheRepo
// and notifier are optional and may be nil.
func NewMarketStressService(
	cfg *config.Config,
	log *logger.Logger,
	newsSource repository.NewsSourceRepository,
	classifier repository.SentimentClassifierRepository,
	newsRepo repository.NewsSentimentRepository,
	runRepo repository.MarketStressRunRepository,
	cacheRepo repository.MarketStressCacheRepository,
	notifier telegram.Notifier,
) MarketStressService {
	return &marketStressService{
		cfg:        cfg,
		logger:     log,
		newsSource: newsSource,
		classifier: classifier,
		newsRepo:   newsRepo,
		runRepo:    runRepo,
		cacheRepo:  cacheRepo,
		notifier:   notifier,
		now:        time.Now,
	}
}

func (s *marketStressService) query() dto.NewsQuery {
	return dto.NewsQuery{
		Topic:      s.cfg.NewsSource.Topic,
		Language:   s.cfg.NewsSource.Language,
		Country:    s.cfg.NewsSource.Country,
		MaxResults: s.cfg.NewsSource.MaxResults,
	}
}

func (s *marketStressService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Pipeline.StoreTimeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Pipeline.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

// Run walks fetching -> deduplicating -> classifying -> parsing -> aggregating ->
// persisting -> done. Single-item failures and a failed write are collected on
// the report; only a store that cannot be read moves the run to failed.
func (s *marketStressService) Run(ctx context.Context) (dto.RunReport, error) {
	report := dto.RunReport{
		StartedAt: s.now(),
		Result:    Aggregate(nil, nil),
	}

	err := s.run(ctx, &report)

	report.CompletedAt = s.now()
	report.Duration = report.CompletedAt.Sub(report.StartedAt)

	s.logger.Info("Market stress run finished",
		logger.StringField("stage", string(report.Stage)),
		logger.StringField("market_state", string(report.Result.MarketState)),
		logger.Float64Field("positive_ratio", report.Result.PositiveRatio),
		logger.Float64Field("negative_ratio", report.Result.NegativeRatio),
		logger.IntField("total", report.Result.Total),
		logger.IntField("fresh", report.FreshRecords),
		logger.IntField("item_failures", len(report.ItemFailures)),
		logger.DurationField("duration", report.Duration),
	)

	s.afterRun(ctx, report)
	return report, err
}

func (s *marketStressService) run(ctx context.Context, report *dto.RunReport) error {
	fail := func(stage dto.Stage, err error) error {
		report.Stage = dto.StageFailed
		report.FailedStage = stage
		report.Cause = err.Error()
		s.logger.Error("Market stress run failed", logger.StringField("stage", string(stage)), logger.ErrorField(err))
		return err
	}

	report.Stage = dto.StageFetching
	query := s.query()
	candidates, err := s.newsSource.Fetch(ctx, query)
	if err != nil {
		// A failed fetch means no fresh candidates this run; historical records still count.
		report.SourceError = err.Error()
		candidates = nil
		s.logger.Warn("News source unavailable, continuing with stored news only", logger.ErrorField(err))
	}
	report.Candidates = len(candidates)

	report.Stage = dto.StageDeduplicating
	storeCtx, cancel := s.storeContext(ctx)
	known, err := s.newsRepo.AllTitles(storeCtx)
	cancel()
	if err != nil {
		return fail(dto.StageDeduplicating, storeUnavailable(err))
	}
	newItems := Dedupe(candidates, known)
	report.NewItems = len(newItems)
	s.logger.Info("Filtered news items",
		logger.IntField("candidate_count", len(candidates)),
		logger.IntField("filtered_count", len(newItems)),
	)

	report.Stage = dto.StageClassifying
	responses, failures := s.classifyAll(ctx, newItems)
	report.ItemFailures = append(report.ItemFailures, failures...)

	report.Stage = dto.StageParsing
	fresh, failures := s.parseAll(newItems, responses)
	report.ItemFailures = append(report.ItemFailures, failures...)
	report.FreshRecords = len(fresh)

	report.Stage = dto.StageAggregating
	storeCtx, cancel = s.storeContext(ctx)
	historical, err := s.newsRepo.AllRecords(storeCtx)
	cancel()
	if err != nil {
		return fail(dto.StageAggregating, storeUnavailable(err))
	}
	report.HistoricalCount = len(historical)
	report.Result = Aggregate(fresh, historical)

	report.Stage = dto.StagePersisting
	if len(fresh) > 0 {
		metadata := make(map[string]dto.NewsItem, len(newItems))
		for _, item := range newItems {
			metadata[item.Title] = item
		}

		storeCtx, cancel = s.storeContext(ctx)
		writeResult, err := WriteNew(storeCtx, s.newsRepo, fresh, metadata)
		cancel()
		if err != nil {
			// The result is already computed; an unwritable batch is reported, not fatal.
			writeResult = markUnwritten(writeResult, fresh, err)
			report.WriteError = err.Error()
			s.logger.Error("Failed to persist fresh news", logger.ErrorField(err), logger.IntField("fresh", len(fresh)))
		}
		report.Write = writeResult
		s.logger.Info("Persisted fresh news",
			logger.IntField("succeeded", len(writeResult.Succeeded)),
			logger.IntField("skipped", len(writeResult.Skipped)),
			logger.IntField("failed", len(writeResult.Failed)),
		)
	} else {
		s.logger.Info("Computed from stored news only, nothing to persist")
	}

	report.Stage = dto.StageDone
	return nil
}

// classifyAll calls the classifier once per item with at most
// Pipeline.MaxConcurrent calls in flight. Responses are keyed by title.
func (s *marketStressService) classifyAll(ctx context.Context, items []dto.NewsItem) (map[string]string, []dto.ItemFailure) {
	maxConcurrent := s.cfg.Pipeline.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		responses = make(map[string]string, len(items))
		errs      = make(map[string]error)
		semaphore = make(chan struct{}, maxConcurrent)
	)

	for _, item := range items {
		if !utils.ShouldContinue(ctx, s.logger) {
			mu.Lock()
			errs[item.Title] = fmt.Errorf("%w: %v", repository.ErrClassifier, ctx.Err())
			mu.Unlock()
			continue
		}

		semaphore <- struct{}{}
		wg.Add(1)
		item := item
		utils.GoSafe(func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			raw, err := s.classifier.Classify(ctx, item.Title, item.Description)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Error("Failed to classify news item", logger.ErrorField(err), logger.StringField("title", item.Title))
				errs[item.Title] = err
				return
			}
			responses[item.Title] = raw
		})
	}
	wg.Wait()

	var failures []dto.ItemFailure
	for _, item := range items {
		if err, ok := errs[item.Title]; ok {
			failures = append(failures, dto.ItemFailure{Title: item.Title, Stage: dto.StageClassifying, Error: err.Error()})
			continue
		}
		if _, ok := responses[item.Title]; !ok {
			// The goroutine died before recording anything.
			failures = append(failures, dto.ItemFailure{Title: item.Title, Stage: dto.StageClassifying, Error: repository.ErrClassifier.Error()})
		}
	}
	return responses, failures
}

// parseAll turns each raw response into the record for the item it classified.
// The record is keyed by the source title so it joins with the item's metadata
// and matches future deduplication even when the model rephrases the title.
func (s *marketStressService) parseAll(items []dto.NewsItem, responses map[string]string) ([]dto.ClassifiedRecord, []dto.ItemFailure) {
	var (
		fresh    []dto.ClassifiedRecord
		failures []dto.ItemFailure
	)

	for _, item := range items {
		raw, ok := responses[item.Title]
		if !ok {
			continue
		}

		records, err := repository.ParseClassification(raw)
		if err != nil {
			s.logger.Error("Failed to parse classifier response",
				logger.ErrorField(err),
				logger.StringField("title", item.Title),
				logger.StringField("response", utils.Truncate(raw, 200)),
			)
			failures = append(failures, dto.ItemFailure{Title: item.Title, Stage: dto.StageParsing, Error: err.Error()})
			continue
		}

		if len(records) > 1 {
			s.logger.Warn("Classifier returned more than one record, keeping the first",
				logger.StringField("title", item.Title),
				logger.IntField("records", len(records)),
			)
		}
		record := records[0]
		record.Title = item.Title
		fresh = append(fresh, record)
	}

	return fresh, failures
}

// afterRun records the run in history, refreshes the cache and notifies.
// None of these can change the outcome of the run.
func (s *marketStressService) afterRun(ctx context.Context, report dto.RunReport) {
	if s.runRepo != nil {
		run, err := newRunEntity(report)
		if err == nil {
			storeCtx, cancel := s.storeContext(ctx)
			err = s.runRepo.Create(storeCtx, run)
			cancel()
		}
		if err != nil {
			s.logger.Error("Failed to record market stress run", logger.ErrorField(err))
		}
	}

	if report.Failed() {
		return
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetLatest(ctx, dto.NewMarketStressResponse(report)); err != nil {
			s.logger.Error("Failed to cache market stress result", logger.ErrorField(err))
		}
	}

	if s.notifier != nil {
		message := telegram.FormatMarketStressMessage(report, utils.LoadLocation(s.cfg.Telegram.TimeZone))
		if err := s.notifier.SendMessage(message); err != nil {
			s.logger.Error("Failed to send telegram notification", logger.ErrorField(err))
		}
	}
}

func newRunEntity(report dto.RunReport) (*entity.MarketStressRun, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run report: %w", err)
	}

	failedTitles := make([]string, 0, len(report.ItemFailures)+len(report.Write.Failed))
	for _, failure := range report.ItemFailures {
		failedTitles = append(failedTitles, failure.Title)
	}
	for _, failure := range report.Write.Failed {
		failedTitles = append(failedTitles, failure.Title)
	}

	status := entity.RunStatusDone
	if report.Failed() {
		status = entity.RunStatusFailed
	}

	return &entity.MarketStressRun{
		Status:        status,
		FailedStage:   string(report.FailedStage),
		MarketState:   report.Result.MarketState,
		PositiveRatio: report.Result.PositiveRatio,
		NegativeRatio: report.Result.NegativeRatio,
		TotalRecords:  report.Result.Total,
		FreshRecords:  report.FreshRecords,
		WrittenRows:   len(report.Write.Succeeded),
		FailedTitles:  failedTitles,
		Report:        datatypes.JSON(payload),
		StartedAt:     report.StartedAt,
		CompletedAt:   report.CompletedAt,
		DurationMs:    report.Duration.Milliseconds(),
	}, nil
}

// markUnwritten adds a failed row for every fresh record the batch did not account for.
func markUnwritten(result dto.WriteResult, fresh []dto.ClassifiedRecord, cause error) dto.WriteResult {
	accounted := make(map[string]struct{}, len(result.Succeeded)+len(result.Skipped)+len(result.Failed))
	for _, title := range result.Succeeded {
		accounted[title] = struct{}{}
	}
	for _, title := range result.Skipped {
		accounted[title] = struct{}{}
	}
	for _, failure := range result.Failed {
		accounted[failure.Title] = struct{}{}
	}

	for _, record := range fresh {
		if _, ok := accounted[record.Title]; ok {
			continue
		}
		result.Failed = append(result.Failed, dto.RowFailure{
			Title: record.Title,
			Error: fmt.Errorf("%w: %v", repository.ErrWrite, cause).Error(),
		})
	}
	return result
}

func storeUnavailable(err error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
}
