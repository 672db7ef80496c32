package service

import (
	"context"
	"fmt"
	"sync"

	"golang-market-stress/internal/entity"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/internal/executor/repository"
)

type fakeNewsSource struct {
	items []dto.NewsItem
	err   error
}

func (f *fakeNewsSource) Fetch(ctx context.Context, query dto.NewsQuery) ([]dto.NewsItem, error) {
	return f.items, f.err
}

// fakeClassifier answers from a map keyed by title.
type fakeClassifier struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeClassifier) Classify(ctx context.Context, title, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, title)
	if err, ok := f.errs[title]; ok {
		return "", err
	}
	if raw, ok := f.responses[title]; ok {
		return raw, nil
	}
	return "", fmt.Errorf("%w: no response for %q", repository.ErrClassifier, title)
}

// fakeNewsStore is an in-memory NewsSentimentRepository keyed by title.
type fakeNewsStore struct {
	rows        []entity.NewsSentiment
	down        bool
	writeDown   bool
	insertCalls int
	inserted    []entity.NewsSentiment
}

func newFakeNewsStore(records ...dto.ClassifiedRecord) *fakeNewsStore {
	store := &fakeNewsStore{}
	for _, r := range records {
		store.rows = append(store.rows, entity.NewsSentiment{Title: r.Title, Summary: r.Summary, Sentiment: r.Sentiment})
	}
	return store
}

func (f *fakeNewsStore) Ping(ctx context.Context) error {
	if f.down {
		return repository.ErrStoreUnavailable
	}
	return nil
}

func (f *fakeNewsStore) AllTitles(ctx context.Context) (map[string]struct{}, error) {
	if f.down {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrStoreUnavailable)
	}
	titles := make(map[string]struct{}, len(f.rows))
	for _, row := range f.rows {
		titles[row.Title] = struct{}{}
	}
	return titles, nil
}

func (f *fakeNewsStore) AllRecords(ctx context.Context) ([]dto.ClassifiedRecord, error) {
	if f.down {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrStoreUnavailable)
	}
	records := make([]dto.ClassifiedRecord, 0, len(f.rows))
	for _, row := range f.rows {
		records = append(records, dto.ClassifiedRecord{Title: row.Title, Summary: row.Summary, Sentiment: row.Sentiment})
	}
	return records, nil
}

func (f *fakeNewsStore) InsertBatch(ctx context.Context, rows []entity.NewsSentiment) (dto.WriteResult, error) {
	f.insertCalls++
	if f.down || f.writeDown {
		return dto.WriteResult{}, repository.ErrStoreUnavailable
	}
	var result dto.WriteResult
	existing, _ := f.AllTitles(ctx)
	for _, row := range rows {
		if _, ok := existing[row.Title]; ok {
			result.Skipped = append(result.Skipped, row.Title)
			continue
		}
		existing[row.Title] = struct{}{}
		f.rows = append(f.rows, row)
		f.inserted = append(f.inserted, row)
		result.Succeeded = append(result.Succeeded, row.Title)
	}
	return result, nil
}

type fakeRunRepo struct {
	runs []*entity.MarketStressRun
}

func (f *fakeRunRepo) Create(ctx context.Context, run *entity.MarketStressRun) error {
	f.runs = append(f.runs, run)
	return nil
}

type fakeCacheRepo struct {
	latest *dto.MarketStressResponse
}

func (f *fakeCacheRepo) SetLatest(ctx context.Context, result dto.MarketStressResponse) error {
	f.latest = &result
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

func positive(title string) dto.ClassifiedRecord {
	return dto.ClassifiedRecord{Title: title, Summary: "resumen " + title, Sentiment: entity.SentimentPositive}
}

func negative(title string) dto.ClassifiedRecord {
	return dto.ClassifiedRecord{Title: title, Summary: "resumen " + title, Sentiment: entity.SentimentNegative}
}

func fencedAnswer(title, label string) string {
	return "```json\n[{\"titulo\": \"" + title + "\", \"resumen\": \"r\", \"sentimiento\": \"" + label + "\"}]\n```"
}
