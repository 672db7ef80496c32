package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang-market-stress/internal/scheduler/dto"
	"golang-market-stress/internal/scheduler/service"
	"golang-market-stress/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarketStressService struct {
	latest    *dto.MarketStressResponse
	runs      []dto.RunHistoryResponse
	news      []dto.NewsSentimentResponse
	err       error
	lastLimit int
}

func (f *fakeMarketStressService) GetLatest(ctx context.Context) (*dto.MarketStressResponse, error) {
	return f.latest, f.err
}

func (f *fakeMarketStressService) GetRuns(ctx context.Context, limit int) ([]dto.RunHistoryResponse, error) {
	f.lastLimit = limit
	return f.runs, f.err
}

func (f *fakeMarketStressService) GetNews(ctx context.Context, limit int) ([]dto.NewsSentimentResponse, error) {
	f.lastLimit = limit
	return f.news, f.err
}

type fakeSchedulerService struct {
	reasons []string
	err     error
}

func (f *fakeSchedulerService) Start(ctx context.Context) error { return nil }

func (f *fakeSchedulerService) TriggerRun(ctx context.Context, reason string) (*dto.TriggerRunResponse, error) {
	f.reasons = append(f.reasons, reason)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.TriggerRunResponse{MessageID: "1-0", Reason: reason, QueuedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}, nil
}

func newTestServer(ms *fakeMarketStressService, sched *fakeSchedulerService) *echo.Echo {
	e := echo.New()
	h := NewMarketStressHandler(ms, sched, logger.NewNop())
	api := e.Group("/api/v1")
	h.RegisterRoutes(api.Group("/market-stress"))
	h.RegisterNewsRoutes(api.Group("/news"))
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestMarketStressHandler_GetLatest(t *testing.T) {
	ms := &fakeMarketStressService{latest: &dto.MarketStressResponse{MarketState: "optimistic", PositiveRatio: 0.75, NegativeRatio: 0.25, TotalRecords: 4}}
	e := newTestServer(ms, &fakeSchedulerService{})

	rec := serve(e, http.MethodGet, "/api/v1/market-stress", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "optimistic", got["market_state"])
	assert.Equal(t, 0.75, got["positive_ratio"])
	assert.Equal(t, 0.25, got["negative_ratio"])
}

func TestMarketStressHandler_GetLatest_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "no result yet", err: service.ErrNoResult, code: http.StatusNotFound},
		{name: "store error", err: errors.New("db down"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestServer(&fakeMarketStressService{err: tt.err}, &fakeSchedulerService{})

			rec := serve(e, http.MethodGet, "/api/v1/market-stress", "")

			assert.Equal(t, tt.code, rec.Code)
			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMarketStressHandler_GetRuns(t *testing.T) {
	ms := &fakeMarketStressService{runs: []dto.RunHistoryResponse{{ID: 1, Status: "done", FailedTitles: []string{}}}}
	e := newTestServer(ms, &fakeSchedulerService{})

	rec := serve(e, http.MethodGet, "/api/v1/market-stress/runs?limit=5", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ms.lastLimit)
	var got []dto.RunHistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestMarketStressHandler_InvalidLimit(t *testing.T) {
	e := newTestServer(&fakeMarketStressService{}, &fakeSchedulerService{})

	for _, target := range []string{"/api/v1/market-stress/runs?limit=abc", "/api/v1/news?limit=-1"} {
		rec := serve(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestMarketStressHandler_GetNews(t *testing.T) {
	ms := &fakeMarketStressService{news: []dto.NewsSentimentResponse{{ID: 1, Title: "Peso gana", Sentiment: "positive"}}}
	e := newTestServer(ms, &fakeSchedulerService{})

	rec := serve(e, http.MethodGet, "/api/v1/news", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ms.lastLimit)
	assert.Contains(t, rec.Body.String(), "Peso gana")
}

func TestMarketStressHandler_TriggerRun(t *testing.T) {
	sched := &fakeSchedulerService{}
	e := newTestServer(&fakeMarketStressService{}, sched)

	rec := serve(e, http.MethodPost, "/api/v1/market-stress/runs", `{"reason": "dashboard"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/market-stress/runs", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	assert.Equal(t, []string{"dashboard", ""}, sched.reasons)
	var got dto.TriggerRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1-0", got.MessageID)
}

func TestMarketStressHandler_TriggerRun_Errors(t *testing.T) {
	e := newTestServer(&fakeMarketStressService{}, &fakeSchedulerService{err: errors.New("redis down")})

	rec := serve(e, http.MethodPost, "/api/v1/market-stress/runs", `{"reason": 5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPost, "/api/v1/market-stress/runs", `{"reason": "x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
