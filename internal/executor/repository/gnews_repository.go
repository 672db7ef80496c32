package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang-market-stress/internal/executor/config"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/logger"
	"golang-market-stress/pkg/utils"
)

const (
	gnewsProvider       = "gnews"
	gnewsDefaultBaseURL = "https://gnews.io/api/v4"
)

// gnewsRepository queries the GNews search API.
type gnewsRepository struct {
	client  *http.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	logger  *logger.Logger
}

// NewGNewsRepository creates a NewsSourceRepository backed by the GNews API.
func NewGNewsRepository(cfg config.NewsSource, log *logger.Logger, client *http.Client) NewsSourceRepository {
	if client == nil {
		client = &http.Client{}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = gnewsDefaultBaseURL
	}
	return &gnewsRepository{
		client:  client,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		logger:  log,
	}
}

// Fetch runs one search request. Non-200 answers come back as *UpstreamError.
func (r *gnewsRepository) Fetch(ctx context.Context, query dto.NewsQuery) ([]dto.NewsItem, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("q", query.Topic)
	if query.Language != "" {
		params.Set("lang", query.Language)
	}
	if query.MaxResults > 0 {
		params.Set("max", strconv.Itoa(query.MaxResults))
	}
	params.Set("apikey", r.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gnews request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Failed to call GNews", logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		upstreamErr := &UpstreamError{Provider: gnewsProvider, StatusCode: resp.StatusCode}
		var errResp dto.GNewsErrorResponse
		if json.Unmarshal(body, &errResp) == nil && len(errResp.Errors) > 0 {
			upstreamErr.Body = strings.Join(errResp.Errors, "; ")
		}
		r.logger.Error("Received non-OK response from GNews", logger.IntField("status_code", resp.StatusCode))
		return nil, upstreamErr
	}

	var searchResp dto.GNewsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode gnews response: %v", ErrSourceUnavailable, err)
	}

	items := make([]dto.NewsItem, 0, len(searchResp.Articles))
	for _, article := range searchResp.Articles {
		// Titles are the deduplication key and are kept byte-for-byte.
		if strings.TrimSpace(article.Title) == "" {
			continue
		}
		item := dto.NewsItem{
			Title:       article.Title,
			Description: utils.SafeText(article.Description),
			URL:         article.URL,
			SourceName:  article.Source.Name,
		}
		if publishedAt, ok := utils.ParseFlexibleTime(article.PublishedAt); ok {
			item.PublishedAt = publishedAt
		}
		items = append(items, item)
	}

	r.logger.Info("Fetched news from GNews",
		logger.StringField("topic", query.Topic),
		logger.IntField("count", len(items)),
	)
	return items, nil
}
