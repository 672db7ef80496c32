package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-market-stress/internal/executor/config"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/pkg/logger"
	"golang-market-stress/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

const googleRSSProvider = "google_rss"

// googleNewsRSSRepository reads the Google News RSS search feed.
type googleNewsRSSRepository struct {
	client       *http.Client
	baseURL      string
	timeout      time.Duration
	fetchContent bool
	logger       *logger.Logger
}

// NewGoogleNewsRSSRepository creates a NewsSourceRepository backed by Google News RSS.
func NewGoogleNewsRSSRepository(cfg config.NewsSource, log *logger.Logger, client *http.Client) NewsSourceRepository {
	if client == nil {
		client = &http.Client{}
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://news.google.com/rss"
	}
	return &googleNewsRSSRepository{
		client:       client,
		baseURL:      baseURL,
		timeout:      cfg.Timeout,
		fetchContent: cfg.FetchContent,
		logger:       log,
	}
}

func (r *googleNewsRSSRepository) feedURL(query dto.NewsQuery) string {
	params := url.Values{}
	params.Set("q", query.Topic)
	if query.Language != "" {
		hl := query.Language
		if query.Country != "" {
			hl = fmt.Sprintf("%s-%s", query.Language, query.Country)
			params.Set("gl", query.Country)
			params.Set("ceid", fmt.Sprintf("%s:%s", query.Country, query.Language))
		}
		params.Set("hl", hl)
	}
	return r.baseURL + "/search?" + params.Encode()
}

// Fetch parses the feed and returns at most query.MaxResults items in feed order.
func (r *googleNewsRSSRepository) Fetch(ctx context.Context, query dto.NewsQuery) ([]dto.NewsItem, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feedURL := r.feedURL(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create rss request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; market-stress/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Error("Failed to fetch RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Error("Received non-OK response from RSS feed", logger.IntField("status_code", resp.StatusCode))
		return nil, &UpstreamError{Provider: googleRSSProvider, StatusCode: resp.StatusCode}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		r.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
		return nil, fmt.Errorf("%w: failed to parse rss feed: %v", ErrSourceUnavailable, err)
	}

	items := make([]dto.NewsItem, 0, len(feed.Items))
	for _, feedItem := range feed.Items {
		if query.MaxResults > 0 && len(items) >= query.MaxResults {
			break
		}
		if strings.TrimSpace(feedItem.Title) == "" {
			continue
		}

		item := dto.NewsItem{
			Title:       feedItem.Title,
			Description: htmlToText(feedItem.Description),
			URL:         feedItem.Link,
			PublishedAt: feedItem.PublishedParsed,
			SourceName:  sourceName(feedItem),
		}

		if item.Description == "" && r.fetchContent && item.URL != "" {
			content, err := r.fetchArticleContent(ctx, item.URL)
			if err != nil {
				r.logger.Warn("Failed to fetch article content", logger.ErrorField(err), logger.StringField("url", item.URL))
			} else {
				item.Description = content
			}
		}

		items = append(items, item)
	}

	r.logger.Info("Fetched news from RSS feed",
		logger.StringField("topic", query.Topic),
		logger.IntField("count", len(items)),
	)
	return items, nil
}

// fetchArticleContent downloads the article page and extracts its readable text.
func (r *googleNewsRSSRepository) fetchArticleContent(ctx context.Context, articleURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request for article: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch article, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read article body: %w", err)
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse article: %w", err)
	}

	return utils.Truncate(htmlToText(doc.Content()), 2000), nil
}

// htmlToText strips markup from a feed description.
func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(fragment)))
	if err != nil {
		return utils.SafeText(fragment)
	}
	return utils.SafeText(doc.Text())
}

func sourceName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	if u, err := url.Parse(item.Link); err == nil {
		return u.Hostname()
	}
	return ""
}
