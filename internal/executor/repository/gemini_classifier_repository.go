package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang-market-stress/internal/executor/config"
	"golang-market-stress/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiClassifierRepository classifies news sentiment with the Gemini API.
type geminiClassifierRepository struct {
	genAiClient    *genai.Client
	model          string
	temperature    float32
	timeout        time.Duration
	maxRetries     int
	retryBackoff   time.Duration
	requestLimiter *rate.Limiter
	logger         *logger.Logger
}

// NewGeminiClassifierRepository creates a SentimentClassifierRepository backed by Gemini.
func NewGeminiClassifierRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (SentimentClassifierRepository, error) {
	if genAiClient == nil {
		return nil, errors.New("gemini client is required")
	}
	if cfg.Gemini.Model == "" {
		return nil, errors.New("gemini model is required")
	}

	limit := rate.Inf
	if cfg.Gemini.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute))
	}

	return &geminiClassifierRepository{
		genAiClient:    genAiClient,
		model:          cfg.Gemini.Model,
		temperature:    cfg.Classifier.Temperature,
		timeout:        cfg.Classifier.Timeout,
		maxRetries:     cfg.Classifier.MaxRetries,
		retryBackoff:   cfg.Classifier.RetryBackoff,
		requestLimiter: rate.NewLimiter(limit, 1),
		logger:         log,
	}, nil
}

// Classify sends one news item to Gemini and returns the raw text answer.
// Transient failures are retried; anything else fails the item immediately.
func (r *geminiClassifierRepository) Classify(ctx context.Context, title, description string) (string, error) {
	prompt := BuildSentimentPrompt(title, description)

	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * r.retryBackoff
			r.logger.Warn("Retrying classification",
				logger.StringField("title", title),
				logger.IntField("attempt", attempt),
				logger.DurationField("backoff", backoff),
				logger.ErrorField(lastErr),
			)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrClassifier, ctx.Err())
			case <-time.After(backoff):
			}
		}

		text, err := r.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isTransient(ctx, err) {
			break
		}
	}

	return "", fmt.Errorf("%w: %v", ErrClassifier, lastErr)
}

func (r *geminiClassifierRepository) generate(ctx context.Context, prompt string) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("failed to wait for request limit: %w", err)
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.genAiClient.Models.GenerateContent(callCtx, r.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SentimentSystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(r.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("invalid response from Gemini API: no content found")
	}
	return text, nil
}

// isTransient reports whether a failed call is worth retrying: per-call timeouts,
// rate limiting and server-side errors. The parent context being done is never transient.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}
