package config

import (
	"time"

	"golang-market-stress/pkg/config"
)

// Executor holds executor-specific configuration.
type Executor struct {
	RedisStreamRunTimeout time.Duration `mapstructure:"redis_stream_run_timeout"`
	RedisStreamBlock      time.Duration `mapstructure:"redis_stream_block"`
}

// NewsSource holds the configuration of the news search provider.
type NewsSource struct {
	// Provider is either "gnews" or "google_rss".
	Provider     string        `mapstructure:"provider"`
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Topic        string        `mapstructure:"topic"`
	Language     string        `mapstructure:"language"`
	Country      string        `mapstructure:"country"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FetchContent bool          `mapstructure:"fetch_content"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Classifier holds the per-call policy of the sentiment classifier.
type Classifier struct {
	Temperature  float32       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// Pipeline holds the market stress pipeline settings.
type Pipeline struct {
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	StoreTimeout  time.Duration `mapstructure:"store_timeout"`
	ResultTTL     time.Duration `mapstructure:"result_ttl"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
	TimeZone string `mapstructure:"time_zone"`
}

// Config holds the full configuration for the executor service.
type Config struct {
	App        config.App      `mapstructure:"app"`
	Logger     config.Logger   `mapstructure:"logger"`
	Database   config.Database `mapstructure:"database"`
	Redis      config.Redis    `mapstructure:"redis"`
	Executor   Executor        `mapstructure:"executor"`
	NewsSource NewsSource      `mapstructure:"news_source"`
	Gemini     Gemini          `mapstructure:"gemini"`
	Classifier Classifier      `mapstructure:"classifier"`
	Pipeline   Pipeline        `mapstructure:"pipeline"`
	Telegram   Telegram        `mapstructure:"telegram"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                          "market-stress-executor",
		"logger.level":                      "info",
		"logger.encoding":                   "json",
		"database.host":                     "localhost",
		"database.port":                     5432,
		"database.user":                     "",
		"database.password":                 "",
		"database.name":                     "fincoach",
		"database.ssl_mode":                 "disable",
		"redis.host":                        "localhost",
		"redis.port":                        6379,
		"redis.password":                    "",
		"redis.stream_max_len":              1000,
		"executor.redis_stream_run_timeout": 10 * time.Minute,
		"executor.redis_stream_block":       2 * time.Second,
		"news_source.provider":              "gnews",
		"news_source.base_url":              "",
		"news_source.api_key":               "",
		"news_source.topic":                 `"Finanzas"`,
		"news_source.language":              "es",
		"news_source.country":               "MX",
		"news_source.max_results":           10,
		"news_source.timeout":               15 * time.Second,
		"news_source.fetch_content":         false,
		"gemini.api_key":                    "",
		"gemini.model":                      "gemini-2.5-flash",
		"gemini.base_url":                   "",
		"gemini.max_request_per_minute":     60,
		"classifier.temperature":            0.1,
		"classifier.timeout":                60 * time.Second,
		"classifier.max_retries":            2,
		"classifier.retry_backoff":          2 * time.Second,
		"pipeline.max_concurrent":           1,
		"pipeline.store_timeout":            30 * time.Second,
		"pipeline.result_ttl":               24 * time.Hour,
		"telegram.bot_token":                "",
		"telegram.chat_id":                  0,
		"telegram.time_zone":                "America/Mexico_City",
	}
}

// Load loads the executor configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	return &cfg, nil
}
