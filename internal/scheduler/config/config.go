package config

import (
	"time"

	"golang-market-stress/pkg/config"
)

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	CronExpression string        `mapstructure:"cron_expression"`
	TimeZone       string        `mapstructure:"time_zone"`
	RunOnStart     bool          `mapstructure:"run_on_start"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// Config holds the full configuration for the scheduler service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                  "market-stress-scheduler",
		"logger.level":              "info",
		"logger.encoding":           "json",
		"database.host":             "localhost",
		"database.port":             5432,
		"database.user":             "",
		"database.password":         "",
		"database.name":             "fincoach",
		"database.ssl_mode":         "disable",
		"redis.host":                "localhost",
		"redis.port":                6379,
		"redis.password":            "",
		"redis.stream_max_len":      1000,
		"api.port":                  8080,
		"scheduler.cron_expression": "@every 1h",
		"scheduler.time_zone":       "UTC",
		"scheduler.run_on_start":    false,
		"scheduler.cache_ttl":       time.Minute,
	}
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, defaults()); err != nil {
		return nil, err
	}
	return &cfg, nil
}
