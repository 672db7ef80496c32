package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang-market-stress/internal/executor/config"
	"golang-market-stress/internal/executor/delivery/consumer"
	"golang-market-stress/internal/executor/dto"
	"golang-market-stress/internal/executor/repository"
	"golang-market-stress/internal/executor/service"
	"golang-market-stress/pkg/common"
	"golang-market-stress/pkg/logger"
	"golang-market-stress/pkg/postgres"
	"golang-market-stress/pkg/redis"
	"golang-market-stress/pkg/telegram"

	"github.com/spf13/cobra"
	"google.golang.org/genai"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the execution service and consumes run triggers",
	Run:   runServe,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Runs the market stress pipeline once and prints the result",
	Run:   runOnce,
}

// application holds the clients shared by both commands.
type application struct {
	cfg             *config.Config
	logger          *logger.Logger
	db              *postgres.DB
	redisClient     *redis.Client
	marketStressSvc service.MarketStressService
}

func (a *application) close() {
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if sqlDB, err := a.db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

// bootstrap wires the pipeline. With requireRedis false an unreachable Redis
// only disables the result cache.
func bootstrap(ctx context.Context, requireRedis bool) *application {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.Info("Starting Execution Service", logger.Field("name", cfg.App.Name))

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		if requireRedis {
			appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
		}
		appLogger.Warn("Redis unavailable, result cache disabled", logger.ErrorField(err))
		redisClient = nil
	}

	httpClient := &http.Client{}
	var newsSource repository.NewsSourceRepository
	switch cfg.NewsSource.Provider {
	case "gnews":
		newsSource = repository.NewGNewsRepository(cfg.NewsSource, appLogger, httpClient)
	case "google_rss":
		newsSource = repository.NewGoogleNewsRSSRepository(cfg.NewsSource, appLogger, httpClient)
	default:
		appLogger.Fatal("Invalid news source provider specified in config", logger.StringField("provider", cfg.NewsSource.Provider))
	}

	genAiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.Gemini.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.Gemini.BaseURL},
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini AI client", logger.ErrorField(err))
	}
	classifier, err := repository.NewGeminiClassifierRepository(cfg, appLogger, genAiClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini classifier repository", logger.ErrorField(err))
	}

	newsRepo := repository.NewNewsSentimentRepository(db.DB, appLogger)
	runRepo := repository.NewMarketStressRunRepository(db.DB)

	var cacheRepo repository.MarketStressCacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewMarketStressCacheRepository(redisClient.Client, cfg.Pipeline.ResultTTL)
	}

	var notifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Warn("Telegram notifier disabled", logger.ErrorField(err))
			notifier = nil
		}
	}

	marketStressSvc := service.NewMarketStressService(cfg, appLogger, newsSource, classifier, newsRepo, runRepo, cacheRepo, notifier)

	return &application{
		cfg:             cfg,
		logger:          appLogger,
		db:              db,
		redisClient:     redisClient,
		marketStressSvc: marketStressSvc,
	}
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := bootstrap(ctx, true)
	defer app.close()

	if err := app.redisClient.EnsureGroup(ctx, common.RedisStreamMarketStressRun, common.RedisStreamGroup); err != nil {
		app.logger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	executorSvc := service.NewExecutorService(app.redisClient.Client, app.marketStressSvc, app.logger, app.cfg.Executor.RedisStreamBlock)

	redisConsumer := consumer.NewRedisConsumer(app.cfg, executorSvc, app.logger)
	redisConsumer.Start(ctx)

	app.logger.Info("Execution service started. Waiting for run triggers...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.logger.Info("Shutting down execution service...")
	cancel()
	redisConsumer.Stop()
	app.logger.Info("Execution service stopped.")
}

func runOnce(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := bootstrap(ctx, false)
	defer app.close()

	report, err := app.marketStressSvc.Run(ctx)
	if err != nil {
		app.logger.Error("Market stress run failed",
			logger.ErrorField(err),
			logger.StringField("failed_stage", string(report.FailedStage)),
		)
		app.close()
		os.Exit(1)
	}

	app.logger.Info("Market stress run completed", logger.DurationField("duration", report.Duration))

	output := struct {
		MarketState   string  `json:"market_state"`
		PositiveRatio float64 `json:"positive_ratio"`
		NegativeRatio float64 `json:"negative_ratio"`
	}{
		MarketState:   string(report.Result.MarketState),
		PositiveRatio: report.Result.PositiveRatio,
		NegativeRatio: report.Result.NegativeRatio,
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		app.logger.Error("Failed to print result", logger.ErrorField(err))
	}
	printWarnings(report)
}

func printWarnings(report dto.RunReport) {
	if report.SourceError != "" {
		fmt.Fprintf(os.Stderr, "warning: news source unavailable: %s\n", report.SourceError)
	}
	if report.WriteError != "" {
		fmt.Fprintf(os.Stderr, "warning: %d fresh records not persisted: %s\n", len(report.Write.Failed), report.WriteError)
	}
}

func main() {
	rootCmd := &cobra.Command{Use: "execution-service"}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config-executor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, runCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing execution-service CLI: %s\n", err)
		os.Exit(1)
	}
}
