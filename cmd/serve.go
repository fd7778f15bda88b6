// Package cmd holds the huddled subcommands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/KarthikeyanM3011/Hudle.ai/config"
	"github.com/KarthikeyanM3011/Hudle.ai/internal/httpapi"
	"github.com/KarthikeyanM3011/Hudle.ai/migrations"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/audit"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/coach"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/db"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/dedup"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/llm"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/logging"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/meetings"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/observability"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/profiles"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/storage"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/stt"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/tts"
	"github.com/KarthikeyanM3011/Hudle.ai/pkg/turns"
)

const metricsNamespace = "huddle"

// NewServeCommand returns the command that runs the API server.
func NewServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coaching platform API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending database migrations before serving")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	logger := logging.NewLogger(&logging.Config{
		Level:       logging.Level(cfg.Logging.Level),
		ServiceName: "huddled",
		Environment: cfg.Logging.Environment,
		JSONFormat:  cfg.Logging.JSONFormat,
	})

	dbCfg := db.FromAppConfig(cfg.Database)
	pool, err := db.ConnectWithRetry(ctx, dbCfg, 5, 2*time.Second)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close(pool)

	if migrate {
		result, err := db.RunMigrations(ctx, pool, migrations.FS)
		if err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		logger.Info("Migrations applied", logging.F("applied", len(result.Applied)))
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	if _, err := db.RegisterPoolStatsCollector(pool, metricsNamespace, registry); err != nil {
		logger.Warn("Failed to register pool metrics", logging.Err(err))
	}
	pipelineMetrics := observability.NewMetrics(metricsNamespace, registry)

	meetingRepo := storage.NewMeetingRepository(pool, logger)
	profileRepo := storage.NewProfileRepository(pool, logger)
	turnRepo := storage.NewTurnRepository(pool, logger)

	var llmClient *llm.Client
	if cfg.LLM.BaseURL != "" {
		llmClient = llm.NewClient(cfg.LLM, logger)
	} else {
		logger.Warn("LLM endpoint not configured, coach responses will use fallbacks")
	}

	var completer coach.Completer
	if llmClient != nil {
		completer = llmClient
	}
	generator := coach.NewGenerator(completer, logger)
	summarizer := llm.NewSummarizer(llmClient, logger)

	recorder, err := audit.Open(dbCfg, logger)
	if err != nil {
		logger.Warn("Turn audit disabled", logging.Err(err))
		recorder = nil
	}
	defer func() { _ = recorder.Close() }()

	orchestrator := turns.NewOrchestrator(turns.Params{
		Meetings:    meetingRepo,
		Profiles:    profileRepo,
		Turns:       turnRepo,
		Transcriber: stt.NewClient(cfg.Deepgram, logger),
		Responder:   generator,
		Synthesizer: tts.NewClient(cfg.Deepgram, logger),
		Guard:       dedup.NewGuard(redisClient, logger),
		Recorder:    recorder,
		Metrics:     pipelineMetrics,
		Logger:      logger,
	})

	server := httpapi.NewServer(httpapi.Params{
		Users:        storage.NewUserRepository(pool, logger),
		Profiles:     profiles.NewService(profileRepo, logger),
		Meetings:     meetings.NewService(meetingRepo, profileRepo, summarizer, logger),
		Orchestrator: orchestrator,
		Health: func(ctx context.Context) error {
			status := db.Check(ctx, pool)
			if status.Error != nil {
				return status.Error
			}
			logger.Debug("Database health check",
				logging.F("latency_ms", status.Latency.Milliseconds()),
				logging.F("total_conns", status.TotalConns),
				logging.F("idle_conns", status.IdleConns),
				logging.F("acquired_conns", status.AcquiredConns))
			return nil
		},
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", logging.F("addr", cfg.Server.ListenAddr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
