package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clearhours/trackd/internal/api"
	"github.com/clearhours/trackd/internal/classify"
	"github.com/clearhours/trackd/internal/config"
	"github.com/clearhours/trackd/internal/engine"
	"github.com/clearhours/trackd/internal/entry"
	"github.com/clearhours/trackd/internal/estimate"
	"github.com/clearhours/trackd/internal/gate"
	"github.com/clearhours/trackd/internal/health"
	"github.com/clearhours/trackd/internal/metrics"
	"github.com/clearhours/trackd/internal/notify"
	"github.com/clearhours/trackd/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("starting trackd")

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// SQLite store
	db, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("store", func(ctx context.Context) health.Status {
		if err := db.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Prometheus metrics
	collector := metrics.New()

	// Classifier (rules file is optional)
	classifyCfg := classify.Config{
		TenantDomain:   cfg.TenantDomain,
		DefaultProject: cfg.DefaultProject,
		DefaultClient:  cfg.DefaultClient,
	}
	if cfg.RulesPath != "" {
		classifyCfg, err = classify.LoadRules(cfg.RulesPath, classifyCfg)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.RulesPath).Msg("failed to load classifier rules")
		}
		logger.Info().
			Str("path", cfg.RulesPath).
			Int("keyword_rules", len(classifyCfg.KeywordRules)).
			Int("domain_rules", len(classifyCfg.DomainRules)).
			Msg("classifier rules loaded")
	}
	classifier := classify.New(classifyCfg, logger)

	// Estimator with the correction learner
	learner := estimate.NewLearner(logger)
	estimateCfg := estimate.DefaultConfig()
	estimateCfg.ClientDomains = cfg.ClientDomainList()
	estimateCfg.InternalDomain = cfg.TenantDomain
	estimator := estimate.New(estimateCfg, learner, logger)

	// Entry builder
	builder := entry.NewBuilder(entry.BuilderConfig{
		BillableConfidence: cfg.BillableConfidence,
	}, logger)

	// Slack notifier (optional)
	var notifier engine.Notifier
	if cfg.SlackEnabled() {
		notifier = notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger)
		logger.Info().Str("channel", cfg.SlackChannel).Msg("Slack notifications enabled")
	} else {
		logger.Info().Msg("Slack not configured — pending entries reviewed via API only")
	}

	sources := registerSources(cfg, logger)
	if len(sources) == 0 {
		logger.Warn().Msg("no activity sources registered — sync cycles will be empty")
	}

	// Sync engine
	eng := engine.New(engine.Config{
		SyncInterval:       cfg.SyncInterval,
		DefaultLookback:    cfg.DefaultLookback,
		MinDurationMinutes: cfg.MinDurationMinutes,
		ExcludePatterns:    cfg.ExcludePatternList(),
		DisabledSources:    cfg.DisabledSourceList(),
	}, engine.Deps{
		Sources:     sources,
		Classifier:  classifier,
		Estimator:   estimator,
		Learner:     learner,
		Builder:     builder,
		Entries:     db,
		Checkpoints: db,
		Profiles:    db,
		Notifier:    notifier,
		Metrics:     collector,
		Policy: gate.Policy{
			AutoApprove:         cfg.PolicyAutoApprove,
			ConfidenceThreshold: cfg.PolicyConfidenceThreshold,
			RequireApproval:     cfg.PolicyRequireApproval,
		},
	}, logger)

	// Restore the learned correction profile from the store
	if err := eng.RestoreProfile(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to restore correction profile (starting fresh)")
	}

	// API server
	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		AuthConfig: api.AuthConfig{
			Mode:   cfg.AuthMode,
			APIKey: cfg.APIKey,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, eng, checker, collector, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("api server error")
		}
	}()

	if cfg.AutoSyncOnBoot {
		eng.StartAutoSync()
		logger.Info().Dur("interval", cfg.SyncInterval).Msg("auto-sync started")
	}

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")

	cancel()
	eng.StopAutoSync()

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}

	// Wait for in-flight work to complete
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info().Msg("all goroutines stopped")
	case <-time.After(15 * time.Second):
		logger.Warn().Msg("forced shutdown after timeout")
	}

	logger.Info().Msg("trackd stopped")
}
