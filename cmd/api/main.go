package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/codelens-ai/codelens/internal/application"
	appanalysis "github.com/codelens-ai/codelens/internal/application/analysis"
	appenrichment "github.com/codelens-ai/codelens/internal/application/enrichment"
	"github.com/codelens-ai/codelens/internal/config"
	domanalysis "github.com/codelens-ai/codelens/internal/domain/analysis"
	"github.com/codelens-ai/codelens/internal/infra/ai/openai"
	"github.com/codelens-ai/codelens/internal/infra/analyzers"
	"github.com/codelens-ai/codelens/internal/infra/fsreader"
	"github.com/codelens-ai/codelens/internal/infra/httpserver"
	"github.com/codelens-ai/codelens/internal/logging"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}

	logging.Init(cfg.Logging.Level, cfg.Logging.Format)

	clock := application.SystemClock{}

	// Fixed pass order; buckets are built per run from the selected files.
	registered := []domanalysis.Analyzer{
		analyzers.NewESLint(cfg.Analyzers.ESLintConfig),
		analyzers.NewBandit(),
		analyzers.NewPattern(),
		analyzers.NewSemgrep(cfg.Analyzers.SemgrepRules...),
	}

	analysisSvc := appanalysis.NewService(
		appanalysis.NewRunStore(),
		registered,
		clock,
		appanalysis.Config{
			MaxFiles:     cfg.Analysis.MaxFiles,
			PollInterval: cfg.Analysis.PollInterval.Std(),
			PassTimeout:  cfg.Analysis.PassTimeout.Std(),
		},
	)

	client := openai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.GenerateTimeout.Std())

	enrichmentSvc := appenrichment.NewService(
		appenrichment.NewBatchStore(),
		client,
		fsreader.New(),
		clock,
		appenrichment.Config{
			MaxConcurrent:   cfg.AI.MaxConcurrent,
			CacheTTL:        cfg.AI.CacheTTL.Std(),
			GenerateTimeout: cfg.AI.GenerateTimeout.Std(),
			Temperature:     cfg.AI.Temperature,
			MaxTokens:       cfg.AI.MaxTokens,
		},
	)

	// Periodic eviction keeps memory bounded for long-lived processes.
	// Ended batches are retained for a day; the result cache has its own TTL.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			enrichmentSvc.EvictStale(cfg.AI.BatchRetention.Std())
		}
	}()

	handler := httpserver.NewRouter(analysisSvc, enrichmentSvc, client, httpserver.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.PerSecond,
		RateBurst:      cfg.RateLimit.Burst,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logrus.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("shutdown error: %v", err)
	}
}
