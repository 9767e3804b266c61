// Package main verifies a parsed hospital bill against tie-up rate
// sheets: it indexes the sheets, runs the matching cascade per bill
// line, and prints the verification report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tieup-bill-verifier/internal/config"
	"github.com/tieup-bill-verifier/internal/domain"
	"github.com/tieup-bill-verifier/internal/embedding"
	"github.com/tieup-bill-verifier/internal/matching"
	"github.com/tieup-bill-verifier/internal/reconcile"
	"github.com/tieup-bill-verifier/internal/service"
	"github.com/tieup-bill-verifier/internal/verification"
)

func main() {
	sheetsDir := flag.String("sheets", "data/rate_sheets", "directory of rate sheet JSON files")
	billPath := flag.String("bill", "", "parsed bill JSON file to verify")
	flag.Parse()

	if *billPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := configManager.GetConfig()

	logger := newLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cancelling verification")
		cancel()
	}()

	verifier, embedService, store, err := bootstrap(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to assemble verifier: %v", err)
	}
	defer store.Close()

	sheets, err := service.LoadRateSheets(*sheetsDir)
	if err != nil {
		log.Fatalf("Failed to load rate sheets: %v", err)
	}
	bill, err := service.LoadBill(*billPath)
	if err != nil {
		log.Fatalf("Failed to load bill: %v", err)
	}

	if err := verifier.IndexRateSheets(ctx, sheets); err != nil {
		log.Fatalf("Failed to index rate sheets: %v", err)
	}
	logger.WithField("hospitals", len(sheets)).Info("Rate sheets indexed")

	report, err := verifier.VerifyBill(ctx, bill)
	if err != nil {
		log.Fatalf("Verification failed: %v", err)
	}

	if err := embedService.Flush(); err != nil {
		logger.WithError(err).Warn("Failed to persist embedding cache")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

// bootstrap wires the pipeline from configuration: embedding tiers,
// matcher, verification router, pricing, and the verifier on top.
func bootstrap(cfg *domain.Config, logger *logrus.Logger) (*service.Verifier, *embedding.Service, embedding.Store, error) {
	var (
		store embedding.Store
		err   error
	)
	switch cfg.Cache.Backend {
	case "sqlite":
		store, err = embedding.NewSQLiteStore(cfg.Cache.Path)
	default:
		store, err = embedding.NewFileStore(cfg.Cache.Path)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	var warm *embedding.RedisTier
	if cfg.Cache.RedisURL != "" {
		warm, err = embedding.NewRedisTier(cfg.Cache.RedisURL, cfg.Cache.RedisTTL)
		if err != nil {
			logger.WithError(err).Warn("Redis warm tier unavailable, continuing without it")
			warm = nil
		}
	}

	provider := embedding.NewProvider(embedding.ProviderConfig{
		BaseURL:   cfg.Embedding.BaseURL,
		Model:     cfg.Embedding.Model,
		Timeout:   cfg.Embedding.Timeout,
		RateLimit: cfg.Embedding.RateLimit,
	})
	embedService, err := embedding.NewService(provider, store, warm, embedding.ServiceConfig{
		BatchSize:   cfg.Embedding.BatchSize,
		HotTierSize: cfg.Embedding.HotTierSize,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	matcher := matching.NewMatcher(embedService, &cfg.Matching, cfg.Embedding.Dimension, logger)

	client := verification.NewClient(verification.ClientConfig{
		BaseURL:   cfg.Verification.BaseURL,
		Timeout:   cfg.Verification.Timeout,
		RateLimit: cfg.Verification.RateLimit,
	})
	router, err := verification.NewRouter(client, verification.RouterConfig{
		PrimaryModel:       cfg.Verification.PrimaryModel,
		SecondaryModel:     cfg.Verification.SecondaryModel,
		AutoMatchThreshold: cfg.Matching.AutoMatchThreshold,
		// Auto-reject only below the widest verify band; every pair the
		// calibrator sends for verification must reach a model.
		LowerBound: cfg.Matching.CategoryThreshold - cfg.Matching.VerifyMargin,
		ConfidenceFloor:    cfg.Verification.ConfidenceFloor,
		CacheSize:          cfg.Verification.CacheSize,
	}, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	pricer := reconcile.NewPricer(cfg.Pricing)
	verifier := service.NewVerifier(matcher, router, embedService, pricer, cfg.Matching.MaxParallelItems, logger)
	return verifier, embedService, store, nil
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		logger.SetOutput(os.Stderr)
	}
	return logger
}
