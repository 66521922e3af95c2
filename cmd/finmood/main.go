package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finmood/internal/cache"
	"finmood/internal/cli"
	"finmood/internal/emotion"
	apphttp "finmood/internal/http"
	"finmood/internal/ledger"
	"finmood/internal/log"
	"finmood/internal/metrics"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

// run wires the server and blocks until it stops. Returning the exit code
// instead of calling os.Exit lets the deferred cleanups run.
func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	m := metrics.New()
	store := cli.InitLedgerStore(logger, cfg.SeedFile)

	ledgerOpts := []ledger.Option{ledger.WithRecorder(m)}
	analyzerOpts := []emotion.AnalyzerOption{emotion.WithRecorder(m)}
	readyChecks := map[string]apphttp.ReadyCheck{}

	amqpClient := cli.InitAMQP(logger, cfg.AMQPURL, cfg.AMQPExchange)
	if amqpClient != nil {
		amqpClient.WithRecorder(m)
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(amqpClient))
		analyzerOpts = append(analyzerOpts, emotion.WithPublisher(amqpClient))
		readyChecks["amqp"] = amqpClient.Healthy
		defer amqpClient.Close()
	}

	ledgerSvc := ledger.NewService(store, ledgerOpts...)

	classifier := emotion.NewClient(emotion.ClientConfig{
		BaseURL: cfg.EmotionAPIURL,
		ModelID: cfg.EmotionModelID,
		Timeout: cfg.EmotionTimeout,
	})
	analyzer := emotion.NewAnalyzer(classifier, emotion.AnalyzerConfig{
		RatePerSecond: cfg.EmotionRatePerSec,
		Burst:         cfg.EmotionBurst,
		CacheSize:     cfg.EmotionCacheSize,
		CacheTTL:      cfg.EmotionCacheTTL,
	}, analyzerOpts...)

	caches := cache.NewManager()
	if c := analyzer.Cache(); c != nil {
		caches.Register(c)
	}
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Metrics:            m,
		ReadyChecks:        readyChecks,
	}, ledgerSvc, analyzer)

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finmood server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"emotion_api", cfg.EmotionAPIURL,
			"amqp_enabled", amqpClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		return 1
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
	return 0
}
