// cmd/edupath-server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"edupath-ksa/internal/advisor"
	"edupath-ksa/internal/api"
	"edupath-ksa/internal/auth"
	"edupath-ksa/internal/common/aws"
	"edupath-ksa/internal/common/camunda"
	"edupath-ksa/internal/common/config"
	"edupath-ksa/internal/common/database"
	"edupath-ksa/internal/common/logger"
	"edupath-ksa/internal/common/observability"
	"edupath-ksa/internal/notify"
	"edupath-ksa/internal/recommender"
	"edupath-ksa/internal/search"
	"edupath-ksa/internal/store"

	srn "edupath-ksa/internal/workers/communication/send-results-notification"
	cum "edupath-ksa/internal/workers/recommendation/calculate-university-match"
	sm "edupath-ksa/internal/workers/advisor/suggest-major"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// checkFunc adapts a health check function to api.Checker.
type checkFunc func(ctx context.Context) error

func (f checkFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml lookup)")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting edupath server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel exporter unavailable, run metrics disabled", zap.Error(err))
	}

	ctx := context.Background()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	rc := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rc.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	zapLog.Info("Redis connected successfully")

	st := store.New(pg.DB, log).
		WithCache(store.NewAttemptCache(rc.Client, config.GetSeconds(cfg.Database.Redis.CacheTTL)))
	if err := st.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}

	catalog, err := recommender.LoadCatalog(cfg.Recommender.CatalogPath)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	engine := recommender.NewEngine(catalog, cfg.Recommender.TopN)
	zapLog.Info("catalog loaded",
		zap.Int("universities", len(catalog.Universities)),
		zap.Int("majors", catalog.MajorCount()),
	)

	checks := map[string]api.Checker{
		"postgres": pg,
		"redis":    rc,
	}

	// --- Elasticsearch (optional) ---
	var primary search.Index
	if cfg.Database.Elasticsearch.Enabled {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(func() error {
				return esClient.Ping(ctx)
			}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		}
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, search answers from memory", zap.Error(err))
		} else {
			index := search.NewESIndex(esClient.Client, cfg.Database.Elasticsearch.Index)
			if err := index.EnsureIndex(ctx); err != nil {
				zapLog.Warn("ensure search index failed", zap.Error(err))
			} else if n, err := index.IndexDocuments(ctx, search.Documents(catalog)); err != nil {
				zapLog.Warn("catalog indexing failed", zap.Error(err), zap.Int("indexed", n))
			} else {
				zapLog.Info("catalog indexed", zap.Int("documents", n))
			}
			primary = index
			checks["elasticsearch"] = esClient
		}
	}
	searcher := search.NewService(primary, catalog, log)

	// --- Advisor ---
	provider, err := advisor.NewProvider(ctx, cfg.APIs)
	if err != nil {
		zapLog.Warn("completion provider unavailable, suggestions use the heuristic", zap.Error(err))
		provider = nil
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	advisorOpts := []advisor.Option{
		advisor.WithCertificates(advisor.NewCertificateStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)),
		advisor.WithRecorder(st),
	}
	if cfg.APIs.Vision.Enabled {
		ocr, err := advisor.NewVisionExtractor(ctx, "")
		if err != nil {
			zapLog.Warn("vision OCR disabled", zap.Error(err))
		} else {
			defer ocr.Close()
			advisorOpts = append(advisorOpts, advisor.WithOCR(ocr))
		}
	}
	adv := advisor.New(provider, log, advisorOpts...)

	// --- Notifications ---
	var (
		emailSender notify.EmailSender
		smsSender   notify.SMSSender
	)
	if cfg.Notifications.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Warn("email notifications disabled", zap.Error(err))
		} else {
			emailSender = ses
		}
	}
	if cfg.Notifications.SMS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
		if err != nil {
			zapLog.Warn("sms notifications disabled", zap.Error(err))
		} else {
			smsSender = sns
		}
	}
	notifier := notify.New(emailSender, smsSender, log)

	tokens := auth.NewTokenManager(cfg.Auth, auth.NewRedisRevocationStore(rc.Client))

	// --- Zeebe workers (optional) ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.Worker
	)
	if cfg.Camunda.Enabled {
		zeebe, err = camunda.NewClient(ctx, cfg.Camunda, camunda.DefaultRetryConfig)
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		checks["zeebe"] = checkFunc(zeebe.HealthCheck)
		zapLog.Info("Zeebe client connected successfully")

		start := func(taskType string, handler camunda.JobHandler) {
			wcfg := config.GetWorkerConfig(cfg, taskType)
			if !wcfg.Enabled {
				zapLog.Info("worker disabled", zap.String("taskType", taskType))
				return
			}
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, wcfg.MaxJobsActive, handler, log))
		}

		start(cum.TaskType, cum.NewHandler(
			cum.LoadConfig(config.GetWorkerConfig(cfg, cum.TaskType)), engine, st, obs, log))
		start(sm.TaskType, sm.NewHandler(
			sm.LoadConfig(config.GetWorkerConfig(cfg, sm.TaskType)), adv, log))
		start(srn.TaskType, srn.NewHandler(
			srn.LoadConfig(config.GetWorkerConfig(cfg, srn.TaskType)), notifier, log))

		zapLog.Info("workers registered", zap.Int("count", len(workers)))
	}

	// --- HTTP API ---
	server := api.NewServer(api.Options{
		Config:        cfg.Server,
		Uploads:       cfg.Uploads,
		Store:         st,
		Engine:        engine,
		Tokens:        tokens,
		Advisor:       adv,
		Search:        searcher,
		Notifier:      notifier,
		Redis:         rc.Client,
		Observability: obs,
		Checks:        checks,
		Logger:        log,
	})
	httpServer := server.HTTPServer()

	go func() {
		zapLog.Info("HTTP API listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("observability shutdown failed", zap.Error(err))
	}

	zapLog.Info("edupath server stopped")
}
