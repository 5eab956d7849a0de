// cmd/sneakscout/main.go
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"sneakscout/internal/common/config"
	"sneakscout/internal/common/database"
	"sneakscout/internal/common/logger"
	"sneakscout/internal/common/observability"
	"sneakscout/internal/models"
	"sneakscout/internal/orchestrator"
	"sneakscout/internal/pipeline"
	"sneakscout/internal/search"
	"sneakscout/internal/sink"
	"sneakscout/internal/stores"
	"sneakscout/internal/vision"
	"sneakscout/internal/workers/htmlstore"
)

var (
	flagBrand   string
	flagModel   string
	flagSize    string
	flagOutput  string
	flagStores  []string
	flagServe   bool
	flagMetrics string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sneakscout",
		Short: "Multi-storefront sneaker listing search",
	}

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Run one search across every registered storefront",
		RunE:  runSearch,
	}
	searchCmd.Flags().StringVar(&flagBrand, "brand", "", "brand to search for")
	searchCmd.Flags().StringVar(&flagModel, "model", "", "model to search for")
	searchCmd.Flags().StringVar(&flagSize, "size", models.SizeWildcard, "size filter, * for any")
	searchCmd.Flags().StringVar(&flagOutput, "output", "", "run record path, overrides config")
	searchCmd.Flags().StringSliceVar(&flagStores, "stores", nil, "store allowlist, overrides config")
	searchCmd.Flags().BoolVar(&flagServe, "serve-metrics", false, "keep the health/metrics server up after the run")
	searchCmd.Flags().StringVar(&flagMetrics, "metrics-addr", ":8080", "health/metrics listen address")
	searchCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(searchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// retryWithBackoff attempts an operation with exponential backoff.
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

func runSearch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting sneakscout search",
		zap.String("brand", flagBrand),
		zap.String("model", flagModel),
		zap.String("size", flagSize),
	)

	obs := observability.New("sneakscout")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store registry ---
	registry, err := stores.LoadRegistry(cfg.Stores.RegistryPath)
	if err != nil {
		return fmt.Errorf("store registry: %w", err)
	}
	allowlist := cfg.Stores.Allowlist
	if len(flagStores) > 0 {
		allowlist = flagStores
	}
	definitions := registry.EnabledStores(allowlist)
	zapLog.Info("Store registry loaded", zap.Int("enabledStores", len(definitions)))

	// --- Optional Redis (verification cache) ---
	var visionCache vision.Cache
	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err := retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 3, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, verification cache falls back to memory", zap.Error(err))
		} else {
			defer redis.Close()
			visionCache = vision.NewRedisCache(redis.Client, "")
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Optional Postgres (run history sink) ---
	var pgSink *sink.PostgresSink
	if cfg.Database.Postgres.Enabled {
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 3, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Warn("postgres unavailable, run history disabled", zap.Error(err))
		} else {
			defer pg.Close()
			pgSink = sink.NewPostgresSink(pg.DB, log)
			if err := pgSink.EnsureSchema(ctx); err != nil {
				zapLog.Warn("postgres schema setup failed, run history disabled", zap.Error(err))
				pgSink = nil
			} else {
				zapLog.Info("PostgreSQL connected successfully")
			}
		}
	}

	// --- Optional Elasticsearch (item export) ---
	var esSink *sink.ElasticSink
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 3, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, item export disabled", zap.Error(err))
		} else {
			esSink = sink.NewElasticSink(esClient.Client, cfg.Database.Elasticsearch.IndexPrefix, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Vision classifier ---
	var classifier vision.Classifier
	if cfg.Vision.BaseURL != "" {
		classifier = vision.NewHTTPClassifier(
			cfg.Vision.BaseURL,
			cfg.Vision.APIKey,
			time.Duration(cfg.Vision.Timeout)*time.Millisecond,
			log,
		)
	} else {
		zapLog.Info("No vision endpoint configured, visual verification disabled")
	}
	verifier := vision.NewVerifier(classifier, visionCache, time.Duration(cfg.Vision.CacheTTL)*time.Hour, log)

	// --- Validation pipeline ---
	probeTimeout := time.Duration(cfg.Pipeline.ProbeTimeout) * time.Second
	pl := pipeline.New(
		pipeline.NewValidator(cfg.Pipeline.MenMatchOnUnmarked, log),
		pipeline.NewNormalizer(log),
		verifier,
		pipeline.NewQAChecker(cfg.Pipeline.MaxPrice, newProber(probeTimeout), log),
		pipeline.NewFormatter(cfg.Pipeline.TitleBudget, registry.Labels()),
		log,
	)

	// --- Worker fleet ---
	scrapeTimeout := time.Duration(cfg.Search.ScrapeTimeout) * time.Second
	fleet := make([]orchestrator.Worker, 0, len(definitions))
	for _, def := range definitions {
		fleet = append(fleet, htmlstore.New(def, scrapeTimeout, log))
	}

	// --- Sinks wired to the event stream ---
	outputPath := cfg.Output.Path
	if flagOutput != "" {
		outputPath = flagOutput
	}
	fileSink := sink.NewFileSink(outputPath, log)

	query := models.Query{Brand: flagBrand, Model: flagModel, Size: flagSize}
	searchTerm := query.Brand + " " + query.Model

	bus := orchestrator.NewEventBus()
	agg := orchestrator.NewAggregator()

	planner := search.NewPlanner(log)
	orch := orchestrator.New(fleet, planner, pl, bus, agg, orchestrator.Options{
		BatchSize:     cfg.Search.BatchSize,
		BatchCooldown: time.Duration(cfg.Search.BatchCooldown) * time.Second,
		ScrapeTimeout: scrapeTimeout,
		MaxConcurrent: cfg.Search.MaxConcurrent,
		DispatchRate:  rate.Limit(cfg.Search.DispatchPerSec),
	}, log)

	progress := newProgressWriter(fileSink, pgSink, esSink, agg, query, searchTerm, cfg.Output.WritePartials, log)
	bus.Subscribe(progress.onEvent)

	// --- Health & Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
		})
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", flagMetrics))
		if err := http.ListenAndServe(flagMetrics, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Run the search ---
	summary, err := orch.StartSearch(ctx, query)
	if err != nil {
		return err
	}

	if err := progress.writeFinal(ctx, summary); err != nil {
		zapLog.Error("final run record write failed", zap.Error(err))
	}

	obs.RecordRunCompleted(ctx, len(summary.Results))
	obs.RecordRunDuration(ctx, summary.Duration, len(summary.Results))

	if len(summary.Results) == 0 {
		zapLog.Warn("Search completed with zero results",
			zap.String("searchTerm", searchTerm),
			zap.Duration("duration", summary.Duration),
		)
	} else {
		zapLog.Info("Search completed",
			zap.String("searchTerm", searchTerm),
			zap.Int("results", len(summary.Results)),
			zap.Duration("duration", summary.Duration),
		)
	}

	if flagServe {
		zapLog.Info("Run finished, serving metrics until interrupted")
		<-ctx.Done()
	}
	return nil
}
