// cmd/concierge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"brewscout/internal/common/config"
	"brewscout/internal/common/database"
	"brewscout/internal/common/logger"
	"brewscout/internal/common/observability"
	"brewscout/internal/genai"
	"brewscout/internal/models"
	"brewscout/internal/orchestrator"
	"brewscout/internal/providers/discovery"
	"brewscout/internal/providers/enrichment"
	"brewscout/internal/providers/profile"
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

func main() {
	callerID := flag.String("caller", "CLT-001", "authenticated caller identifier")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting concierge...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
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

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init external collaborators ---
	genaiClient := genai.NewClient(genai.Config{
		BaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:  cfg.APIs.GenAI.APIKey,
		Model:   cfg.APIs.GenAI.Model,
		Timeout: time.Duration(cfg.APIs.GenAI.Timeout) * time.Millisecond,
	}, log)

	embedClient := genai.NewEmbedClient(genai.EmbedConfig{
		BaseURL:   cfg.APIs.Embeddings.BaseURL,
		Model:     cfg.APIs.Embeddings.Model,
		Dimension: cfg.APIs.Embeddings.Dimension,
		Timeout:   time.Duration(cfg.APIs.Embeddings.Timeout) * time.Millisecond,
	}, log)

	venues := discovery.NewProvider(discovery.Config{
		BaseURL:    cfg.APIs.Directory.BaseURL,
		PageSize:   cfg.APIs.Directory.PageSize,
		Timeout:    time.Duration(cfg.APIs.Directory.Timeout) * time.Millisecond,
		MaxResults: cfg.APIs.Directory.MaxResults,
	}, log)

	cache := enrichment.NewCache(enrichment.CacheConfig{
		TTLDays:             cfg.Cache.TTLDays,
		SimilarityThreshold: cfg.Cache.SimilarityThreshold,
		KeyPrefix:           cfg.Cache.KeyPrefix,
	}, embedClient, redisClient, log)
	if err := cache.Load(ctx); err != nil {
		zapLog.Warn("cache index load failed, starting empty", zap.Error(err))
	}

	enricher := enrichment.NewProvider(cache, genaiClient, log)
	profiles := profile.NewProvider(pg.DB, genaiClient, log)

	input := newLineSource(os.Stdin)
	confirmer := newStdinConfirmer(input.lines, os.Stdout)

	orch := orchestrator.New(cfg.Orchestrator, profiles, venues, enricher, confirmer, obs, log)

	// --- Metrics endpoint ---
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics endpoint listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, mux); err != nil {
			zapLog.Warn("metrics endpoint stopped", zap.Error(err))
		}
	}()

	// --- Graceful shutdown on signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		zapLog.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		os.Exit(0)
	}()

	runLoop(ctx, orch, profiles, cache, input, *callerID)
}

// runLoop is the interactive session. Plain messages run a recommendation
// plan; /ask routes an analytical question, /stats prints the cache index
// composition, /quit exits.
func runLoop(ctx context.Context, orch *orchestrator.Orchestrator, profiles *profile.Provider, cache *enrichment.Cache, input *lineSource, callerID string) {
	fmt.Printf("Signed in as %s. Ask me for somewhere new, /ask <question> for your data, /quit to leave.\n", callerID)

	var turns []models.Turn
	for {
		fmt.Print("you> ")
		line, ok := input.Next()
		if !ok {
			return
		}

		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/stats":
			stats := cache.Stats(time.Now())
			fmt.Printf("cache: %d entries (%d fresh, %d stale), ttl %d days\n",
				stats.Total, stats.Fresh, stats.Stale, stats.TTLDays)
		case strings.HasPrefix(line, "/ask "):
			printAnalytical(ctx, profiles, strings.TrimPrefix(line, "/ask "), callerID)
		default:
			result := orch.RunPlan(ctx, callerID, line, turns)
			turns = result.Turns
			fmt.Println(result.Reply)
			fmt.Printf("(run %s: %s in %s, cache hit rate %s)\n",
				result.RunID[:8], result.Status,
				result.Metrics.TotalElapsed.Round(time.Millisecond),
				result.Metrics.CacheHitRate)
		}
	}
}

func printAnalytical(ctx context.Context, profiles *profile.Provider, question, callerID string) {
	result, err := profiles.RunAnalyticalQuery(ctx, question, callerID)
	if err != nil {
		fmt.Printf("Sorry, I can't answer that: %v\n", err)
		return
	}

	fmt.Printf("(%s result, %d rows)\n", result.Kind, len(result.Rows))
	for _, row := range result.Rows {
		parts := make([]string, 0, len(row))
		for col, val := range row {
			parts = append(parts, fmt.Sprintf("%s=%v", col, val))
		}
		fmt.Println("  " + strings.Join(parts, "  "))
	}
}
