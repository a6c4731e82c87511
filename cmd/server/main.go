package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zEUsEleven11/Flight-Sight/internal/api"
	"github.com/zEUsEleven11/Flight-Sight/internal/cache"
	"github.com/zEUsEleven11/Flight-Sight/internal/fares"
	"github.com/zEUsEleven11/Flight-Sight/internal/storage"
	"github.com/zEUsEleven11/Flight-Sight/internal/suggest"
	"github.com/zEUsEleven11/Flight-Sight/internal/trip"
)

// sweepInterval is how often the in-memory cache reclaims expired entries.
const sweepInterval = time.Hour

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(log); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// locationCache is the cache surface the rest of the service needs,
// satisfied by both backends.
type locationCache interface {
	trip.LocationCache
	Ping(ctx context.Context) error
}

func run(log *slog.Logger) error {
	databaseURL := mustEnv("DATABASE_URL")
	bearerToken := mustEnv("BEARER_TOKEN")
	geminiKey := mustEnv("GEMINI_API_KEY")
	amadeusID := mustEnv("AMADEUS_CLIENT_ID")
	amadeusSecret := mustEnv("AMADEUS_CLIENT_SECRET")
	redisURL := os.Getenv("REDIS_URL")
	port := getEnv("PORT", "8080")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to PostgreSQL.
	pool, err := storage.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Run migrations.
	migrationsDir := "migrations"
	if err := storage.RunMigrations(ctx, pool, migrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("migrations applied")

	// Pick the cache backend: Redis when configured, otherwise in-memory
	// with a periodic sweep for memory reclamation.
	var cacheLayer locationCache
	if redisURL != "" {
		redisClient, err := cache.Connect(ctx, redisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer func() { _ = redisClient.Close() }()
		cacheLayer = cache.NewRedis(redisClient)
		log.Info("using redis location cache")
	} else {
		mem := cache.NewMemory()
		go sweepLoop(ctx, mem, log)
		cacheLayer = mem
		log.Info("using in-memory location cache")
	}

	// Wire dependencies.
	fareClient := fares.NewClient(amadeusID, amadeusSecret)
	suggestClient := suggest.NewClient(geminiKey)
	recommender := trip.NewService(suggestClient, fareClient, log)
	searcher := trip.NewSearcher(cacheLayer, fareClient, log)
	repo := storage.NewRepository(pool)
	handlers := api.NewHandlers(recommender, searcher, repo, log)

	router := api.NewRouter(handlers, bearerToken, pool, cacheLayer, log)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("server goroutine panicked", "recover", r)
				errCh <- fmt.Errorf("server panicked: %v", r)
			}
		}()
		log.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listening: %w", err)
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown signal received", "signal", sig)
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server shut down cleanly")
	return nil
}

// sweepLoop periodically drops expired in-memory cache entries until ctx is done.
func sweepLoop(ctx context.Context, mem *cache.Memory, log *slog.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := mem.Sweep(); removed > 0 {
				log.Info("swept expired cache entries", "removed", removed)
			}
		}
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable not set", "key", key)
		os.Exit(1)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
