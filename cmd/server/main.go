// Package main is the entry point for the dealradar matching server.
// It matches user purchase goals against marketplace deals in both
// directions, caches the results in Redis, and alerts goal owners over
// NATS when new matches appear.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dealradar/dealradar/internal/cache"
	"github.com/dealradar/dealradar/internal/config"
	"github.com/dealradar/dealradar/internal/database"
	"github.com/dealradar/dealradar/internal/domain"
	"github.com/dealradar/dealradar/internal/matchcache"
	"github.com/dealradar/dealradar/internal/matching"
	"github.com/dealradar/dealradar/internal/modules/deals"
	"github.com/dealradar/dealradar/internal/modules/goals"
	matchingmod "github.com/dealradar/dealradar/internal/modules/matching"
	matchinghandlers "github.com/dealradar/dealradar/internal/modules/matching/handlers"
	"github.com/dealradar/dealradar/internal/notify"
	"github.com/dealradar/dealradar/internal/scheduler"
	"github.com/dealradar/dealradar/internal/server"
	"github.com/dealradar/dealradar/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting dealradar")

	// Catalog database (goals + deals)
	catalogDB, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "catalog.db"),
		Name: "catalog",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open catalog database")
	}
	defer catalogDB.Close()

	if err := catalogDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate catalog database")
	}

	// Match cache backend. Dev mode falls back to the in-memory cache when
	// Redis is unreachable so the server still comes up on a laptop.
	var cacheBackend cache.Cache
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisClient, err := cache.NewRedisClient(connectCtx, cfg.RedisURL)
	connectCancel()
	if err != nil {
		if !cfg.DevMode {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		cacheBackend = cache.NewMemory()
	} else {
		defer redisClient.Close()
		cacheBackend = cache.NewRedis(redisClient)
	}

	// Notification dispatcher, same dev-mode fallback
	var dispatcher domain.NotificationDispatcher
	natsDispatcher, err := notify.NewNATSDispatcher(notify.DefaultNATSConfig(cfg.NATSURL), log)
	if err != nil {
		if !cfg.DevMode {
			log.Fatal().Err(err).Msg("Failed to connect to NATS")
		}
		log.Warn().Err(err).Msg("NATS unavailable, notifications go nowhere")
		dispatcher = notify.NewMemoryDispatcher()
	} else {
		defer natsDispatcher.Close()
		dispatcher = natsDispatcher
	}

	// Repositories
	goalRepo := goals.NewRepository(catalogDB, log)
	dealRepo := deals.NewRepository(catalogDB, log)

	// Matching engine
	store := matchcache.NewStore(cacheBackend, cfg.Matching.MatchTTL, log)
	dedup := matchcache.NewDedupTracker(cacheBackend, log)
	locker := matchcache.NewRunLocker(cacheBackend, matchcache.TTLRunLock, log)
	selector := matching.NewCandidateSelector(goalRepo, dealRepo, cfg.Matching.CandidateFetchSize, log)

	matcherCfg := matching.Config{
		MinScore:     cfg.Matching.MinScore,
		MaxMatches:   cfg.Matching.MaxMatches,
		PairDedupTTL: cfg.Matching.PairDedupTTL,
		UserDedupTTL: cfg.Matching.UserDedupTTL,
	}
	goalMatcher := matching.NewGoalMatcher(goalRepo, selector, store, dedup, locker, dispatcher, matcherCfg, log)
	dealMatcher := matching.NewDealMatcher(dealRepo, selector, store, dedup, locker, dispatcher, matcherCfg, log)

	matchingService := matchingmod.NewService(goalMatcher, dealMatcher, store, goalRepo, dealRepo, matcherCfg, log)
	matchingHandler := matchinghandlers.NewHandler(matchingService, log)

	// Periodic sweep re-matching every active goal
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweep := scheduler.New(goalRepo, dealRepo, goalMatcher, dealMatcher, cfg.Matching.SweepIntervalHours, log)
	if err := sweep.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start matching sweep")
	}

	srv := server.New(server.Config{
		Log:             log,
		CatalogDB:       catalogDB,
		MatchingHandler: matchingHandler,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
	})

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Error().Err(err).Msg("Server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	cancel()
	sweep.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
