package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fxcache/internal/adapters/cache"
	"fxcache/internal/adapters/httpclient"
	"fxcache/internal/adapters/postgres"
	"fxcache/internal/api"
	"fxcache/internal/config"
	"fxcache/internal/metrics"
	"fxcache/internal/platform/db"
	httpserver "fxcache/internal/platform/http"
	"fxcache/internal/rate"
	"fxcache/internal/rate/handler"

	"github.com/sirupsen/logrus"
)

// Run wires the application components, starts HTTP server and scheduler
func Run() error {
	appCfg, err := config.Init()
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bounded context for startup operations (DB connect)
	startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// DB pool
	pool, err := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
	if err != nil {
		logrus.WithError(err).Error("Error connecting to db")
		return err
	}
	defer pool.Close()
	logrus.Info("✅ Postgres connection successful")

	// Base HTTP client (configurable timeout)
	httpTimeout := time.Duration(appCfg.HTTPClient.TimeoutSeconds) * time.Second
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	baseHTTPClient := &http.Client{Timeout: httpTimeout}

	// External rate provider
	providerBaseURL := strings.TrimSuffix(appCfg.ExchangeRateAPI.BaseURL, "/")
	if appCfg.ExchangeRateAPI.APIKey == "" {
		return fmt.Errorf("exchange rate api key is required")
	}
	rateClient := httpclient.NewExchangeRateClient(
		baseHTTPClient,
		fmt.Sprintf("%s/%s/latest", providerBaseURL, appCfg.ExchangeRateAPI.APIKey),
	)

	// Snapshot store
	snapshotStore := postgres.NewSnapshotRepository(pool)

	// Pair rate cache for conversions
	pairCache, err := cache.NewPairCache(appCfg.Cache.PairCacheMaxItems)
	if err != nil {
		logrus.WithError(err).Error("Failed to create pair rate cache")
		return err
	}
	defer pairCache.Close()

	// Core cache
	cacheMetrics := metrics.NewCacheMetrics()
	rateCache := rate.NewCache(
		rateClient,
		snapshotStore,
		pairCache,
		cacheMetrics,
		time.Duration(appCfg.Cache.MaxStaleAgeSeconds)*time.Second,
		time.Duration(appCfg.Cache.RefreshTimeoutSeconds)*time.Second,
	)

	// Prewarm scheduler
	currencies, err := normalizeCurrencies(appCfg.Scheduler.Currencies)
	if err != nil {
		logrus.WithError(err).Error("Invalid scheduler currency list")
		return err
	}
	scheduler := rate.NewScheduler(rateCache, currencies, time.Duration(appCfg.Scheduler.IntervalSeconds)*time.Second)
	// Ensure scheduler stops before DB pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	// Start scheduler tied to root context
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Info("✅ Scheduler activation successful")

	// Handlers and router
	rateHandler := handler.NewRateHandler(rateCache, time.Duration(appCfg.Cache.MaxAgeSeconds)*time.Second)
	router := api.NewRouter(rateHandler)

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func normalizeCurrencies(raw []string) ([]string, error) {
	currencies := make([]string, 0, len(raw))
	for _, code := range raw {
		normalized, err := rate.NormalizeCode(code)
		if err != nil {
			return nil, fmt.Errorf("currency %q: %w", code, err)
		}
		currencies = append(currencies, normalized)
	}
	return currencies, nil
}
