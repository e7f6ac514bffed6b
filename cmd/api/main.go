package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dottori-online/agenda-calendar/internal/agenda"
	"github.com/dottori-online/agenda-calendar/internal/amelia"
	"github.com/dottori-online/agenda-calendar/internal/api/router"
	appconfig "github.com/dottori-online/agenda-calendar/internal/config"
	"github.com/dottori-online/agenda-calendar/internal/http/handlers"
	"github.com/dottori-online/agenda-calendar/internal/observability/metrics"
	"github.com/dottori-online/agenda-calendar/pkg/logging"
)

func main() {
	// Load .env for local development; in deployment the environment is set
	// by the platform.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agenda-calendar API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"amelia_base_url", cfg.AmeliaBaseURL,
	)

	if cfg.AmeliaBaseURL == "" {
		logger.Error("AMELIA_BASE_URL is required")
		os.Exit(1)
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gatewayMetrics := metrics.NewGatewayMetrics(registry)

	// Optional Redis-backed response cache; without REDIS_ADDR every read
	// goes to the backend.
	var cache *amelia.Cache
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = amelia.NewCache(redis.NewClient(opts), cfg.CacheTTL, logger)
		logger.Info("response cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	}

	gateway := amelia.NewClient(amelia.Config{
		BaseURL:    cfg.AmeliaBaseURL,
		Nonce:      cfg.AmeliaNonce,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: cfg.RetryMaxAttempts,
		Backoff:    cfg.RetryBackoff,
	}, cache, gatewayMetrics, logger)

	store := agenda.NewStore(gateway, gatewayMetrics, logger)
	coordinator := agenda.NewCoordinator(gateway, store, logger)
	agendaHandler := handlers.NewAgendaHandler(store, coordinator, gateway, cfg.GridHourStart, cfg.GridHourEnd, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		AgendaHandler:      agendaHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
