package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"apartadmin/internal/alerts"
	"apartadmin/internal/apiclient"
	"apartadmin/internal/audit"
	"apartadmin/internal/config"
	"apartadmin/internal/events"
	"apartadmin/internal/imagehost"
	"apartadmin/internal/metrics"
	"apartadmin/internal/server"
	"apartadmin/internal/session"
	"apartadmin/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("APARTADMIN_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Backend.APIKey == "" {
		logger.Warn().Msg("backend.api_key is empty; requests may be rejected")
	}

	// The session starts empty; the first successful /login fills it.
	sess := session.New("", cfg.Backend.APIKey)

	authClient := apiclient.NewAuthClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
	apartments := apiclient.NewApartmentClient(cfg.Backend.ApartmentService, sess)
	discounts := apiclient.NewDiscountClient(cfg.Backend.DiscountService, sess)
	reservations := apiclient.NewReservationClient(cfg.Backend.ReservationService, sess)

	if cfg.Backend.RatePerSecond > 0 {
		apartments.SetRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.RateBurst)
		discounts.SetRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.RateBurst)
		reservations.SetRateLimit(cfg.Backend.RatePerSecond, cfg.Backend.RateBurst)
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		apartments.UseRedisCache(rdb, cfg.CacheTTL())
		discounts.UseRedisCache(rdb, cfg.CacheTTL())
	}

	bus := events.NewEventBus()

	var trail *audit.Store
	if cfg.Audit.Enabled {
		trail, err = audit.Open(cfg.Audit.Path, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open audit store")
		}
		defer trail.Close()
		trail.Attach(bus)
	}

	listing := store.NewListing(apartments, discounts, bus, &logger)

	watcher := alerts.NewWatcher(
		alerts.Config{PollInterval: cfg.AlertPollInterval()},
		reservations,
		&logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, trail, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	watcher.Start(ctx)
	defer watcher.Stop()

	var uploader imagehost.Uploader
	if cfg.ImageHost.UploadURL != "" {
		uploader = imagehost.NewHTTPUploader(cfg.ImageHost.UploadURL, cfg.ImageHost.APIKey)
	}

	srv := server.New(sess, authClient, listing, watcher, apartments, uploader, trail, &logger)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(cfg.Server.CORS.AllowedOrigins),
	}

	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Msg("apartment admin started")
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("admin server error")
	}
}

func startHealthServer(ctx context.Context, port int, trail *audit.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if trail != nil {
			if err := trail.Ping(ctxPing); err != nil {
				http.Error(w, "audit store not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
