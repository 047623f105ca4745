package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-rescue-api/config"
	"food-rescue-api/fixtures"
	"food-rescue-api/handlers"
	"food-rescue-api/ledger"
	"food-rescue-api/metrics"
	"food-rescue-api/middleware"
	"food-rescue-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := config.NewLogger(cfg)

	r, cleanup, err := buildServer(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("🚀 Server running on http://localhost:%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	log.Info("Server stopped")
}

// buildServer wires store, ledger, fixtures, metrics and routes into a gin engine.
func buildServer(cfg *config.Config, log *logrus.Logger) (*gin.Engine, func(), error) {
	gin.SetMode(cfg.Server.Mode)

	loc, err := cfg.Booking.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("booking timezone: %w", err)
	}

	db, err := config.OpenDB(cfg.Database.Name)
	if err != nil {
		return nil, nil, err
	}
	var closers []func()
	closers = append(closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts := []ledger.Option{
		ledger.WithLocation(loc),
		ledger.WithDailyLimit(cfg.Booking.DailyLimit),
		ledger.WithRestock(cfg.Booking.RestockOnRelease),
		ledger.WithCodeGenerator(ledger.NewCodeGenerator(cfg.Booking.CodePrefix, nil)),
		ledger.WithLogger(log),
	}

	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec := metrics.New()
		if err := rec.Register(reg); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("register metrics: %w", err)
		}
		opts = append(opts, ledger.WithRecorder(rec))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	l := ledger.New(db, opts...)

	if cfg.Fixtures.Enabled {
		f, err := fixtures.Default(time.Now().In(loc))
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		if err := l.Seed(context.Background(), f); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("seed fixtures: %w", err)
		}
	}

	var rdb *redis.Client
	if cfg.RateLimit.Enabled && cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
	}

	auth := middleware.NewAuth(cfg.JWT.Secret, cfg.JWT.TTL)
	h := handlers.New(l, auth, log, loc)

	r := gin.New()
	r.Use(middleware.Logger(log), gin.Recovery())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Rescue Booking API",
			"version": "1.0.0",
		})
	})

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Food Rescue Booking API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"USER", "OWNER", "VOLUNTEER", "ADMIN"},
		})
	})

	limiter := middleware.LocalRateLimit(cfg.RateLimit)
	if rdb != nil {
		limiter = middleware.RateLimit(cfg.RateLimit, rdb, log)
	}

	routes.SetupRoutes(r, routes.Deps{
		Handler:        h,
		Auth:           auth,
		BookingLimiter: limiter,
		Metrics:        metricsHandler,
	})

	return r, cleanup, nil
}
