package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	certhandler "cleargate/internal/certificate/handler"
	certmetrics "cleargate/internal/certificate/metrics"
	"cleargate/internal/certificate/pdf"
	certservice "cleargate/internal/certificate/service"
	certstore "cleargate/internal/certificate/store"
	clearancehandler "cleargate/internal/clearance/handler"
	clearancemetrics "cleargate/internal/clearance/metrics"
	clearanceservice "cleargate/internal/clearance/service"
	clearancestore "cleargate/internal/clearance/store"
	"cleargate/internal/notify"
	"cleargate/internal/platform/config"
	"cleargate/internal/platform/httpserver"
	"cleargate/internal/platform/logger"
	"cleargate/internal/platform/mongo"
	platformredis "cleargate/internal/platform/redis"
	"cleargate/internal/student"
	httptransport "cleargate/internal/transport/http"
	windowcache "cleargate/internal/window/cache"
	windowhandler "cleargate/internal/window/handler"
	windowservice "cleargate/internal/window/service"
	windowstore "cleargate/internal/window/store"
)

// main wires the dependency graph and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.StorageTimeout)
	if err != nil {
		log.Error("mongo connection failed", "error", err)
		os.Exit(1)
	}
	db := mongoClient.Database()

	records := clearancestore.NewMongo(db)
	certs := certstore.NewMongo(db)
	settings := windowstore.NewMongo(db)
	directory := student.NewMongoDirectory(db)
	if err := records.EnsureIndexes(ctx); err != nil {
		log.Error("clearance index creation failed", "error", err)
		os.Exit(1)
	}
	if err := certs.EnsureIndexes(ctx); err != nil {
		log.Error("certificate index creation failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var settingsCache windowcache.Cache = windowcache.Noop{}
	var queue notify.Queue = notify.NewInMemoryQueue(1024)
	if redisClient != nil {
		settingsCache = windowcache.NewRedis(redisClient.Client, 30*time.Second)
		queue = notify.NewRedisQueue(redisClient.Client, "")
		log.Info("redis enabled", "url", cfg.Redis.URL)
	} else {
		log.Info("redis not configured, using in-memory fallbacks")
	}

	windowSvc := windowservice.New(settings,
		windowservice.WithLogger(log),
		windowservice.WithCache(settingsCache),
	)

	dispatcher := notify.NewDispatcher(directory, queue, log)
	clearanceSvc := clearanceservice.New(records, windowSvc,
		clearanceservice.WithLogger(log),
		clearanceservice.WithMetrics(clearancemetrics.New()),
		clearanceservice.WithNotifier(dispatcher),
	)

	renderer := pdf.NewRenderer(cfg.InstitutionName, cfg.FrontendBaseURL)
	certSvc := certservice.New(certs, clearanceSvc, directory, renderer, cfg.CertificateSecret,
		certservice.WithLogger(log),
		certservice.WithMetrics(certmetrics.New()),
		certservice.WithRetention(cfg.CertificateRetention),
	)

	checks := map[string]httptransport.HealthChecker{
		"mongo": mongoClient,
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	} else {
		checks["redis"] = nil
	}

	router := httptransport.NewRouter(checks,
		clearancehandler.New(clearanceSvc, log),
		certhandler.New(certSvc, log),
		windowhandler.New(windowSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting cleargate server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("redis close failed", "error", err)
		}
	}
	if err := mongoClient.Close(shutdownCtx); err != nil {
		log.Error("mongo disconnect failed", "error", err)
	}
}
