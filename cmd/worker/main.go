package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"cleargate/internal/notify"
	"cleargate/internal/platform/config"
	"cleargate/internal/platform/logger"
	platformredis "cleargate/internal/platform/redis"
)

// main runs the notification worker: it drains the redis-backed notice queue
// and hands each notice to the configured sender. The worker is a separate
// process so notice delivery survives server restarts.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if cfg.Redis.URL == "" {
		log.Error("REDIS_URL is required for the worker; the in-memory queue is not shared across processes")
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := notify.NewRedisQueue(redisClient.Client, "")
	sender := notify.LogSender{Logger: log}

	notices, err := queue.Consume(ctx)
	if err != nil {
		log.Error("queue consume failed", "error", err)
		os.Exit(1)
	}

	log.Info("notification worker started")
	for n := range notices {
		if err := sender.SendStatusChangeNotice(ctx, n); err != nil {
			log.Error("notice delivery failed",
				"student_id", n.StudentID,
				"error", err,
			)
			continue
		}
		log.Info("notice delivered", "student_id", n.StudentID, "status", n.Status)
	}
	log.Info("notification worker stopped")
}
