// Worker consumes session rollover jobs from Kafka and runs them against Postgres.
// Set KAFKA_BROKERS, ROLLOVER_KAFKA_TOPIC, KAFKA_GROUP_ID and DATABASE_URL. With REDIS_ADDR set, runs are
// serialized across worker replicas through a Redis lock.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"psup-auth/internal/config"
	"psup-auth/internal/db"
	"psup-auth/internal/logger"
	"psup-auth/internal/rollover"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		zl.Fatal("worker: KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zl.Fatal("worker: database", zap.Error(err))
	}
	defer pool.Close()

	var locker rollover.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Fatal("worker: redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		locker = rollover.NewRedisLocker(rdb, "", 0)
	} else {
		zl.Warn("worker: REDIS_ADDR not set, rollover lock is local to this process")
	}

	runner := rollover.NewRunner(rollover.NewPostgresEngine(pool, zl), locker, zl)
	consumer := rollover.NewKafkaConsumer(brokers, cfg.RolloverKafkaTopic, cfg.KafkaGroupID, zl)
	defer consumer.Close()

	zl.Info("worker: consuming rollover jobs",
		zap.String("topic", cfg.RolloverKafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
	)
	if err := consumer.Consume(ctx, runner.Handle); err != nil && !errors.Is(err, context.Canceled) {
		zl.Error("worker: consumer stopped", zap.Error(err))
		return
	}
	zl.Info("worker: stopped")
}
