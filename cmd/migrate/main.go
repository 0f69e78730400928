// migrate runs DB migrations from embedded SQL; run with go run ./cmd/migrate.
// With -rollover it then starts a new enrollment session: the job goes to Kafka when KAFKA_BROKERS
// is set and runs in this process otherwise.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"psup-auth/internal/config"
	"psup-auth/internal/db"
	"psup-auth/internal/db/migrate"
	"psup-auth/internal/logger"
	"psup-auth/internal/rollover"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	doRollover := flag.Bool("rollover", false, "Start a new session after migrating")
	session := flag.String("session", "", "Session label for -rollover; defaults to the current year")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
		os.Exit(1)
	}

	// ErrNoChange means already at target version.
	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}

	if *doRollover {
		if err := runRollover(cfg, *session); err != nil {
			fmt.Fprintln(os.Stderr, "rollover:", err)
			os.Exit(1)
		}
	}
}

func runRollover(cfg *config.Config, session string) error {
	zl, err := logger.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	job := rollover.NewJob(session, time.Now())

	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		q, err := rollover.NewKafkaQueue(brokers, cfg.RolloverKafkaTopic)
		if err != nil {
			return err
		}
		defer q.Close()
		if err := q.Enqueue(ctx, job); err != nil {
			return err
		}
		zl.Info("rollover job published", zap.String("job_id", job.ID), zap.String("session", job.Session))
		return nil
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	report, err := rollover.NewPostgresEngine(pool, zl).Run(ctx, job.Session)
	if report != nil {
		fmt.Printf("session %s: renamed %d, repaired %d, skipped %d, failed %d\n",
			report.Session, report.Renamed, report.Repaired, report.Skipped, len(report.Failed))
	}
	return err
}
