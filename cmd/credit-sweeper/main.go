package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/realty/realty-api/internal/config"
	"github.com/realty/realty-api/internal/domain/company"
	"github.com/realty/realty-api/internal/domain/credit"
	"github.com/realty/realty-api/internal/pkg/database"
	"github.com/realty/realty-api/internal/pkg/events"
	"github.com/realty/realty-api/internal/pkg/lock"
	"github.com/realty/realty-api/internal/pkg/logger"
)

const (
	sweepLockKey     = "credits:sweep:lock"
	lockRetryDelay   = 500 * time.Millisecond
	lockMaxRetries   = 20
	sweepRunDeadline = 2 * time.Minute
)

// credit-sweeper zeroes expired credit balances once and exits. It is meant
// for cron or a Kubernetes CronJob when the API's in-process sweeper is off.
func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().Msg("Starting credit-sweeper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	nc, err := database.NewNats(cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer database.CloseNats(nc)

	svc := credit.NewService(credit.NewRepository(db), company.NewRepository(db), cfg.Credits.DefaultExpiryDays,
		credit.WithPublisher(events.NewPublisher(nc)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), sweepRunDeadline)
	defer cancel()

	if rdb != nil {
		l := lock.New(rdb, sweepLockKey, sweepRunDeadline)
		if err := l.Lock(ctx, lockRetryDelay, lockMaxRetries); err != nil {
			log.Error().Err(err).Msg("Could not acquire sweep lock")
			os.Exit(1)
		}
		defer func() {
			if err := l.Unlock(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to release sweep lock")
			}
		}()
	}

	count, err := svc.CleanupExpiredCredits(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Credit sweep failed")
		os.Exit(1)
	}

	log.Info().Int64("expired", count).Msg("Credit sweep finished")
}
