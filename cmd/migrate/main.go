package main

import (
	"context"
	"flag"

	"github.com/rs/zerolog/log"

	"github.com/realty/realty-api/internal/config"
	"github.com/realty/realty-api/internal/pkg/database"
	"github.com/realty/realty-api/internal/pkg/logger"
)

func main() {
	command := flag.String("command", "up", "goose command: up, down, status, redo")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if err := database.Migrate(context.Background(), db, *command); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	log.Info().Str("command", *command).Msg("Migrations complete")
}
