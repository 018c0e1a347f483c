package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/config"
	"github.com/breakhouse/breakhouse-api/internal/domain/breaks"
	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/notification"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
	"github.com/breakhouse/breakhouse-api/internal/domain/wallet"
	"github.com/breakhouse/breakhouse-api/internal/pkg/database"
	"github.com/breakhouse/breakhouse-api/internal/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Dur("interval", cfg.SweepInterval).
		Msg("Starting break sweeper")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	if redisClient != nil {
		defer database.CloseRedis(redisClient)
	}

	var publisher notification.Publisher
	if redisClient != nil {
		publisher = notification.NewRedisPublisher(redisClient)
	}

	userService := user.NewService(user.NewRepository(db))
	notificationService := notification.NewService(notification.NewRepository(db), publisher)
	listingService := listing.NewService(listing.NewRepository(db), userService)
	walletService := wallet.NewService(wallet.NewRepository(db), userService, listingService, notificationService)
	breakService := breaks.NewService(breaks.NewRepository(db), listingService, userService, walletService, notificationService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweeper stopped")
			return
		case <-ticker.C:
		}

		n, err := breakService.SweepExpired(ctx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Sweep pass failed")
			continue
		}
		if n > 0 {
			log.Info().Int("expired", n).Msg("Expired overdue breaks")
		}
	}
}
