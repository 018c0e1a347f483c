package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/breakhouse/breakhouse-api/internal/config"
	"github.com/breakhouse/breakhouse-api/internal/domain/bid"
	"github.com/breakhouse/breakhouse-api/internal/domain/breaks"
	"github.com/breakhouse/breakhouse-api/internal/domain/listing"
	"github.com/breakhouse/breakhouse-api/internal/domain/notification"
	"github.com/breakhouse/breakhouse-api/internal/domain/user"
	"github.com/breakhouse/breakhouse-api/internal/domain/wallet"
	"github.com/breakhouse/breakhouse-api/internal/middleware"
	"github.com/breakhouse/breakhouse-api/internal/pkg/cardinfo"
	"github.com/breakhouse/breakhouse-api/internal/pkg/database"
	"github.com/breakhouse/breakhouse-api/internal/pkg/geo"
	"github.com/breakhouse/breakhouse-api/internal/pkg/jwt"
	"github.com/breakhouse/breakhouse-api/internal/pkg/logger"
	pkgresponse "github.com/breakhouse/breakhouse-api/internal/pkg/response"
	"github.com/breakhouse/breakhouse-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Breakhouse API")

	// ---------- Repositories ----------
	// With no DATABASE_URL the API runs on in-memory stores (dev only).
	var (
		userRepo         user.Repository
		listingRepo      listing.Repository
		bidRepo          bid.Repository
		walletRepo       wallet.Repository
		breakRepo        breaks.Repository
		notificationRepo notification.Repository
	)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(db)

		userRepo = user.NewRepository(db)
		listingRepo = listing.NewRepository(db)
		bidRepo = bid.NewRepository(db)
		walletRepo = wallet.NewRepository(db)
		breakRepo = breaks.NewRepository(db)
		notificationRepo = notification.NewRepository(db)
	} else {
		log.Warn().Msg("DATABASE_URL not set, running on in-memory stores")
		userRepo = user.NewMemoryRepository()
		listingRepo = listing.NewMemoryRepository()
		bidRepo = bid.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		breakRepo = breaks.NewMemoryRepository()
		notificationRepo = notification.NewMemoryRepository()
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	var publisher notification.Publisher
	if redisClient != nil {
		publisher = notification.NewRedisPublisher(redisClient)
	}

	mediaStorage := newStorage(cfg)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	cardClient := cardinfo.NewClient(cfg.CardInfoBaseURL, cfg.CardInfoAPIKey, cfg.LookupTimeout)
	geoClient := geo.NewClient(cfg.GeoBaseURL, cfg.GeoUserAgent, cfg.LookupTimeout)

	// ---------- Services ----------
	userService := user.NewService(userRepo)
	notificationService := notification.NewService(notificationRepo, publisher)
	listingService := listing.NewService(listingRepo, userService)
	bidService := bid.NewService(bidRepo, listingService, userService, notificationService)
	walletService := wallet.NewService(walletRepo, userService, listingService, notificationService)
	breakService := breaks.NewService(breakRepo, listingService, userService, walletService, notificationService)

	// ---------- Handlers ----------
	userHandler := user.NewHandler(userService)
	listingHandler := listing.NewHandler(listingService)
	bidHandler := bid.NewHandler(bidService)
	walletHandler := wallet.NewHandler(walletService)
	breakHandler := breaks.NewHandler(breakService, mediaStorage)
	notificationHandler := notification.NewHandler(notificationService)
	enrichmentHandler := newEnrichmentHandler(cardClient, geoClient)

	// Auth validates identity-provider tokens, then the local account
	// mirror is upserted from the claims.
	authOnly := middleware.Auth(jwtService)
	syncIdentity := middleware.SyncIdentity(func(ctx context.Context, claims *jwt.Claims) error {
		_, err := userService.EnsureUser(ctx, claims.UserID, claims.Email, claims.DisplayName, claims.AvatarURL, claims.Role, claims.Verified)
		return err
	})
	authMiddleware := func(next http.Handler) http.Handler {
		return authOnly(syncIdentity(next))
	}

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/listings", listingHandler.Routes(authMiddleware))

		r.Route("/listings/{id}/bids", func(r chi.Router) {
			r.Get("/", bidHandler.ListByListing)
			r.With(authMiddleware).Post("/", bidHandler.PlaceBid)
		})
		r.Route("/listings/{id}/buy", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", walletHandler.BuyNow)
		})

		r.Mount("/breaks", breakHandler.Routes(authMiddleware))
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
		r.Mount("/users", userHandler.Routes(authMiddleware))

		r.Get("/cards/{id}", enrichmentHandler.LookupCard)
		r.Get("/geo", enrichmentHandler.LookupLocation)
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func newStorage(cfg *config.Config) storage.Storage {
	if cfg.StorageBackend == "r2" {
		r2, err := storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create R2 storage")
		}
		return r2
	}

	local, err := storage.NewLocalStorage(cfg.LocalStoragePath, cfg.LocalStorageURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create local storage")
	}
	return local
}
