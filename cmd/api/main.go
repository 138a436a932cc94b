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

	"github.com/realty/realty-api/internal/config"
	"github.com/realty/realty-api/internal/domain/company"
	"github.com/realty/realty-api/internal/domain/credit"
	"github.com/realty/realty-api/internal/domain/post"
	"github.com/realty/realty-api/internal/middleware"
	"github.com/realty/realty-api/internal/pkg/database"
	"github.com/realty/realty-api/internal/pkg/events"
	"github.com/realty/realty-api/internal/pkg/jwt"
	"github.com/realty/realty-api/internal/pkg/lock"
	"github.com/realty/realty-api/internal/pkg/logger"
	pkgresponse "github.com/realty/realty-api/internal/pkg/response"
)

const sweepLockKey = "credits:sweep:lock"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Realty API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	nc, err := database.NewNats(cfg.NatsURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to NATS")
	}
	defer database.CloseNats(nc)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	companyRepo := company.NewRepository(db)
	creditRepo := credit.NewRepository(db)
	postRepo := post.NewRepository(db)

	// ---------- Services ----------
	creditService := credit.NewService(creditRepo, companyRepo, cfg.Credits.DefaultExpiryDays,
		credit.WithPublisher(events.NewPublisher(nc)),
	)

	price, ok := cfg.Credits.Price(config.FeatureCompanyPost)
	if !ok {
		log.Warn().Str("feature", config.FeatureCompanyPost).Msg("Feature has no credit price, sponsored posts disabled")
	}
	visibilityDays, _ := cfg.Credits.VisibilityDays(config.FeatureCompanyPost)
	postService := post.NewService(creditService, post.NewTxRunner(db), postRepo, post.Config{
		Price:          price,
		VisibilityDays: visibilityDays,
	})

	// ---------- Workers ----------
	var locker credit.Locker
	if redis != nil {
		locker = lock.New(redis, sweepLockKey, 5*time.Minute)
	}
	sweeper := credit.NewWorker(creditService, locker, cfg.Credits.SweepInterval)
	sweeper.Start()

	// ---------- Router ----------
	r := newRouter(cfg, routes{
		auth:    middleware.Auth(jwtService),
		credits: credit.NewHandler(creditService),
		posts:   post.NewHandler(postService),
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
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sweeper.Stop()

	log.Info().Msg("Server exited properly")
}

type routes struct {
	auth    func(http.Handler) http.Handler
	credits *credit.Handler
	posts   *post.Handler
}

func newRouter(cfg *config.Config, h routes) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/companies/{id}/credits", h.credits.Routes(h.auth))
		r.Mount("/companies/{id}/posts", h.posts.CompanyRoutes(h.auth))
		r.Mount("/posts", h.posts.Routes())
	})

	r.Mount("/api/admin", h.credits.AdminRoutes(h.auth))

	return r
}
