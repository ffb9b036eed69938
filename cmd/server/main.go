package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sbpickleball/match_app/internal/auth"
	"github.com/sbpickleball/match_app/internal/config"
	"github.com/sbpickleball/match_app/internal/database"
	"github.com/sbpickleball/match_app/internal/handlers"
	"github.com/sbpickleball/match_app/internal/jobs"
	"github.com/sbpickleball/match_app/internal/middleware"
	"github.com/sbpickleball/match_app/internal/notify"
	"github.com/sbpickleball/match_app/internal/realtime"
	"github.com/sbpickleball/match_app/internal/repositories"
	"github.com/sbpickleball/match_app/internal/repositories/memory"
	"github.com/sbpickleball/match_app/internal/services"
	"github.com/sbpickleball/match_app/internal/storage"
	"github.com/sbpickleball/match_app/pkg/logger"
)

const (
	hubBuffer       = 64
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init()
	defer logger.Sync()

	logger.Info("Starting pickleball match server...")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openStore(cfg)
	if err := database.SeedRegions(ctx, store.Regions, cfg.DefaultRegion); err != nil {
		logger.Fatal("Failed to seed regions", err)
	}

	hub := realtime.NewHub(hubBuffer)
	var publisher realtime.Publisher = hub
	memRevoker := auth.NewMemoryRevoker()
	var revoker auth.Revoker = memRevoker

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("Invalid REDIS_URL", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		bridge := realtime.NewRedisBridge(client, hub)
		publisher = bridge
		revoker = auth.NewRedisRevoker(client)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Realtime redis bridge stopped", "error", err)
			}
		}()
		logger.Info("Redis enabled for realtime fan-out and sign-out")
	}

	providers := []auth.Provider{auth.NewKakaoProvider(auth.KakaoConfig{
		ClientID:     cfg.KakaoClientID,
		ClientSecret: cfg.KakaoClientSecret,
		RedirectURL:  cfg.KakaoRedirectURL,
	})}
	if cfg.AppEnv == "development" {
		providers = append(providers, auth.DevProvider{})
		logger.Warn("Dev sign-in provider enabled")
	}
	sessions := auth.NewSessionService(cfg.JWTSecret, cfg.GetSessionTTL(), revoker, providers...)

	var notifier services.Notifier
	if cfg.TelegramEnabled() {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAdminChatID, cfg.AppEnv == "development")
		if err != nil {
			logger.Warn("Telegram notifications disabled", "error", err)
		} else {
			notifier = tg
			defer tg.Wait()
		}
	}

	var avatars services.AvatarStore
	if cfg.StorageEnabled() {
		bucket, err := storage.NewAvatarBucket(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to configure avatar storage", err)
		}
		avatars = bucket
	}

	regions := services.NewRegionResolver(store.Regions, cfg.DefaultRegion)
	profiles := services.NewProfileService(store, regions, avatars, cfg.UploadMaxSize)
	sessions.OnAuthStateChange(profiles.HandleAuthEvent)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, time.Minute)

	h := handlers.NewHandlerManager(cfg, sessions, profiles,
		services.NewMatchService(store, regions, publisher, notifier, cfg.OpeningMessage),
		services.NewChatService(store, publisher, hub),
		services.NewReviewService(store),
		services.NewTrustService(store),
		limiter,
	)

	scheduler, err := jobs.NewScheduler(
		jobs.Sweep{Name: "realtime-hub", Every: time.Minute, Run: hub.Sweep},
		jobs.Sweep{Name: "rate-limiter", Every: 5 * time.Minute, Run: limiter.Sweep},
		jobs.Sweep{Name: "revoked-tokens", Every: 10 * time.Minute, Run: func() int {
			return memRevoker.Sweep(time.Now())
		}},
	)
	if err != nil {
		logger.Fatal("Failed to create scheduler", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "env", cfg.AppEnv, "backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		logger.Error("Scheduler shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

// openStore picks the persistence backend from config.
func openStore(cfg *config.Config) *repositories.Store {
	if cfg.Backend == config.BackendMemory {
		logger.Warn("Using in-memory backend; data is lost on restart")
		store, _ := memory.NewStore()
		return store
	}

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	return repositories.NewStore(db)
}
