package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"proof_of_existence/internal/api"
	"proof_of_existence/internal/config"
	"proof_of_existence/internal/middleware"
	"proof_of_existence/internal/repository"
	"proof_of_existence/internal/service"
	"proof_of_existence/pkg/auth"
	"proof_of_existence/pkg/chain"
	"proof_of_existence/pkg/logger"
	"proof_of_existence/pkg/notify"
	"proof_of_existence/pkg/storage"
	"go.uber.org/zap"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	err = logger.Initialize(cfg.LogLevel, cfg.LogFormat, zap.String("service", "api"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	rates, err := cfg.Rewards.Rates()
	if err != nil {
		zapLogger.Fatal("Invalid rewards config", zap.Error(err))
	}
	streakRules, err := cfg.Streak.Rules()
	if err != nil {
		zapLogger.Fatal("Invalid streak config", zap.Error(err))
	}
	pricingRules, err := cfg.Pricing.Rules()
	if err != nil {
		zapLogger.Fatal("Invalid pricing config", zap.Error(err))
	}

	var uploads service.ThumbnailPresigner
	if cfg.Storage.Bucket != "" {
		st, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			zapLogger.Fatal("Failed to initialize storage", zap.Error(err))
		}
		uploads = st
	} else {
		zapLogger.Warn("Storage bucket not configured, thumbnail uploads disabled")
	}

	var (
		publisher     service.RootPublisher
		pricingReader service.PricingReader
	)
	if cfg.Chain.RPCURL != "" {
		client, err := chain.Dial(ctx, cfg.Chain)
		if err != nil {
			zapLogger.Fatal("Failed to connect to chain", zap.Error(err))
		}
		defer client.Close()
		publisher = client
		pricingReader = client
	} else {
		zapLogger.Warn("Chain RPC not configured, merkle roots will not be published")
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		zapLogger.Fatal("Failed to initialize notifier", zap.Error(err))
	}

	badgeService := service.NewBadgeService(repo)
	if err := badgeService.Seed(ctx); err != nil {
		zapLogger.Error("Failed to seed badge catalog", zap.Error(err))
	}

	hub := api.NewFeedHub()
	defer hub.Close()

	userService := service.NewUserService(repo, badgeService)
	dailyQuestService := service.NewDailyQuestService(repo, streakRules)
	sessionService := service.NewSessionService(repo, cfg.Session.Rules(), dailyQuestService, badgeService, hub, uploads)
	questRewardService := service.NewQuestRewardService(repo)
	settlementService := service.NewSettlementService(repo, rates, publisher, notifier)
	pricingService := service.NewPricingService(pricingRules, pricingReader)

	walletAuth := auth.NewWalletAuth(cfg.Auth)
	authz := middleware.NewAuthorization(userService)
	limit := middleware.RateLimit(middleware.NewMemoryStore(cfg.RateLimit))

	if cfg.Scheduler.Enabled {
		scheduler, err := startScheduler(cfg.Scheduler, settlementService)
		if err != nil {
			zapLogger.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				zapLogger.Error("Failed to stop scheduler", zap.Error(err))
			}
		}()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		zapLogger.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	a := router.Group("/api/v1")
	api.NewAuthRoutes(a, userService, walletAuth, limit)
	api.NewUserRoutes(a, userService, badgeService, questRewardService, settlementService, walletAuth, authz)
	api.NewSessionRoutes(a, sessionService, walletAuth, authz, limit)
	api.NewDailyQuestRoutes(a, dailyQuestService, walletAuth, authz)
	api.NewQuestRewardRoutes(a, questRewardService, walletAuth, authz)
	api.NewBadgeRoutes(a, badgeService)
	api.NewClaimRoutes(a, settlementService)
	api.NewPricingRoutes(a, pricingService)
	api.NewCronRoutes(a, settlementService, cfg.CronSecret)
	api.NewFeedRoutes(a, hub)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shut down server", zap.Error(err))
		}
	}()

	zapLogger.Info("Starting server", zap.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zapLogger.Fatal("Failed to start server", zap.Error(err))
	}
}

// startScheduler runs the settlement of the previous UTC day once a day.
func startScheduler(cfg config.SchedulerConfig, settlement *service.SettlementService) (gocron.Scheduler, error) {
	hour, minute, err := cfg.SettleTime()
	if err != nil {
		return nil, err
	}

	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(hour, minute, 0))),
		gocron.NewTask(func() {
			log := logger.Logger()
			day := settlement.Yesterday()

			result, err := settlement.Settle(context.Background(), day)
			if err != nil {
				log.Error("scheduled settlement failed", zap.Time("day", day), zap.Error(err))
				return
			}
			log.Info("scheduled settlement done",
				zap.Time("day", day),
				zap.Int("participants", len(result.Result.Rewards)),
				zap.String("root", result.Root))
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	scheduler.Start()
	return scheduler, nil
}
