package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"centavo/internal/cache"
	"centavo/internal/config"
	"centavo/internal/handlers"
	"centavo/internal/llm"
	"centavo/internal/logger"
	"centavo/internal/pdf"
	"centavo/internal/repositories"
	"centavo/internal/routes"
	"centavo/internal/services"
	"centavo/internal/sms"
	"centavo/internal/transport"
)

func Run() error {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Server.Development, logger.LogLevel(cfg.Server.LogLevel)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Firestore ===
	client, err := repositories.NewFirestoreClient(ctx, cfg.Firestore)
	if err != nil {
		return fmt.Errorf("firestore: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Warn("[app] close firestore", zap.Error(err))
		}
	}()

	// === Repos ===
	userRepo := repositories.NewUserRepository(client)
	transactionRepo := repositories.NewTransactionRepository(client)
	verificationRepo := repositories.NewVerificationRepository(client)

	// === Redis ===
	locker, err := cache.NewRedisLocker(cache.RedisLockerConfig{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer func() {
		if err := locker.Close(); err != nil {
			log.Warn("[app] close redis", zap.Error(err))
		}
	}()

	// === Transport ===
	// Outbound messages addressed by phone are routed through the verified
	// link back to the chat that completed the handshake.
	resolveRoute := func(ctx context.Context, phone string) (string, error) {
		link, err := verificationRepo.LinkForPhone(ctx, phone)
		if err != nil {
			return "", err
		}
		if link == nil {
			return "", nil
		}
		return link.LID, nil
	}
	bot, err := transport.NewTelegram(cfg.Telegram.Token, resolveRoute, log)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	// === Services ===
	totalsService := services.NewTotalsService(services.PacePolicy{
		Excellent: cfg.Policy.PaceExcellent,
		Normal:    cfg.Policy.PaceNormal,
		Attention: cfg.Policy.PaceAttention,
	})
	smsClient := sms.NewClient(cfg.SMS, log)
	verificationService := services.NewVerificationService(verificationRepo, userRepo, bot, smsClient, log)
	dispatchService := services.NewDispatchService(userRepo, transactionRepo, totalsService, cfg.Policy.LowBalanceThreshold, log)
	extractor := llm.NewExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	pipeline := services.NewPipelineService(
		userRepo,
		transactionRepo,
		verificationService,
		totalsService,
		dispatchService,
		extractor,
		bot,
		time.Duration(cfg.Policy.LLMTimeoutSeconds)*time.Second,
		cfg.Billing.CheckoutURL,
		cfg.Billing.TrialHours,
		log,
	)

	scheduler := services.NewSchedulerService(userRepo, transactionRepo, totalsService, bot, locker, cfg.Billing.CheckoutURL, log)
	scheduler.Start(ctx)

	bot.Listen(ctx, pipeline.HandleInbound)

	// === Handlers ===
	statementGen := pdf.NewStatementGenerator()
	billingHandler := handlers.NewBillingHandler(userRepo, cfg.Billing.TrialHours)
	statementHandler := handlers.NewStatementHandler(userRepo, transactionRepo, statementGen)

	// === Gin ===
	if !cfg.Server.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.SetupRoutes(router, []byte(cfg.Admin.JWTSecret), billingHandler, statementHandler)

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("[app] listening", zap.String("addr", listenAddr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Run(listenAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("[app] shutting down")
		if err := bot.Disconnect(); err != nil {
			log.Warn("[app] disconnect bot", zap.Error(err))
		}
		return nil
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}
