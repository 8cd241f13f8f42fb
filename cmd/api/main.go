package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/byoncocare/oncobot/internal/ai"
	"github.com/byoncocare/oncobot/internal/api/router"
	"github.com/byoncocare/oncobot/internal/app/bootstrap"
	appconfig "github.com/byoncocare/oncobot/internal/config"
	"github.com/byoncocare/oncobot/internal/conversation"
	"github.com/byoncocare/oncobot/internal/extract"
	"github.com/byoncocare/oncobot/internal/http/handlers"
	"github.com/byoncocare/oncobot/internal/ledger"
	observemetrics "github.com/byoncocare/oncobot/internal/observability/metrics"
	"github.com/byoncocare/oncobot/internal/optout"
	"github.com/byoncocare/oncobot/internal/quota"
	"github.com/byoncocare/oncobot/internal/webhook"
	"github.com/byoncocare/oncobot/internal/whatsapp"
	"github.com/byoncocare/oncobot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting oncobot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	waClient, err := whatsapp.New(whatsapp.Config{
		BaseURL:       cfg.GraphBaseURL,
		GraphVersion:  cfg.GraphAPIVersion,
		AccessToken:   cfg.WhatsAppAccessToken,
		PhoneNumberID: cfg.WhatsAppPhoneNumberID,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to build whatsapp client", "error", err)
		os.Exit(1)
	}
	sender := whatsapp.NewRetrySender(waClient, cfg.SendMaxAttempts, cfg.SendBaseDelay, logger)

	gemini, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
	if err != nil {
		logger.Error("failed to build gemini client", "error", err)
		os.Exit(1)
	}
	defer func() { _ = gemini.Close() }()
	answers := ai.NewAnswerService(gemini, cfg.GeminiModelID, int32(cfg.AnswerMaxTokens), cfg.AnswerMaxReplyChars, logger)

	msgLedger := ledger.New(pool)
	pruner := ledger.NewPruner(msgLedger, time.Duration(cfg.LedgerRetentionDays)*24*time.Hour, logger)
	if err := pruner.Start(); err != nil {
		logger.Error("failed to start ledger pruner", "error", err)
		os.Exit(1)
	}
	defer pruner.Stop()

	var quotas interface {
		AllowText(ctx context.Context, senderID string) (bool, error)
		AllowAttachment(ctx context.Context, senderID string) (bool, error)
	} = quota.Unlimited{}
	if redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true); redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		quotas = quota.NewLimiter(redisClient, cfg.TextRateLimit, cfg.TextRateWindow, cfg.AttachmentDailyCap)
	} else {
		logger.Warn("redis not configured, quotas disabled")
	}

	var transcripts *conversation.TranscriptStore
	if db := bootstrap.BuildSQLDB(cfg, logger); db != nil {
		defer func() { _ = db.Close() }()
		transcripts = conversation.NewTranscriptStore(db)
	}

	extractor := extract.New(extract.Config{
		Fetcher:       waClient,
		MaxImageBytes: cfg.MediaMaxImageBytes,
		MaxPDFBytes:   cfg.MediaMaxPDFBytes,
		MaxPDFPages:   cfg.ExtractMaxPDFPages,
		Logger:        logger,
	})

	webhookMetrics := observemetrics.NewWebhookMetrics(nil)

	processor := webhook.NewProcessor(webhook.ProcessorConfig{
		Ledger:      msgLedger,
		Optouts:     optout.NewRegistry(pool),
		Quotas:      quotas,
		Extractor:   extractor,
		States:      conversation.NewStore(pool),
		Transcripts: transcripts,
		Answers:     answers,
		Sender:      sender,
		Metrics:     webhookMetrics,
		Logger:      logger,
	})

	dispatcher := webhook.NewDispatcher(processor, cfg.WorkerCount, cfg.QueueBuffer, webhookMetrics, logger)
	workerCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher.Start(workerCtx)

	webhookHandler := webhook.NewHandler(webhook.HandlerConfig{
		VerifyToken:   cfg.WhatsAppVerifyToken,
		AppSecret:     cfg.WhatsAppAppSecret,
		AllowUnsigned: cfg.WhatsAppAllowUnsigned,
		Dispatcher:    dispatcher,
		Logger:        logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		WebhookHandler:     webhookHandler,
		AdminSend:          handlers.NewAdminSendHandler(sender, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WebhookRPS:         float64(cfg.WebhookRPS),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight pipeline work finish before the pool closes.
	stopWorkers()
	dispatcher.Wait()

	logger.Info("server stopped")
}
