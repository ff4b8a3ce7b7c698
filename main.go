package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentcrm-backend/config"
	"agentcrm-backend/controllers"
	"agentcrm-backend/providers"
	"agentcrm-backend/routes"
	"agentcrm-backend/services"
	"agentcrm-backend/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("main: invalid timezone", zap.Error(err))
	}
	clock := services.SystemClock{Location: loc}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("main: failed to connect database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		logger.Fatal("main: failed to migrate database", zap.Error(err))
	}
	repo := store.NewGormStore(db)

	// transports and channels.
	twilio := providers.NewTwilioTransport(cfg.TwilioAccountSID, cfg.TwilioAuthToken)
	smtp := providers.NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)

	usage := services.NewUsageTracker(repo, clock)
	quota := services.NewQuotaGate(usage)
	channels := services.NewChannelSet(
		services.NewSMSChannel(twilio, cfg.TwilioPhoneNumber, cfg.SMSCost, repo, usage, clock, logger),
		services.NewWhatsAppChannel(twilio, cfg.TwilioWhatsAppNumber, repo, clock, logger),
		services.NewEmailChannel(smtp, cfg.EmailFrom, repo, clock, logger),
	)

	var locker services.RunLocker = services.NewLocalLocker()
	if cfg.RedisAddr != "" {
		rdb, err := store.NewRedisClient(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal("main: failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = store.NewRedisLocker(rdb, logger)
	}

	scheduler := services.NewReminderScheduler(services.SchedulerOptions{
		Clients:    repo,
		Reminders:  repo,
		Activity:   repo,
		Channels:   channels,
		Quota:      quota,
		Locker:     locker,
		Clock:      clock,
		Logger:     logger,
		DailySpec:  cfg.DailySweepSpec,
		HourlySpec: cfg.HourlyFlushSpec,
	})
	if err := scheduler.Start(); err != nil {
		logger.Fatal("main: failed to start reminder scheduler", zap.Error(err))
	}

	sender := services.NewManualSender(repo, repo, channels, quota, clock, logger)

	router := routes.SetupRouter(cfg, logger, routes.Handlers{
		Auth:      controllers.NewAuthController(repo, cfg.JWTSecret, cfg.JWTExpiry(), logger),
		Clients:   controllers.NewClientController(repo, logger),
		Reminders: controllers.NewReminderController(repo, sender, usage, clock, logger),
		Quota:     quota,
	})
	if !cfg.IsProduction() {
		printRoutes(logger, router)
	}

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	scheduler.Stop(ctx)
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}

	logger.Info("main: server stopped gracefully")
}

func printRoutes(logger *zap.Logger, r *gin.Engine) {
	for _, route := range r.Routes() {
		logger.Debug("route", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
