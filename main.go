package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whatsapp-notifier/config"
	"whatsapp-notifier/controllers"
	"whatsapp-notifier/logger"
	"whatsapp-notifier/routes"
	"whatsapp-notifier/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger.Bootstrap(os.Stderr)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Console: !cfg.IsProduction(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	loc, _ := cfg.Location()

	db, err := config.ConnectDB(cfg)
	if err != nil {
		logger.Fatal("Database connection failed", zap.Error(err))
	}

	store := services.NewStore(db, services.StoreOptions{
		Location:  loc,
		BatchSize: cfg.BatchSize,
		CompanyID: cfg.CompanyID,
	})
	if cfg.DBAutoMigrate {
		if err := store.AutoMigrate(); err != nil {
			logger.Fatal("Migration failed", zap.Error(err))
		}
	}

	sender, templates := newSender(cfg)
	dispatcher := services.NewDispatcher(sender, templates, loc, logger.L())
	scheduler := services.NewScheduler(store, dispatcher, services.SchedulerOptions{
		Interval: cfg.PollInterval,
		Location: loc,
		Hours: services.BusinessHours{
			Start: cfg.BusinessHourStart,
			End:   cfg.BusinessHourEnd,
		},
	}, logger.L())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan struct{})
	go func() {
		scheduler.Run(ctx)
		close(schedulerDone)
	}()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(&controllers.HealthController{
		Scheduler: scheduler,
		StartedAt: time.Now(),
	})
	printRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	<-schedulerDone

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Worker stopped")
}

// newSender builds the gateway client for the configured driver and the template
// ids it expects.
func newSender(cfg *config.Config) (services.Sender, services.Templates) {
	if cfg.GatewayDriver == config.GatewayTwilio {
		logger.Info("Using Twilio gateway")
		return services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber),
			services.Templates{
				Welcome:  cfg.TwilioContentSIDWelcome,
				Reminder: cfg.TwilioContentSIDReminder,
			}
	}

	services.CheckGatewayToken(cfg.GatewayToken, time.Now())
	return services.NewPartnerBotClient(cfg.GatewayURL, cfg.GatewayToken, cfg.GatewayTimeout),
		services.Templates{
			Welcome:  cfg.TemplateNewSchedule,
			Reminder: cfg.TemplateReminder,
		}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		logger.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}
}
