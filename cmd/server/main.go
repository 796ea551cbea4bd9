package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/CounselPracticeBack/internal/config"
	"github.com/saeid-a/CounselPracticeBack/internal/database"
	"github.com/saeid-a/CounselPracticeBack/internal/jobs"
	"github.com/saeid-a/CounselPracticeBack/internal/logger"
	"github.com/saeid-a/CounselPracticeBack/internal/rabbitmq"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/routes"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
	notifyws "github.com/saeid-a/CounselPracticeBack/internal/websocket"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		logger.Logger.Fatal("DB_URL is required")
	}
	if err := database.ConnectDB(cfg.DBUrl); err != nil {
		logger.Logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Collaborators
	audit := services.NewAuditLog(nil, cfg.AuditExchange)
	if cfg.AMQPUrl != "" {
		publisher, err := rabbitmq.NewAMQPPublisher(cfg.AMQPUrl)
		if err != nil {
			logger.Logger.WithError(err).Warn("RabbitMQ unavailable, audit events will only be logged")
		} else {
			defer publisher.Close()
			audit = services.NewAuditLog(publisher, cfg.AuditExchange)
			defer audit.Close()
		}
	}

	hub := notifyws.NewHub()
	go hub.Run(ctx)

	var sms services.SMSSender
	if cfg.SMSConfigured() {
		sms = services.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
	}

	// 4. Background jobs
	scheduler := jobs.NewScheduler()
	sweeper := services.NewTrashSweeper(repository.NewAppointmentRepository(database.DB), audit, cfg.TrashRetentionDays, time.Now)
	dispatcher := services.NewReminderDispatcher(
		repository.NewNotificationRepository(database.DB),
		hub,
		sms,
		cfg.DispatchBatchSize,
		time.Now,
	)
	if err := jobs.RegisterDefaults(scheduler, cfg.PurgeCron, sweeper, cfg.DispatchCron, dispatcher); err != nil {
		logger.Logger.Fatalf("Failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	// 5. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	routes.RegisterRoutes(app, cfg, database.DB, hub, audit)

	go func() {
		<-ctx.Done()
		logger.Logger.Info("Shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// 6. Start Server
	logger.Logger.Infof("Server starting on port %s (timezone %s)", cfg.Port, cfg.PracticeTimezone)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Logger.Fatalf("Server failed to start: %v", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	scheduler.Stop(stopCtx)
}
