package routes

import (
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CounselPracticeBack/internal/config"
	"github.com/saeid-a/CounselPracticeBack/internal/handlers"
	"github.com/saeid-a/CounselPracticeBack/internal/middleware"
	"github.com/saeid-a/CounselPracticeBack/internal/repository"
	"github.com/saeid-a/CounselPracticeBack/internal/services"
	notifyws "github.com/saeid-a/CounselPracticeBack/internal/websocket"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, hub *notifyws.Hub, audit *services.AuditLog) {
	stores := services.NewStores(db)
	userRepo := repository.NewUserRepository(db)

	var meetings services.MeetingLinkProvider
	if cfg.MeetingConfigured() {
		meetings = services.NewHTTPMeetingService(cfg.MeetingAPIURL, cfg.MeetingAPIKey)
	}

	reminders := services.NewReminderScheduler(cfg.Location, time.Now)
	appointmentService := services.NewAppointmentService(
		services.NewPgxTxRunner(db),
		stores,
		reminders,
		meetings,
		audit,
		cfg.Location,
		cfg.TrashRetentionDays,
		time.Now,
	)
	calendarService := services.NewCalendarService(stores.Appointments, cfg.Location)
	clientService := services.NewClientService(stores.Clients, stores.Appointments, cfg.Location, time.Now)
	ledgerService := services.NewLedgerService(stores.Transactions, stores.Clients, stores.Appointments, audit, time.Now)
	notificationService := services.NewNotificationService(stores.Notifications, stores.Settings)

	authHandler := handlers.NewAuthHandler(db, userRepo, cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)
	clientHandler := handlers.NewClientHandler(clientService)
	ledgerHandler := handlers.NewLedgerHandler(ledgerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub, cfg.JWTSecret)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// Registered ahead of the /v1 group: the upgrade authenticates with ?token=.
	api.Get("/v1/ws", notificationHandler.WebSocketAuth, websocket.New(notificationHandler.HandleWebSocket))

	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	authProtected.Get("/calendar", calendarHandler.GetCalendar)

	appointments := authProtected.Group("/appointments")
	appointments.Post("", appointmentHandler.Create)
	appointments.Get("/:id", appointmentHandler.Get)
	appointments.Put("/:id/status", appointmentHandler.UpdateStatus)
	appointments.Put("/:id/reschedule", appointmentHandler.Reschedule)
	appointments.Delete("/:id", appointmentHandler.SoftDelete)

	trash := authProtected.Group("/trash")
	trash.Get("", appointmentHandler.ListTrash)
	trash.Post("/:id/restore", appointmentHandler.Restore)
	trash.Delete("/:id", appointmentHandler.PermanentDelete)

	clients := authProtected.Group("/clients")
	clients.Post("", clientHandler.Create)
	clients.Get("", clientHandler.List)
	clients.Get("/:id", clientHandler.Get)
	clients.Put("/:id", clientHandler.Update)
	clients.Get("/:id/balance", ledgerHandler.GetBalance)
	clients.Get("/:id/transactions", ledgerHandler.ListForClient)

	transactions := authProtected.Group("/transactions")
	transactions.Post("", ledgerHandler.Create)
	transactions.Delete("/:id", ledgerHandler.Delete)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Get("/unread-count", notificationHandler.UnreadCount)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Get("/settings", notificationHandler.GetSettings)
	notifications.Put("/settings", notificationHandler.UpdateSettings)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
}
