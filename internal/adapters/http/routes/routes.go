package routes

import (
	"unibooks/internal/adapters/http/handlers"
	"unibooks/internal/adapters/http/middleware"
	"unibooks/internal/adapters/persistence/repositories"
	"unibooks/internal/config"
	"unibooks/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the cron
// service so main can control its lifecycle.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.CronService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	borrowRepo := repositories.NewBorrowRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	missingRepo := repositories.NewMissingRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	actionLogRepo := repositories.NewActionLogRepository(db)
	likeRepo := repositories.NewLikeRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	siteInfoRepo := repositories.NewSiteInfoRepository(db)

	// Initialize services
	mailService := services.NewMailService(cfg)
	notifier := services.NewNotifierService(notificationRepo, actionLogRepo, userRepo, mailService)
	authService := services.NewAuthService(userRepo, sessionRepo, actionLogRepo, cfg)
	bookService := services.NewBookService(bookRepo, likeRepo, commentRepo, actionLogRepo)
	borrowService := services.NewBorrowService(borrowRepo, bookRepo, userRepo, notifier)
	reservationService := services.NewReservationService(reservationRepo, bookRepo, notifier)
	missingService := services.NewMissingService(missingRepo, userRepo, actionLogRepo, notifier)
	userService := services.NewUserService(userRepo, notificationRepo, actionLogRepo)
	dashboardService := services.NewDashboardService(bookRepo, borrowRepo, reservationRepo, notificationRepo, siteInfoRepo, actionLogRepo)
	sweepService := services.NewSweepService(userRepo, borrowRepo, bookRepo, sessionRepo, notificationRepo, notifier)
	cronService := services.NewCronService(cfg, sweepService, sessionRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	bookHandler := handlers.NewBookHandler(bookService)
	borrowHandler := handlers.NewBorrowHandler(borrowService)
	reservationHandler := handlers.NewReservationHandler(reservationService)
	missingHandler := handlers.NewMissingHandler(missingService)
	userHandler := handlers.NewUserHandler(userService)
	adminHandler := handlers.NewAdminHandler(userService, sweepService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Public auth routes (stricter rate limit)
	auth := apiV1.Group("/auth")
	auth.Post("/register", middleware.AuthRateLimiter(), authHandler.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authHandler.Login)

	// Everything below requires a valid token and live session, and
	// passes through the policy gate (forced password change +
	// subscription check).
	authRequired := middleware.AuthMiddleware(cfg, authService, userRepo)
	gate := middleware.AccessGate(authService)

	auth.Post("/logout", authRequired, gate, authHandler.Logout)
	auth.Post("/password", authRequired, gate, authHandler.ChangePassword)
	auth.Get("/me", authRequired, gate, authHandler.Me)

	// Subscription renewal notice (gate-exempt by path)
	apiV1.Get("/subscription-required", authRequired, gate, userHandler.SubscriptionRequired)

	// Student routes
	student := apiV1.Group("", authRequired, gate)
	student.Get("/dashboard", dashboardHandler.GetDashboard)
	student.Get("/site-info", dashboardHandler.GetSiteInfo)

	student.Get("/books", bookHandler.List)
	student.Get("/books/:id", bookHandler.Get)
	student.Post("/books/:id/like", bookHandler.ToggleLike)
	student.Get("/books/:id/comments", bookHandler.ListComments)
	student.Post("/books/:id/comments", bookHandler.AddComment)

	student.Post("/borrows", borrowHandler.Create)
	student.Get("/borrows", borrowHandler.ListMine)
	student.Get("/borrows/:id", borrowHandler.Get)

	student.Post("/reservations", reservationHandler.Create)
	student.Get("/reservations", reservationHandler.ListMine)
	student.Post("/reservations/:id/cancel", reservationHandler.Cancel)

	student.Post("/missing-requests", missingHandler.Create)
	student.Get("/missing-requests", missingHandler.ListMine)

	student.Get("/profile", userHandler.GetProfile)
	student.Patch("/profile", userHandler.UpdateProfile)
	student.Get("/notifications", userHandler.ListNotifications)
	student.Get("/notifications/unread-count", userHandler.UnreadCount)

	// Staff routes
	admin := apiV1.Group("/admin", authRequired, gate, middleware.StaffOnly())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/users/:id/payment", adminHandler.RecordPayment)
	admin.Post("/users/:id/force-password-change", adminHandler.SetForcePasswordChange)
	admin.Post("/users/:id/roles", middleware.LibrarianOnly(), adminHandler.SetRoles)

	admin.Post("/books", bookHandler.Create)

	admin.Get("/borrows", borrowHandler.List)
	admin.Patch("/borrows/:id", borrowHandler.UpdateStatus)

	admin.Get("/reservations", reservationHandler.List)
	admin.Patch("/reservations/:id", reservationHandler.UpdateStatus)

	admin.Get("/missing-requests", missingHandler.List)
	admin.Patch("/missing-requests/:id", missingHandler.Handle)

	admin.Get("/action-logs", adminHandler.ListActionLogs)
	admin.Patch("/site-info", dashboardHandler.UpdateSiteInfo)

	admin.Post("/sweeps/subscriptions", adminHandler.RunSubscriptionSweep)
	admin.Post("/sweeps/due-dates", adminHandler.RunDueDateSweep)

	return cronService
}
