package routes

import (
	"coopfin-backend/internal/adapters/http/handlers"
	"coopfin-backend/internal/adapters/http/middleware"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/config"
	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	dueRepo := repositories.NewDueRepository(db)
	memberDueRepo := repositories.NewMemberDueRepository(db)
	levyRepo := repositories.NewLevyRepository(db)
	memberLevyRepo := repositories.NewMemberLevyRepository(db)
	pledgeRepo := repositories.NewPledgeRepository(db)
	donationRepo := repositories.NewDonationRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Initialize services
	notifyService := services.NewNotificationService(&cfg.Notify, settingRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	paymentService := services.NewPaymentService(
		db,
		paymentRepo,
		memberDueRepo,
		memberLevyRepo,
		pledgeRepo,
		donationRepo,
		loanRepo,
		notifyService,
	)
	dueService := services.NewDueService(dueRepo, memberDueRepo, userRepo, notifyService)
	levyService := services.NewLevyService(levyRepo, memberLevyRepo, userRepo, notifyService)
	pledgeService := services.NewPledgeService(pledgeRepo)
	donationService := services.NewDonationService(donationRepo)
	loanService := services.NewLoanService(loanRepo, notifyService)
	transactionService := services.NewTransactionService(transactionRepo)
	dashboardService := services.NewDashboardService(db)
	reportService := services.NewReportService(db, transactionRepo)
	settingService := services.NewSettingService(settingRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, authService)
	dueHandler := handlers.NewDueHandler(dueService)
	levyHandler := handlers.NewLevyHandler(levyService)
	pledgeHandler := handlers.NewPledgeHandler(pledgeService)
	donationHandler := handlers.NewDonationHandler(donationService)
	loanHandler := handlers.NewLoanHandler(loanService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingHandler := handlers.NewSettingHandler(settingService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public, rate limited)
	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	// Everything below requires authentication
	authed := apiV1.Group("", middleware.AuthMiddleware(cfg))

	setupUserRoutes(authed.Group("/users"), userHandler)
	setupPaymentRoutes(authed.Group("/payments"), paymentHandler)
	setupDueRoutes(authed.Group("/dues"), dueHandler)
	setupLevyRoutes(authed.Group("/levies"), levyHandler)
	setupPledgeRoutes(authed.Group("/pledges"), pledgeHandler)
	setupDonationRoutes(authed.Group("/donations"), donationHandler)
	setupLoanRoutes(authed.Group("/loans"), loanHandler)
	setupTransactionRoutes(authed.Group("/transactions"), transactionHandler)
	setupDashboardRoutes(authed.Group("/dashboard"), dashboardHandler)

	// Reports (admin)
	authed.Get("/reports/:type", middleware.RequireCapability(authz.CapReportsView), reportHandler.Build)

	// Settings (super admin)
	settingRoutes := authed.Group("/settings", middleware.RequireCapability(authz.CapSettingsManage))
	settingRoutes.Get("/", settingHandler.Get)
	settingRoutes.Put("/", settingHandler.Update)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes, throttled against brute force
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", middleware.AuthRateLimiter(), handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management and profile routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	// Self-service (any authenticated user)
	router.Get("/profile", handler.Profile)
	router.Put("/profile", handler.UpdateProfile)
	router.Put("/change-password", handler.ChangePassword)

	// Member management
	router.Get("/", middleware.RequireCapability(authz.CapMembersManage), handler.List)
	router.Post("/import", middleware.RequireCapability(authz.CapMembersImport),
		middleware.ImportRateLimiter(), handler.Import)
	router.Get("/:id", middleware.RequireCapability(authz.CapMembersManage), handler.Get)
	router.Put("/:id", middleware.RequireCapability(authz.CapMembersManage), handler.Update)
	router.Put("/:id/deactivate", middleware.RequireCapability(authz.CapMembersManage), handler.Deactivate)

	// Role assignment (super admin)
	router.Patch("/:id/role", middleware.RequireCapability(authz.CapRolesManage), handler.SetRole)
}

// setupPaymentRoutes configures the payment ledger routes
func setupPaymentRoutes(router fiber.Router, handler *handlers.PaymentHandler) {
	// Any member can record a payment and see their own
	router.Post("/", handler.Record)
	router.Get("/my-payments", handler.MyPayments)
	router.Get("/:id", handler.Get)

	// Review (loan repayment visibility is enforced in the handler/service)
	router.Get("/", middleware.RequireCapability(authz.CapPaymentsReview), handler.List)
	router.Put("/:id/approve", middleware.RequireCapability(authz.CapPaymentsReview), handler.Approve)
	router.Put("/:id/reject", middleware.RequireCapability(authz.CapPaymentsReview), handler.Reject)
}

// setupDueRoutes configures due template and assignment routes
func setupDueRoutes(router fiber.Router, handler *handlers.DueHandler) {
	manage := authz.CapDuesManage

	// Member self-service
	router.Get("/members/my-dues", handler.MyDues)

	// Template management
	router.Post("/", middleware.RequireCapability(manage), handler.Create)
	router.Get("/", middleware.RequireCapability(manage), handler.List)
	router.Get("/:id", middleware.RequireCapability(manage), handler.Get)
	router.Put("/:id", middleware.RequireCapability(manage), handler.Update)
	router.Delete("/:id", middleware.RequireCapability(manage), handler.Delete)
	router.Post("/:id/assign", middleware.RequireCapability(manage), handler.Assign)
	router.Get("/:id/members", middleware.RequireCapability(manage), handler.Members)
}

// setupLevyRoutes configures levy template and assignment routes
func setupLevyRoutes(router fiber.Router, handler *handlers.LevyHandler) {
	manage := authz.CapLeviesManage

	router.Get("/members/my-levies", handler.MyLevies)

	router.Post("/", middleware.RequireCapability(manage), handler.Create)
	router.Get("/", middleware.RequireCapability(manage), handler.List)
	router.Get("/:id", middleware.RequireCapability(manage), handler.Get)
	router.Put("/:id", middleware.RequireCapability(manage), handler.Update)
	router.Delete("/:id", middleware.RequireCapability(manage), handler.Delete)
	router.Post("/:id/assign", middleware.RequireCapability(manage), handler.Assign)
	router.Get("/:id/members", middleware.RequireCapability(manage), handler.Members)
}

// setupPledgeRoutes configures pledge routes
func setupPledgeRoutes(router fiber.Router, handler *handlers.PledgeHandler) {
	router.Post("/", handler.Create)
	router.Get("/my-pledges", handler.MyPledges)
	router.Get("/:id", handler.Get)

	router.Get("/", middleware.RequireCapability(authz.CapPledgesReview), handler.List)
	router.Put("/:id/reject", middleware.RequireCapability(authz.CapPledgesReview), handler.Reject)
}

// setupDonationRoutes configures donation routes
func setupDonationRoutes(router fiber.Router, handler *handlers.DonationHandler) {
	router.Post("/", handler.Create)
	router.Get("/my-donations", handler.MyDonations)
	router.Get("/:id", handler.Get)

	router.Get("/", middleware.RequireCapability(authz.CapDonationsReview), handler.List)
	router.Put("/:id/reject", middleware.RequireCapability(authz.CapDonationsReview), handler.Reject)
}

// setupLoanRoutes configures loan application routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Post("/", handler.Apply)
	router.Get("/my-loans", handler.MyLoans)
	router.Get("/:id", handler.Get)

	// Loan review requires level 2 or higher
	router.Get("/", middleware.RequireCapability(authz.CapLoansManage), handler.List)
	router.Put("/:id/approve", middleware.RequireCapability(authz.CapLoansManage), handler.Approve)
	router.Put("/:id/reject", middleware.RequireCapability(authz.CapLoansManage), handler.Reject)
	router.Put("/:id/paid", middleware.RequireCapability(authz.CapLoansManage), handler.MarkPaid)
}

// setupTransactionRoutes configures organizational transaction routes
func setupTransactionRoutes(router fiber.Router, handler *handlers.TransactionHandler) {
	manage := authz.CapTransactionsManage

	router.Post("/", middleware.RequireCapability(manage), handler.Create)
	router.Get("/", middleware.RequireCapability(manage), handler.List)
	router.Get("/:id", middleware.RequireCapability(manage), handler.Get)
	router.Put("/:id", middleware.RequireCapability(manage), handler.Update)
	router.Delete("/:id", middleware.RequireCapability(manage), handler.Delete)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	// Member dashboard (all authenticated users)
	router.Get("/me", handler.Member)

	// Organization-wide dashboard
	router.Get("/admin", middleware.RequireCapability(authz.CapReportsView), handler.Admin)
}
